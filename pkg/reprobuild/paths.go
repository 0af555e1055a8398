package reprobuild

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
)

const (
	// RepoMount is the directory inside the build container the source checkout is mounted to
	RepoMount = "/home/near/code"

	// ExpectedExtension is the extension every resolved artifact must carry
	ExpectedExtension = "wasm"
)

// ContainerPaths maps the source checkout into the build container
type ContainerPaths struct {
	// HostVolumeArg is the docker volume spec, i.e. `<host dir>:<RepoMount>`
	HostVolumeArg string
	// CratePath is the working directory of the build command inside the container
	CratePath string
}

// ComputeContainerPaths derives the volume spec and in-container workdir for a build
func ComputeContainerPaths(bi *nep330.BuildInfo, workdir string) (ContainerPaths, error) {
	host, err := filepath.Abs(workdir)
	if err != nil {
		return ContainerPaths{}, &BuildError{
			Type:     ErrorTypePath,
			Message:  fmt.Sprintf("cannot make source workdir `%s` absolute", workdir),
			Path:     workdir,
			ExitCode: -1,
			Cause:    err,
		}
	}

	cratePath, err := joinMount(bi.ContractPath)
	if err != nil {
		return ContainerPaths{}, err
	}

	return ContainerPaths{
		HostVolumeArg: fmt.Sprintf("%s:%s", host, RepoMount),
		CratePath:     cratePath,
	}, nil
}

func joinMount(contractPath string) (string, error) {
	joined := path.Join(RepoMount, contractPath)
	if path.IsAbs(contractPath) || !isMountSubpath(joined) {
		return "", &BuildError{
			Type:     ErrorTypePath,
			Message:  fmt.Sprintf("`contract_path` (`%s`) cannot be joined onto `%s`", contractPath, RepoMount),
			Path:     contractPath,
			ExitCode: -1,
		}
	}
	return joined, nil
}

// MountRelative returns p relative to RepoMount. p must be an absolute path at or below RepoMount.
func MountRelative(p string) (string, error) {
	cleaned := path.Clean(p)
	if path.IsAbs(cleaned) && isMountSubpath(cleaned) {
		return strings.TrimPrefix(strings.TrimPrefix(cleaned, RepoMount), "/"), nil
	}
	return "", &BuildError{
		Type:     ErrorTypePath,
		Message:  fmt.Sprintf("`output_wasm_path` (`%s`) is not a subpath of `%s`", p, RepoMount),
		Path:     p,
		ExitCode: -1,
	}
}

func isMountSubpath(p string) bool {
	return p == RepoMount || strings.HasPrefix(p, RepoMount+"/")
}
