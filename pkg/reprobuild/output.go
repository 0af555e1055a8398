package reprobuild

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
	"github.com/wasmrepro/wasmrepro/pkg/reprobuild/cargo"
)

// ArtifactDescriptor names the strategy an artifact path was resolved with
type ArtifactDescriptor string

const (
	// DescriptorDeclaredPath is used when the metadata declares `output_wasm_path`
	DescriptorDeclaredPath ArtifactDescriptor = "generic declared-path build"
	// DescriptorLegacyCrate is used when the artifact location is inferred from cargo metadata
	DescriptorLegacyCrate ArtifactDescriptor = "legacy crate build"
)

// ResolveArtifact locates the artifact a successful build produced in the source checkout.
// If the metadata declares `output_wasm_path` that path is mapped from the container onto
// workdir, otherwise the location is inferred from cargo metadata of a single contract crate.
func ResolveArtifact(meta *nep330.ContractSourceMetadata, workdir string, noLocked bool) (string, error) {
	bi := meta.BuildInfo
	if bi == nil {
		return "", meta.Validate(nil)
	}

	var (
		candidate  string
		descriptor ArtifactDescriptor
		err        error
	)
	if bi.OutputWasmPath != nil {
		descriptor = DescriptorDeclaredPath
		candidate, err = DeclaredOutputPath(*bi.OutputWasmPath, workdir)
	} else {
		descriptor = DescriptorLegacyCrate
		candidate, err = LegacyOutputPath(bi.ContractPath, workdir, noLocked)
	}
	if err != nil {
		return "", err
	}

	log.WithField("strategy", descriptor).WithField("artifact", candidate).Info("resolved artifact location")
	if err := checkArtifact(candidate, descriptor); err != nil {
		return "", err
	}
	return candidate, nil
}

// DeclaredOutputPath maps an `output_wasm_path` inside the container onto the source checkout in workdir
func DeclaredOutputPath(outputWasmPath, workdir string) (string, error) {
	rel, err := MountRelative(outputWasmPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(workdir, filepath.FromSlash(rel)), nil
}

// LegacyOutputPath infers where cargo-near put the WASM of the crate at contractPath
func LegacyOutputPath(contractPath, workdir string, noLocked bool) (string, error) {
	manifest := cargo.NewManifestPath(workdir, nep330.ContractPathComponents(contractPath))

	crate, err := cargo.Collect(manifest, noLocked)
	if err != nil {
		return "", &BuildError{
			Type:     ErrorTypeMetadataTool,
			Message:  fmt.Sprintf("cannot collect crate metadata of `%s`", manifest.Path),
			Path:     manifest.Path,
			ExitCode: -1,
			Cause:    err,
		}
	}
	return crate.LegacyOutputPath(), nil
}

func checkArtifact(candidate string, descriptor ArtifactDescriptor) error {
	fail := func(msg string, cause error) error {
		return &BuildError{
			Type:       ErrorTypeArtifact,
			Message:    fmt.Sprintf("%s: %s: `%s`", descriptor, msg, candidate),
			Path:       candidate,
			Descriptor: descriptor,
			ExitCode:   -1,
			Cause:      cause,
		}
	}

	stat, err := os.Stat(candidate)
	if errors.Is(err, fs.ErrNotExist) {
		return fail("result wasm file not found", nil)
	}
	if err != nil {
		return fail("cannot stat result path", err)
	}
	if !stat.Mode().IsRegular() {
		return fail("result path isn't a file", nil)
	}
	if filepath.Ext(candidate) != "."+ExpectedExtension {
		return fail(fmt.Sprintf("result path doesn't have the expected `.%s` extension", ExpectedExtension), nil)
	}
	return nil
}
