package reprobuild

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
)

// Run re-executes the build recipe of meta in its docker build environment, with the source
// checkout in workdir mounted into the container. On success it returns the host path of the
// resulting WASM artifact. Run expects meta to have passed Validate.
func Run(meta *nep330.ContractSourceMetadata, workdir string, opts ...RunOption) (artifact string, err error) {
	options, err := applyRunOpts(opts)
	if err != nil {
		return "", err
	}

	spec, err := NewDockerRunSpec(meta, workdir, options.Stdin, options.AdditionalDockerArgs)
	if err != nil {
		return "", err
	}

	cmd := exec.Command(options.DockerExecutable, spec.Args()...)
	log.WithFields(log.Fields{
		"container":   spec.ContainerName,
		"interactive": spec.Interactive,
	}).Debugf("docker command:\n%s", indentPayload(strings.Join(cmd.Args, "\n")))

	started := time.Now()
	err = runBuildContainer(cmd, options)
	log.WithField("duration", time.Since(started).Round(time.Millisecond)).WithField("success", err == nil).Debug("build container exited")
	if err != nil {
		return "", err
	}

	return ResolveArtifact(meta, workdir, options.NoLocked)
}

func runBuildContainer(cmd *exec.Cmd, options runOptions) error {
	if options.Stdin != nil {
		cmd.Stdin = options.Stdin
	}

	var captured bytes.Buffer
	if options.Quiet {
		cmd.Stdout = &captured
		cmd.Stderr = &captured
	} else {
		cmd.Stdout = options.Stdout
		cmd.Stderr = options.Stderr
	}

	if err := cmd.Start(); err != nil {
		return launchError(cmd, err, ErrReproducible)
	}

	err := cmd.Wait()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return launchError(cmd, err, ErrReproducible)
	}
	return &BuildError{
		Type:     ErrorTypeBuildFailure,
		Message:  ErrReproducible,
		Command:  cmd.Args,
		ExitCode: exitErr.ExitCode(),
		Output:   captured.String(),
	}
}
