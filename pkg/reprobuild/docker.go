package reprobuild

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/segmentio/textio"
	log "github.com/sirupsen/logrus"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
)

const (
	// ErrReproducible is the message of every failed build container run
	ErrReproducible = "Reproducible build in docker container failed."

	errSanity = "`docker` sanity check failed!"

	// containerNamePrefix prefixes the names of build containers
	containerNamePrefix = "nep330-verify"

	// permDeniedStatus is the exit code docker uses when it cannot invoke the container command
	permDeniedStatus = 126
)

// DockerRunSpec is the fully resolved `docker run` invocation of a build
type DockerRunSpec struct {
	UserGroup      string
	ContainerName  string
	Paths          ContainerPaths
	Interactive    bool
	Env            []string
	AdditionalArgs []string
	Image          string
	Command        string
}

// Args produces the argument vector for the docker executable
func (s DockerRunSpec) Args() []string {
	args := []string{
		"run",
		"-u", s.UserGroup,
		"--name", s.ContainerName,
		"--volume", s.Paths.HostVolumeArg,
		"--rm",
		"--workdir", s.Paths.CratePath,
	}
	if s.Interactive {
		args = append(args, "-it")
	}
	args = append(args, s.Env...)
	args = append(args, s.AdditionalArgs...)
	args = append(args, s.Image, "/bin/bash", "-c", s.Command)
	return args
}

// NewDockerRunSpec assembles the docker invocation for building the contract described by meta
func NewDockerRunSpec(meta *nep330.ContractSourceMetadata, workdir string, stdin *os.File, additionalArgs []string) (DockerRunSpec, error) {
	bi := meta.BuildInfo
	if bi == nil {
		return DockerRunSpec{}, meta.Validate(nil)
	}

	paths, err := ComputeContainerPaths(bi, workdir)
	if err != nil {
		return DockerRunSpec{}, err
	}

	cmd := ShellEscapeBuildCommand(bi.BuildCommand)
	log.WithField("command", cmd).Debug("build command in container")

	return DockerRunSpec{
		UserGroup:      dockerUserGroup(),
		ContainerName:  containerName(),
		Paths:          paths,
		Interactive:    interactive(stdin),
		Env:            meta.DockerEnvArgs(),
		AdditionalArgs: additionalArgs,
		Image:          bi.BuildEnvironment,
		Command:        cmd,
	}, nil
}

// ShellEscapeBuildCommand joins the build command into a single string for `bash -c`
func ShellEscapeBuildCommand(buildCommand []string) string {
	return shellescape.QuoteCommand(buildCommand)
}

// containerName is unique per process and point in time, so that concurrent builds on
// the same docker host don't collide.
func containerName() string {
	return fmt.Sprintf("%s-%d-%d", containerNamePrefix, time.Now().UnixNano(), os.Getpid())
}

func indentPayload(s string) string {
	var buf bytes.Buffer
	w := textio.NewPrefixWriter(&buf, " |    ")
	_, _ = w.Write([]byte(s))
	_ = w.Flush()
	return buf.String()
}

// launchError classifies a failure to start (or await) an external program
func launchError(cmd *exec.Cmd, err error, message string) *BuildError {
	res := &BuildError{
		Type:     ErrorTypeProcessLaunch,
		Message:  message,
		Command:  cmd.Args,
		ExitCode: -1,
		Cause:    err,
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		res.ExecutableMissing = true
		log.WithField("executable", cmd.Path).Debug("executable isn't available")
	} else {
		log.WithError(err).WithField("command", strings.Join(cmd.Args, " ")).Debug("error obtaining status from executing command")
	}
	return res
}

// DockerSanityCheck makes sure docker is installed and allowed to run containers
func DockerSanityCheck(opts ...RunOption) error {
	options, err := applyRunOpts(opts)
	if err != nil {
		return err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(options.DockerExecutable, "run", "--rm", "hello-world")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return launchError(cmd, err, errSanity)
	}

	res := &BuildError{
		Type:     ErrorTypeDockerCheck,
		Message:  errSanity,
		Command:  cmd.Args,
		ExitCode: exitErr.ExitCode(),
		Output:   stderr.String(),
	}
	res.PermissionDenied = res.ExitCode == permDeniedStatus || strings.Contains(strings.ToLower(res.Output), "permission denied")
	log.WithFields(log.Fields{
		"exitCode":         res.ExitCode,
		"permissionDenied": res.PermissionDenied,
	}).Debug("docker sanity check failed")
	return res
}

// PullImage pulls the build environment image
func PullImage(image string, opts ...RunOption) error {
	options, err := applyRunOpts(opts)
	if err != nil {
		return err
	}

	errReport := fmt.Sprintf("Image `%s` could not be found in registry!", image)
	ref, err := name.NewDigest(image)
	if err != nil {
		return &BuildError{Type: ErrorTypeDockerCheck, Message: errReport, ExitCode: -1, Cause: err}
	}
	log.WithFields(log.Fields{
		"image":    image,
		"registry": ref.Context().RegistryStr(),
		"digest":   ref.DigestStr(),
	}).Info("docker image to be used")

	var captured bytes.Buffer
	cmd := exec.Command(options.DockerExecutable, "image", "pull", image)
	if options.Quiet {
		cmd.Stdout = &captured
		cmd.Stderr = &captured
	} else {
		cmd.Stdout = options.Stdout
		cmd.Stderr = options.Stderr
	}

	err = cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return launchError(cmd, err, errReport)
	}
	return &BuildError{
		Type:     ErrorTypeDockerCheck,
		Message:  errReport,
		Command:  cmd.Args,
		ExitCode: exitErr.ExitCode(),
		Output:   captured.String(),
	}
}
