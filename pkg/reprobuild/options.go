package reprobuild

import (
	"io"
	"os"

	"golang.org/x/xerrors"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
)

// EnvvarDockerExecutable names the environment variable that overrides the docker executable
const EnvvarDockerExecutable = "WASMREPRO_DOCKER"

type runOptions struct {
	AdditionalDockerArgs []string
	Quiet                bool
	NoLocked             bool
	DockerExecutable     string
	DockerChecks         bool
	Whitelist            *nep330.Whitelist

	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer
}

// RunOption configures a build
type RunOption func(*runOptions) error

// WithAdditionalDockerArgs passes extra arguments to `docker run`, placed before the image
func WithAdditionalDockerArgs(args []string) RunOption {
	return func(opts *runOptions) error {
		opts.AdditionalDockerArgs = append(opts.AdditionalDockerArgs, args...)
		return nil
	}
}

// WithQuiet captures the output of docker instead of passing it through
func WithQuiet(quiet bool) RunOption {
	return func(opts *runOptions) error {
		opts.Quiet = quiet
		return nil
	}
}

// WithNoLocked runs `cargo metadata` without `--locked` when resolving legacy artifacts
func WithNoLocked(noLocked bool) RunOption {
	return func(opts *runOptions) error {
		opts.NoLocked = noLocked
		return nil
	}
}

// WithDockerExecutable overrides the docker executable
func WithDockerExecutable(executable string) RunOption {
	return func(opts *runOptions) error {
		if executable == "" {
			return xerrors.Errorf("docker executable must not be empty")
		}
		opts.DockerExecutable = executable
		return nil
	}
}

// WithDockerChecks makes Verify check that docker works and pull the build image before building
func WithDockerChecks(enabled bool) RunOption {
	return func(opts *runOptions) error {
		opts.DockerChecks = enabled
		return nil
	}
}

// WithWhitelist makes Verify enforce a whitelist during validation
func WithWhitelist(whitelist *nep330.Whitelist) RunOption {
	return func(opts *runOptions) error {
		opts.Whitelist = whitelist
		return nil
	}
}

// WithStdio replaces the standard streams handed to docker. A nil stdin never requests a terminal.
func WithStdio(stdin *os.File, stdout, stderr io.Writer) RunOption {
	return func(opts *runOptions) error {
		opts.Stdin = stdin
		opts.Stdout = stdout
		opts.Stderr = stderr
		return nil
	}
}

func applyRunOpts(opts []RunOption) (runOptions, error) {
	res := runOptions{
		DockerExecutable: "docker",
		Stdin:            os.Stdin,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
	}
	if exe := os.Getenv(EnvvarDockerExecutable); exe != "" {
		res.DockerExecutable = exe
	}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	if res.Stdout == nil {
		res.Stdout = io.Discard
	}
	if res.Stderr == nil {
		res.Stderr = io.Discard
	}
	return res, nil
}
