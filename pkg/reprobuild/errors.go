package reprobuild

import (
	"errors"
	"fmt"
	"strings"
)

// BuildErrorType categorizes failures of the build pipeline
type BuildErrorType string

const (
	// ErrorTypePath means a path from the metadata could not be mapped between host and container
	ErrorTypePath BuildErrorType = "path"
	// ErrorTypeProcessLaunch means an external program could not be started or awaited
	ErrorTypeProcessLaunch BuildErrorType = "process-launch"
	// ErrorTypeBuildFailure means the build container ran and exited with a non-zero status
	ErrorTypeBuildFailure BuildErrorType = "build-failure"
	// ErrorTypeArtifact means the resolved artifact is missing, not a file or has the wrong extension
	ErrorTypeArtifact BuildErrorType = "artifact"
	// ErrorTypeMetadataTool means `cargo metadata` failed
	ErrorTypeMetadataTool BuildErrorType = "metadata-tool"
	// ErrorTypeDockerCheck means docker is not usable or the build image cannot be pulled
	ErrorTypeDockerCheck BuildErrorType = "docker-check"
	// ErrorTypeIO means reading an artifact failed
	ErrorTypeIO BuildErrorType = "io"
)

// BuildError represents a categorized failure while building or resolving an artifact
type BuildError struct {
	Type    BuildErrorType `json:"type"`
	Message string         `json:"message"`

	// Path is the path the error is about, if any.
	Path string `json:"path,omitempty"`
	// Descriptor names the artifact resolution strategy for artifact errors.
	Descriptor ArtifactDescriptor `json:"descriptor,omitempty"`
	// Command is the argv of the external program involved, if any.
	Command []string `json:"command,omitempty"`
	// ExitCode of the external program, -1 if it never exited.
	ExitCode int `json:"exitCode"`
	// Output holds the captured output of the external program in quiet mode.
	Output string `json:"output,omitempty"`

	// ExecutableMissing is set when the external program could not be found.
	ExecutableMissing bool `json:"executableMissing,omitempty"`
	// PermissionDenied is set when docker refused to run for lack of permissions.
	PermissionDenied bool `json:"permissionDenied,omitempty"`

	Cause error `json:"-"`
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for error wrapping
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// CommandStatus describes how the external program failed, e.g. for printing below its output
func (e *BuildError) CommandStatus() string {
	if len(e.Command) == 0 {
		return ""
	}
	status := fmt.Sprintf("exit status %d", e.ExitCode)
	if e.ExitCode < 0 {
		status = "no exit status"
	}
	return fmt.Sprintf("Command `%s` failed with: %s.", strings.Join(e.Command, " "), status)
}

// IsType reports whether err is (or wraps) a BuildError of the given type
func IsType(err error, tpe BuildErrorType) bool {
	var berr *BuildError
	if !errors.As(err, &berr) {
		return false
	}
	return berr.Type == tpe
}
