package nep330

import (
	"errors"
	"fmt"
)

// ErrorClass groups validation failures into the categories callers usually branch on
type ErrorClass string

const (
	ClassSchema  ErrorClass = "schema"
	ClassPath    ErrorClass = "path"
	ClassFormat  ErrorClass = "format"
	ClassCommand ErrorClass = "command"
	ClassPolicy  ErrorClass = "policy"
)

// ErrorKind names the exact rule a document or build recipe violated
type ErrorKind string

const (
	KindInvalidDocument               ErrorKind = "invalid-document"
	KindMissingBuildInfo              ErrorKind = "missing-build-info"
	KindInvalidContractPath           ErrorKind = "invalid-contract-path"
	KindEmptyBuildCommand             ErrorKind = "empty-build-command"
	KindEmptyCommandToken             ErrorKind = "empty-command-token"
	KindInvalidBuildEnvironmentFormat ErrorKind = "invalid-build-environment-format"
	KindImageNotWhitelisted           ErrorKind = "image-not-whitelisted"
	KindCommandPrefixMismatch         ErrorKind = "command-prefix-mismatch"
)

// Class returns the category of the error kind
func (k ErrorKind) Class() ErrorClass {
	switch k {
	case KindInvalidDocument, KindMissingBuildInfo:
		return ClassSchema
	case KindInvalidContractPath:
		return ClassPath
	case KindEmptyBuildCommand, KindEmptyCommandToken:
		return ClassCommand
	case KindInvalidBuildEnvironmentFormat:
		return ClassFormat
	case KindImageNotWhitelisted, KindCommandPrefixMismatch:
		return ClassPolicy
	default:
		return ClassSchema
	}
}

// ValidationError is returned whenever metadata or a whitelist is rejected
type ValidationError struct {
	Kind    ErrorKind `json:"kind"`
	Field   string    `json:"field,omitempty"`
	Value   string    `json:"value,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind.Class(), e.Message)
}

// Unwrap returns the underlying cause
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func newValidationError(kind ErrorKind, field, value, message string) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsKind reports whether err is (or wraps) a ValidationError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	return verr.Kind == kind
}
