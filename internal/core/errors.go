package core

import (
	"errors"
	"fmt"
)

// Error categories. Typed errors below match these with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("upstream analysis failed")
	ErrTransport  = errors.New("transport failure")
)

// ValidationError reports a rejected input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown identifier
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UpstreamError is a failed analysis, simulated or real
type UpstreamError struct {
	URL     string
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("analysis of %s failed: %s", e.URL, e.Message)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// TransportError wraps a network or protocol failure talking to the backend
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
