package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both missing resources and resources owned by another
	// tenant; callers surface the two identically so existence is not leaked.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidScope indicates a scope key could not be derived.
	ErrInvalidScope = errors.New("invalid scope")
)

// ValidationError rejects a single offending field of a settings update.
// The whole update is discarded; nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
