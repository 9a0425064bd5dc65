// Package domain defines core types, interfaces, and errors for the
// location-sharing core.
package domain

import "fmt"

// ValidationError indicates invalid input: a malformed identifier, an
// out-of-range coordinate, or a self-share attempt. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// StoreError indicates an I/O or backend failure. Surfaced to the caller
// without automatic retry.
type StoreError struct {
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StoreError) Unwrap() error { return e.Err }

// StaleStateError indicates a compensating write failed after a partial
// two-step update, leaving persisted state ahead of last-known-good.
type StaleStateError struct {
	Message string
	Err     error
}

func (e *StaleStateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StaleStateError) Unwrap() error { return e.Err }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrStore wraps a backend failure in a StoreError.
func ErrStore(message string, err error) *StoreError {
	return &StoreError{Message: message, Err: err}
}

// ErrStaleState wraps a failed compensation in a StaleStateError.
func ErrStaleState(message string, err error) *StaleStateError {
	return &StaleStateError{Message: message, Err: err}
}
