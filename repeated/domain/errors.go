package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a trial configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConflictingRules is returned when more than one decision rule family
	// is configured for the same test.
	ErrConflictingRules = errors.New("conflicting decision rules")

	// ErrMissingCompanion is returned when an option is set without the
	// option it depends on.
	ErrMissingCompanion = errors.New("missing required option")

	// ErrInvalidArgument is returned when a proportion test receives inputs
	// outside of their domain.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")
)

// AssertionError is the failure signal of a trial whose condition was not met.
// Trials failing with an AssertionError are retried.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	if e.Message == "" {
		return "assertion failed"
	}
	return e.Message
}

// Assertionf returns an AssertionError with a formatted message.
func Assertionf(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

// IsAssertion reports whether err is an assertion-style failure.
func IsAssertion(err error) bool {
	var assertion *AssertionError
	return errors.As(err, &assertion)
}

// PanicError wraps a value recovered from a panicking trial body.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return fmt.Sprintf("panic: %v", err)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value to errors.Is and errors.As.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
