package harness

import (
	"errors"
	"fmt"
)

// RuntimeError represents an operational error that should lead to exit code 2.
// Examples include configuration errors, a missing runner binary, etc.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// UnexpectedResultsError represents a run that completed but produced results
// diverging from the recorded expectations (exit code 1).
type UnexpectedResultsError struct {
	Message string
}

func (e *UnexpectedResultsError) Error() string {
	return fmt.Sprintf("unexpected results: %s", e.Message)
}

// NewUnexpectedResultsError creates a new UnexpectedResultsError
func NewUnexpectedResultsError(message string) *UnexpectedResultsError {
	return &UnexpectedResultsError{Message: message}
}

// IsUnexpectedResultsError checks if the error is or wraps an UnexpectedResultsError
func IsUnexpectedResultsError(err error) bool {
	var resultsErr *UnexpectedResultsError
	return err != nil && errors.As(err, &resultsErr)
}
