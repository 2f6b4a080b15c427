// Package errors defines the error types and exit codes used across cargoup.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes for scripting integration.
// These codes allow scripts to distinguish between different failure modes.
const (
	// ExitSuccess indicates all operations completed successfully.
	ExitSuccess = 0

	// ExitFailure indicates a fatal error occurred. The run is fail-fast:
	// manifests already written before the failure stay written.
	ExitFailure = 2

	// ExitConfigError indicates a configuration or flag validation error.
	// The command could not proceed at all.
	ExitConfigError = 3
)

// ExitError represents a command termination with a specific exit code.
//
// Use this error when a command needs to exit with a non-zero status
// while providing context about what went wrong.
//
// Fields:
//   - Code: Exit code (use constants ExitSuccess, ExitFailure, ExitConfigError)
//   - Message: Human-readable error message
//   - Err: Underlying error that caused this exit, may be nil
type ExitError struct {
	// Code is the exit code for the command.
	// Standard codes: 0=success, 2=failure, 3=config error.
	Code int

	// Message is a human-readable description of why the command failed.
	Message string

	// Err is the underlying error that caused this exit.
	// May be nil if no underlying error exists.
	Err error
}

// Error implements the error interface.
//
// Returns the Message field if set, otherwise returns the underlying error's
// message, or a default message with the exit code.
func (e *ExitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and underlying error.
//
// Parameters:
//   - code: Exit code (use ExitSuccess, ExitFailure, ExitConfigError)
//   - err: Underlying error, may be nil
//
// Returns:
//   - *ExitError: New exit error
func NewExitError(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// NewExitErrorf creates an ExitError with the given code and formatted message.
//
// Parameters:
//   - code: Exit code
//   - format: Printf-style format string
//   - args: Format arguments
//
// Returns:
//   - *ExitError: New exit error with formatted message
func NewExitErrorf(code int, format string, args ...interface{}) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// GetExitCode extracts the exit code from an error.
//
// If err is nil, returns ExitSuccess.
// If err is an ExitError, returns its code.
// Otherwise returns ExitFailure.
//
// Parameters:
//   - err: The error to extract code from
//
// Returns:
//   - int: Exit code
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ExitFailure
}

// IsExitError checks if err is an ExitError and returns it.
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - *ExitError: The ExitError if err is one, nil otherwise
//   - bool: true if err is an ExitError
func IsExitError(err error) (*ExitError, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr, true
	}
	return nil, false
}

// InternalError indicates an internal-consistency fault.
//
// The canonical case is a cached workspace run encountering a crate name
// that passed the eligibility filter but is absent from a version cache the
// construction contract should have guaranteed present. This always points
// at a bug in cargoup itself, never at user input.
//
// Fields:
//   - Op: The operation that detected the fault
//   - Reason: Description of the violated invariant
type InternalError struct {
	// Op is the operation that detected the fault (e.g. "cache lookup").
	Op string

	// Reason describes the violated invariant.
	Reason string
}

// Error implements the error interface.
//
// Returns:
//   - string: Formatted message identifying the fault as internal
func (e *InternalError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("internal error: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("internal error: %s", e.Reason)
}

// NewInternalErrorf creates an InternalError for the given operation.
//
// Parameters:
//   - op: The operation that detected the fault
//   - format: Printf-style format string for the reason
//   - args: Format arguments
//
// Returns:
//   - *InternalError: New internal error
func NewInternalErrorf(op, format string, args ...interface{}) *InternalError {
	return &InternalError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsInternalError checks if err is an InternalError.
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if err is an InternalError
func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}
