// Package clierr defines structured error types for CLI commands.
// Errors carry a machine-readable code, a human-readable message,
// optional details and the underlying cause.
package clierr

import (
	"errors"
	"fmt"
	"strconv"
)

// Error code constants. Uppercase, underscore-separated, stable across minor versions.
const (
	TaskFetchFailed     = "TASK_FETCH_FAILED"
	UserFetchFailed     = "USER_FETCH_FAILED"
	TagFetchFailed      = "TAG_FETCH_FAILED"
	TaskCreateFailed    = "TASK_CREATE_FAILED"
	TaskUpdateFailed    = "TASK_UPDATE_FAILED"
	StatusUpdateFailed  = "STATUS_UPDATE_FAILED"
	TaskDeleteFailed    = "TASK_DELETE_FAILED"
	ProfileUpdateFailed = "PROFILE_UPDATE_FAILED"
	UserNotFound        = "USER_NOT_FOUND"
	TaskNotFound        = "TASK_NOT_FOUND"
	AmbiguousTaskID     = "AMBIGUOUS_TASK_ID"
	InvalidInput        = "INVALID_INPUT"
	InvalidStatus       = "INVALID_STATUS"
	InvalidPriority     = "INVALID_PRIORITY"
	InvalidDate         = "INVALID_DATE"
	InvalidTaskID       = "INVALID_TASK_ID"
	InvalidGroupBy      = "INVALID_GROUP_BY"
	NoChanges           = "NO_CHANGES"
	BoundaryError       = "BOUNDARY_ERROR"
	NotSignedIn         = "NOT_SIGNED_IN"
	ConfirmationReq     = "CONFIRMATION_REQUIRED"
	ConfigNotFound      = "CONFIG_NOT_FOUND"
	InternalError       = "INTERNAL_ERROR"
)

// Error represents a structured CLI error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error whose message is "<message>: <cause>".
func Wrap(code string, err error, message string) *Error {
	return &Error{Code: code, Message: message + ": " + err.Error(), Err: err}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// ExitCode returns 2 for InternalError, 1 for all others.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2 //nolint:mnd // exit code 2 for internal errors
	}
	return 1
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// SilentError signals an exit code without additional output.
// Used by batch operations where results are already written to stdout.
type SilentError struct {
	Code int
}

// Error implements the error interface.
func (e *SilentError) Error() string { return "exit " + strconv.Itoa(e.Code) }
