package output

import (
	"errors"
	"fmt"
)

// maxBodyExcerpt bounds how much of a response body an error carries.
const maxBodyExcerpt = 200

// Error is a structured error with code, message, and optional hint.
type Error struct {
	Code       string
	Message    string
	Hint       string
	HTTPStatus int
	Cause      error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	return ExitCodeFor(e.Code)
}

// Error constructors for common cases.

func ErrUsage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

func ErrUsageHint(msg, hint string) *Error {
	return &Error{Code: CodeUsage, Message: msg, Hint: hint}
}

// ErrNetwork covers connection refused, DNS failures, and timeouts.
func ErrNetwork(cause error) *Error {
	return &Error{
		Code:    CodeNetwork,
		Message: "Network error",
		Hint:    cause.Error(),
		Cause:   cause,
	}
}

// ErrStatus reports a response whose status code the check did not expect.
func ErrStatus(status int, body string) *Error {
	return &Error{
		Code:       CodeStatus,
		Message:    fmt.Sprintf("Unexpected status %d", status),
		Hint:       Excerpt(body),
		HTTPStatus: status,
	}
}

// ErrMalformed reports a response body that did not decode into the expected shape.
func ErrMalformed(what string, cause error) *Error {
	return &Error{
		Code:    CodeMalformed,
		Message: fmt.Sprintf("Malformed %s", what),
		Hint:    cause.Error(),
		Cause:   cause,
	}
}

// ErrFile reports a local file that could not be read.
func ErrFile(path string, cause error) *Error {
	return &Error{
		Code:    CodeFile,
		Message: fmt.Sprintf("Cannot read %s", path),
		Hint:    cause.Error(),
		Cause:   cause,
	}
}

// ErrCritical is returned by the run command when a critical check failed.
func ErrCritical(failed []string) *Error {
	return &Error{
		Code:    CodeCritical,
		Message: "Critical backend infrastructure issues found",
		Hint:    fmt.Sprintf("failed: %v", failed),
	}
}

// AsError attempts to convert an error to an *Error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    CodeInternal,
		Message: err.Error(),
		Cause:   err,
	}
}

// CodeOf returns the error code of err, or "" for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return AsError(err).Code
}

// Excerpt trims a response body for display.
func Excerpt(body string) string {
	if len(body) <= maxBodyExcerpt {
		return body
	}
	return body[:maxBodyExcerpt] + "…"
}
