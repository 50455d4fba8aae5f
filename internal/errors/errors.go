package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig   = "CONFIG"
	ErrUsage    = "USAGE"
	ErrNotFound = "NOT_FOUND"
	ErrNetwork  = "NETWORK"
	ErrTimeout  = "TIMEOUT"
	ErrDecode   = "DECODE"
	ErrServer   = "SERVER"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrNetwork code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrNetwork,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Short returns the message with its cause on a single line, for status bars
// and log fields where the multi-line form does not fit.
func (e *Error) Short() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	return Kind(err) == code
}

// Kind returns the code of the outermost structured Error in the chain,
// or "" when err is nil or carries no code.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var fwErr *Error
	if errors.As(err, &fwErr) {
		return fwErr.Code
	}
	return ""
}

// Transient reports whether err is expected to clear up on its own,
// so the next poll cycle is worth attempting.
func Transient(err error) bool {
	switch Kind(err) {
	case ErrNetwork, ErrTimeout, ErrServer:
		return true
	default:
		return false
	}
}

// Summary returns a one-line description of err suitable for a status line.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var fwErr *Error
	if errors.As(err, &fwErr) {
		return fwErr.Short()
	}
	return strings.TrimSpace(err.Error())
}
