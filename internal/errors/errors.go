// Package errors provides coded, user-facing errors for stackdash.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing failures.
const (
	ErrMissingLauncher       = "MISSING_LAUNCHER"
	ErrTimeout               = "TIMEOUT"
	ErrSpawnFailure          = "SPAWN_FAILURE"
	ErrSupervisorUnavailable = "SUPERVISOR_UNAVAILABLE"
	ErrPollFailure           = "POLL_FAILURE"
	ErrConfig                = "CONFIG"
	ErrProject               = "PROJECT"
	ErrLock                  = "LOCK"
)

// Error is a failure with a code, a short message, an optional hint on how
// to fix it and the underlying cause.
//
//	✗ <what failed>
//
//	  <cause>
//
//	  <suggestion>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates an error without a cause.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps err under the given code without a suggestion.
func Wrap(err error, code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps err with a code, message and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

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

// Short returns the message and cause on a single line, for log entries.
func (e *Error) Short() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// Summary renders err as a single line. Coded errors use Short, anything
// else falls back to Error().
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Short()
	}
	return err.Error()
}
