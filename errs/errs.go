// Package errs defines the error taxonomy shared by services and HTTP
// handlers. Every service error wraps one of the sentinel kinds so
// callers can classify with errors.Is and handlers can map kinds to
// status codes in one place.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel kinds.
var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("unauthorized")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

// Error carries a kind sentinel, a caller-facing message and an optional
// wrapped cause. The cause is for logs only and never reaches a response.
type Error struct {
	kind  error
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.kind }

// Message is the sanitized text safe to return to the caller.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped underlying error, if any.
func (e *Error) Cause() error { return e.cause }

func newf(kind error, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Validation marks malformed or missing input (HTTP 400).
func Validation(format string, args ...interface{}) *Error {
	return newf(ErrValidation, format, args...)
}

// Auth marks a missing or invalid identity (HTTP 401).
func Auth(format string, args ...interface{}) *Error {
	return newf(ErrAuth, format, args...)
}

// NotFound marks an absent character, block or record (HTTP 404).
func NotFound(format string, args ...interface{}) *Error {
	return newf(ErrNotFound, format, args...)
}

// Conflict marks a stale optimistic token or an exhausted point pool
// (HTTP 409).
func Conflict(format string, args ...interface{}) *Error {
	return newf(ErrConflict, format, args...)
}

// Internal wraps an unexpected error (HTTP 500). The cause is kept for
// logging; the message shown to callers stays generic.
func Internal(cause error, format string, args ...interface{}) *Error {
	e := newf(ErrInternal, format, args...)
	e.cause = cause
	return e
}

// IsConflict reports whether err is a conflict-kind error.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err is a not-found-kind error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a validation-kind error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
