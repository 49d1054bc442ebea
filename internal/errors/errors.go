// Package errors provides structured error codes for the combat engine.
package errors

import (
	stderrors "errors"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable reason, safe to relay to the acting player
	Metadata map[string]string // Additional context
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Kind returns the taxonomy bucket of the error code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the taxonomy bucket for any error. Errors that carry no code
// are treated as inconsistencies: the caller cannot recover from them.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if e, ok := As(err); ok {
		return e.Kind()
	}
	return KindInconsistency
}
