// Package apperr defines the typed failures raised by the kanban engine.
// Failures are raised at the source with a Kind; only the transport boundary
// maps a Kind to a status code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

// NotFoundMessage is the uniform message for every missing or hidden resource.
const NotFoundMessage = "Not found"

// Error is a typed engine failure.
type Error struct {
	Kind    Kind
	Message string
	// Details is extra client-visible context, e.g. currentStatus on conflicts.
	Details map[string]any
	// Err is the wrapped cause. Never shown to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// With returns a copy of e carrying an extra detail.
func (e *Error) With(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{Kind: e.Kind, Message: e.Message, Details: details, Err: e.Err}
}

// Validation reports malformed input.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated reports a missing or invalid credential.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden reports an authenticated caller lacking the required role.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound reports a missing resource. The message is always uniform so that
// a resource in another workspace is indistinguishable from an absent one.
func NotFound() *Error {
	return &Error{Kind: KindNotFound, Message: NotFoundMessage}
}

// Conflict reports a blocked state guard.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the Kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the typed error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
