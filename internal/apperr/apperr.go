// Package apperr defines the error taxonomy surfaced at the API boundary.
// Every failure a handler reports maps to exactly one Kind; anything else
// is treated as an internal error.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindConflict
	KindInvalidCredentials
	KindAccountDisabled
	KindUnauthorized
	KindNotFound
)

type Error struct {
	Kind    Kind
	Field   string // set for Conflict: which unique field collided
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Conflict reports a uniqueness violation on the given field.
func Conflict(field string) *Error {
	return &Error{Kind: KindConflict, Field: field, Message: field + " already exists"}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// KindOf extracts the Kind from an error chain, KindUnknown when none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the boundary-safe message for err, or the fallback when
// err carries no Error (internals are never echoed to clients).
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}
