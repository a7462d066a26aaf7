package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies the expected, user-facing failure modes of the booking
// engine. Everything else is KindInternal and gets logged with full context
// before being surfaced as a generic failure.
type Kind string

const (
	KindNotFound  Kind = "NOT_FOUND"
	KindForbidden Kind = "FORBIDDEN"
	KindInvalid   Kind = "INVALID_REQUEST"
	KindConflict  Kind = "CONFLICT"
	KindInternal  Kind = "INTERNAL"
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(err error) error  { return &Error{Kind: KindNotFound, Err: err} }
func Forbidden(err error) error { return &Error{Kind: KindForbidden, Err: err} }
func Invalid(err error) error   { return &Error{Kind: KindInvalid, Err: err} }
func Conflict(err error) error  { return &Error{Kind: KindConflict, Err: err} }
func Internal(err error) error  { return &Error{Kind: KindInternal, Err: err} }

func Invalidf(format string, args ...any) error {
	return Invalid(fmt.Errorf(format, args...))
}

// KindOf extracts the classification from an error chain, defaulting to
// KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
