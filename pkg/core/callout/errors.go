package callout

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for callers that need to map them to a transport status
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is the error type returned by Service operations
type Error struct {
	Kind ErrorKind
	// Code is a stable machine-readable identifier, e.g. "already_filled"
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind and code, so errors.Is(err, ErrAlreadyFilled)
// holds for any already-filled conflict regardless of its message
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code != "" && e.Code == t.Code
}

// ErrAlreadyFilled is returned to every accept attempt that loses the race for an event
var ErrAlreadyFilled = &Error{Kind: KindConflict, Code: "already_filled", Message: "callout event is already filled"}

// ErrDuplicateOpen is returned when a shift already has an open callout event
var ErrDuplicateOpen = &Error{Kind: KindConflict, Code: "duplicate_open_event", Message: "an open callout event already exists for this shift"}

func notFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Code: "not_found", Message: fmt.Sprintf(format, args...)}
}

func conflict(code, format string, args ...any) error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: "validation", Message: fmt.Sprintf(format, args...)}
}

func forbidden() error {
	return &Error{Kind: KindForbidden, Code: "forbidden", Message: "insufficient permissions"}
}

func internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Code: "internal", Message: msg, Err: err}
}

// KindOf returns the kind of err, KindInternal for errors not produced by this package
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a NotFound error
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// IsConflict reports whether err is a Conflict error
func IsConflict(err error) bool { return err != nil && KindOf(err) == KindConflict }

// IsValidation reports whether err is a Validation error
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }

// IsForbidden reports whether err is a Forbidden error
func IsForbidden(err error) bool { return err != nil && KindOf(err) == KindForbidden }
