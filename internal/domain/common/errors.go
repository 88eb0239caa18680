package common

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so the boundary layer can map it to a
// transport status without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidState
	KindForbidden
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// HintJoinWaitlist marks the capacity Conflict raised when an event is
// exactly full, steering the client toward the waitlist-join flow.
const HintJoinWaitlist = "join-waitlist"

// Error is the tagged error type returned by services and repositories for
// expected business failures.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFound reports a missing event, registration, user or waitlist entry.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidState reports an operation attempted against the wrong event or
// registration status.
func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports that the actor does not own the targeted resource.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports duplicate registrations, duplicate waitlist entries and
// insufficient capacity.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// ConflictWithHint is a Conflict carrying a machine-readable suggestion.
func ConflictWithHint(hint, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Hint: hint}
}

// Validation reports malformed input such as guest count or email violations.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an error chain, defaulting to KindInternal.
func KindOf(err error) Kind {
	if e := AsError(err); e != nil {
		return e.Kind
	}
	return KindInternal
}

// HintOf extracts the machine-readable hint from an error chain, if any.
func HintOf(err error) string {
	if e := AsError(err); e != nil {
		return e.Hint
	}
	return ""
}

// AsError unwraps err to a *Error, or nil when the chain holds none.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
