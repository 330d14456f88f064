// Package apperr defines the error-kind taxonomy shared by every service in
// the auth core. Handlers map a Kind to an HTTP status; services never know
// about HTTP.
package apperr

import "errors"

// Kind is a surface-level classification of a failure. It is the only thing
// a handler inspects when deciding what status code to return.
type Kind int

const (
	// KindInternal is the zero value so a bare Error{} fails safe as 500.
	KindInternal Kind = iota
	KindInvalid
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "Invalid"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindRateLimited:
		return "RateLimited"
	default:
		return "Internal"
	}
}

// Error is the concrete error type carried through the service layer.
// Message is the user-facing text; Err, when present, is the wrapped cause
// kept for logging and never shown to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Invalid(message string) *Error      { return New(KindInvalid, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }
func RateLimited(message string) *Error  { return New(KindRateLimited, message) }
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf unwraps err looking for an *Error and returns its Kind, defaulting
// to KindInternal for anything else (including nil, which callers should
// not pass).
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Standard generic messages used to avoid information leakage (spec §7).
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgGeneric500         = "Internal server error"
)
