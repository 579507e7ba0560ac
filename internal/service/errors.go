package service

import "errors"

// Error kinds returned by the services.  Callers test for them with
// errors.Is; the concrete *Error carries a message meant for end users.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrCapacityExceeded   = errors.New("capacity exceeded")
	ErrAttendanceRequired = errors.New("attendance required")
	ErrUnavailable        = errors.New("storage unavailable")
)

// Error is a classified failure.  Kind is one of the sentinels above, Msg
// explains the failure to the caller and Err keeps the underlying cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

// Is makes errors.Is match the error kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind error, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func notFound(msg string, cause error) error { return newError(ErrNotFound, msg, cause) }

func invalid(msg string) error { return newError(ErrValidation, msg, nil) }

var (
	errUnauthenticated = newError(ErrUnauthorized, "authentication required", nil)
	errAtCapacity      = newError(ErrCapacityExceeded, "event is at capacity", nil)
	errNotAttended     = newError(ErrAttendanceRequired, "attend the event before rating it", nil)
)
