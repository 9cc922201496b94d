package services

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to status codes with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidState     = errors.New("invalid state")
)

// Error carries a client-facing message together with its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
