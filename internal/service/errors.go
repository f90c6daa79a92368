package service

import "errors"

// Failure kinds, matched by the API layer with errors.Is to pick a
// status code. Service methods return an *Error wrapping one of these
// with a caller-facing message.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error is a domain failure with a message safe to return to clients
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func validationError(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func conflictError(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func unauthorizedError(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

func forbiddenError(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}
