package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error returned by a service wraps exactly one of them.
var (
	ErrUnauthenticated = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrStorage         = errors.New("storage failure")
	ErrNotSupported    = errors.New("operation not supported")
)

// ValidationError names the offending field or rule.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validation returns a *ValidationError that matches ErrValidation.
func Validation(msg string) error {
	return &ValidationError{Msg: msg}
}

// kindError carries a human message for a sentinel kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// NotFound builds an ErrNotFound with a message like "task 12 not found".
func NotFound(resource string, key any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf("%s %v not found", resource, key)}
}

// Conflict builds an ErrConflict carrying msg.
func Conflict(msg string) error {
	return &kindError{kind: ErrConflict, msg: msg}
}

// Storage wraps an underlying I/O error as ErrStorage.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorage, err))
}

// StatusCode maps an error to its HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotSupported):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text that is safe to put in a response body. Storage
// failures never leak driver details.
func Message(err error) string {
	var ve *ValidationError
	var ke *kindError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return "Unauthorized"
	case errors.As(err, &ve):
		return ve.Msg
	case errors.As(err, &ke):
		return ke.msg
	case errors.Is(err, ErrNotSupported):
		return "Operation not supported"
	default:
		return "Internal server error"
	}
}
