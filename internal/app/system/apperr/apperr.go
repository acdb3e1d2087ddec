// Package apperr defines the error kinds surfaced to callers of the room
// service and the procedure layer. Each kind maps to one HTTP status and
// one wire code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindUnauthenticated
	KindBadRequest
)

// Code returns the wire code for the kind.
func (k Kind) Code() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	case KindBadRequest:
		return "BAD_REQUEST"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// HTTPStatus returns the response status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string { return k.Code() }

// Error is a classified failure with a caller-facing message.
// Err, when set, is the underlying cause and is never shown to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.Err)
	}
	return e.Kind.Code() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) *Error        { return &Error{Kind: KindNotFound, Message: msg} }
func Unauthorized(msg string) *Error    { return &Error{Kind: KindUnauthorized, Message: msg} }
func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }
func BadRequest(msg string) *Error      { return &Error{Kind: KindBadRequest, Message: msg} }

// Internal wraps an unexpected error. The message shown to clients is generic.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: "An internal error occurred.", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Message returns the client-safe message for err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "An internal error occurred."
}
