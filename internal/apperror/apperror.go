// Package apperror defines the failure value every request path returns.
// Each error carries a Kind that decides the HTTP status and a message that
// is safe to show to the client; the wrapped cause is only ever logged.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindStore
	KindRouteNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store"
	case KindRouteNotFound:
		return "route_not_found"
	default:
		return "internal"
	}
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuthentication, KindAuthorization:
		return http.StatusUnauthorized
	case KindNotFound, KindRouteNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error.
func (e *Error) Status() int { return e.Kind.Status() }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error { return newError(KindValidation, msg, nil) }

func Authentication(msg string, err error) *Error { return newError(KindAuthentication, msg, err) }

func Authorization(msg string) *Error { return newError(KindAuthorization, msg, nil) }

func NotFound(msg string) *Error { return newError(KindNotFound, msg, nil) }

func Store(msg string, err error) *Error { return newError(KindStore, msg, err) }

func Internal(msg string, err error) *Error { return newError(KindInternal, msg, err) }

func RouteNotFound() *Error { return newError(KindRouteNotFound, "Route not found", nil) }

// From returns err as an *Error. Unclassified errors become Internal with a
// generic message so their text never reaches the client.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Error occurred", err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
