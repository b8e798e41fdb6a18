// Package apperrors defines the sentinel errors shared by every service.
// Callers wrap them with fmt.Errorf("...: %w", err) and match with errors.Is.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	// Access errors.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrQuotaExceeded   = errors.New("post quota exceeded")

	// Collaborator failures (database, cache, ledger, queue). Always retryable.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// Input errors.
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("already exists")
)

// HTTPStatus maps an error chain to the status code a handler should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the client may retry the same request unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// Message is the text safe to return to a client. Details of server-side
// failures stay in the logs.
func Message(err error) string {
	switch HTTPStatus(err) {
	case http.StatusServiceUnavailable:
		return "Service temporarily unavailable, please retry"
	case http.StatusInternalServerError:
		return "Internal server error"
	default:
		return err.Error()
	}
}
