// Package apperrors defines the closed set of error kinds shared by the
// identity, profile and notes services, plus their HTTP status mapping.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized is returned for tokens that verify but reference a
	// principal that no longer exists or is inactive.
	ErrUnauthorized = errors.New("not authorized")
	// ErrAccountDeactivated is returned when a deactivated principal tries
	// to log in with otherwise valid credentials.
	ErrAccountDeactivated = errors.New("this account has been deactivated")
	ErrNotFound           = errors.New("resource not found")
	// ErrInvalidOrExpiredToken covers consumed, expired and unknown reset tokens.
	ErrInvalidOrExpiredToken = errors.New("token is invalid or has expired")
	ErrIncorrectPassword     = errors.New("incorrect current password")
	// ErrHandleExhausted means the allocator hit its retry bound without
	// finding a free handle.
	ErrHandleExhausted = errors.New("could not allocate a unique handle")

	// Peer-call transport failures, classified by the internal API client.
	ErrPeerUnreachable = errors.New("peer service unreachable")
	ErrPeerTimeout     = errors.New("peer service timed out")
)

// DuplicateFieldError reports a unique-constraint violation on a named field.
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// Duplicate reports whether err is a DuplicateFieldError and returns it.
func Duplicate(err error) (*DuplicateFieldError, bool) {
	var d *DuplicateFieldError
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// RejectedError is a business-level rejection from a peer service
// (a 4xx/5xx with a decoded message), as opposed to a transport failure.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("peer rejected request (%d): %s", e.StatusCode, e.Message)
}

// HTTPStatus maps an error to the response status used across all services.
func HTTPStatus(err error) int {
	var d *DuplicateFieldError
	if errors.As(err, &d) {
		return http.StatusConflict
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrIncorrectPassword):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountDeactivated):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
