package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so callers can use errors.Is against the
// predefined values regardless of message overrides.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e != nil && e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the access-control taxonomy.
var (
	// ErrInvalidCredentials is deliberately generic: it never reveals which
	// factor failed or whether the identity exists at all.
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid credentials")
	// ErrInvalidOrExpiredToken covers absent, consumed, and expired
	// registration tokens; the three causes are indistinguishable to callers.
	ErrInvalidOrExpiredToken = New("INVALID_OR_EXPIRED_TOKEN", http.StatusBadRequest, "invalid or expired registration link")
	ErrDuplicateIdentity     = New("DUPLICATE_IDENTITY", http.StatusConflict, "identity already exists")
	ErrUnauthorized          = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden             = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound              = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation            = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrTooManyRequests       = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "too many requests")
	ErrInternal              = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error. Unexpected faults collapse
// into ErrInternal so persistence internals never leak to callers.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
