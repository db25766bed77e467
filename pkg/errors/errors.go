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

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the attendance domain.
var (
	ErrAuthentication   = New("UNAUTHENTICATED", http.StatusUnauthorized, "missing or invalid credentials")
	ErrAuthorization    = New("FORBIDDEN", http.StatusForbidden, "operation not permitted")
	ErrInvalidDate      = New("INVALID_DATE", http.StatusBadRequest, "invalid attendance date")
	ErrInvalidStatus    = New("INVALID_STATUS", http.StatusBadRequest, "invalid attendance status")
	ErrUnenrolled       = New("UNENROLLED_STUDENT", http.StatusUnprocessableEntity, "student not enrolled in subject")
	ErrNotFound         = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrStoreUnavailable = New("STORE_UNAVAILABLE", http.StatusServiceUnavailable, "attendance store unavailable")
	ErrValidation       = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal         = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrCacheMiss signals a cache lookup found no entry. It never crosses the
	// HTTP boundary.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
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

// Retryable reports whether the caller may retry the failed operation.
// Only store outages qualify; validation and policy failures never do.
func Retryable(err error) bool {
	e := FromError(err)
	return e != nil && e.Code == ErrStoreUnavailable.Code
}
