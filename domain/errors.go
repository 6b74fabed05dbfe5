package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	// ErrSessionNotFound is the repository's explicit absence signal.
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")
	// ErrSessionExpired is terminal for the request: the caller must
	// re-authenticate. An absent session surfaces the same way.
	ErrSessionExpired = NewError(ErrCodeUnauthorized, "session expired")
	// ErrTokenRefreshFailed means the identity provider definitively
	// rejected the refresh (or omitted the rotated refresh token). The
	// stored session is left untouched.
	ErrTokenRefreshFailed = NewError(ErrCodeUnauthorized, "token refresh failed")
	// ErrProviderUnavailable is a transport-level identity provider
	// failure, plausibly transient, never to be conflated with a
	// rejection.
	ErrProviderUnavailable = NewError(ErrCodeUnavailable, "identity provider unavailable")
	// ErrProviderTimeout is the bounded-call variant of unavailability.
	ErrProviderTimeout = NewError(ErrCodeUnavailable, "identity provider timeout")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
