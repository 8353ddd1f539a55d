package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"errors,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches a bare kind sentinel against any AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// StatusCode maps the error code onto an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrConflict:
		return http.StatusConflict
	case ErrInvalidCredentials, ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrUnauthenticated
	ErrForbidden
	ErrInternal
	ErrConflict
	ErrInvalidCredentials
	ErrTimeout
)

// Kind sentinels for errors.Is comparisons.
var (
	KindNotFound           = &AppError{Code: ErrNotFound}
	KindValidation         = &AppError{Code: ErrValidation}
	KindUnauthenticated    = &AppError{Code: ErrUnauthenticated}
	KindForbidden          = &AppError{Code: ErrForbidden}
	KindInternal           = &AppError{Code: ErrInternal}
	KindConflict           = &AppError{Code: ErrConflict}
	KindInvalidCredentials = &AppError{Code: ErrInvalidCredentials}
	KindTimeout            = &AppError{Code: ErrTimeout}
)

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(message string, details map[string]string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Details: details,
	}
}

func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

// InvalidCredentials deliberately carries no cause so unknown-user and
// wrong-secret failures render identically.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:    ErrInvalidCredentials,
		Message: "invalid credentials",
	}
}

func Unauthenticated(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthenticated,
		Message: "authentication required",
		Err:     err,
	}
}

func Forbidden() *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: "access denied",
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Timeout(err error) *AppError {
	return &AppError{
		Code:    ErrTimeout,
		Message: "request timed out",
		Err:     err,
	}
}

// As extracts an *AppError from err. An expired request deadline anywhere in
// the chain becomes Timeout; other unknown errors become Internal.
func As(err error) *AppError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return Timeout(err)
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
