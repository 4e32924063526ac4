package http

import (
	"fmt"
	"net/http"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// WithError wraps an underlying error. The wrapped error is kept for
// logging only and is never serialized to the caller.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// BadRequestError creates a 400 error.
func BadRequestError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusBadRequest)
}

// UnauthorizedError creates a 401 error.
func UnauthorizedError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusUnauthorized)
}

// InternalError creates a 500 error.
func InternalError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusInternalServerError)
}

// BadGatewayError creates a 502 error for upstream dependency failures.
func BadGatewayError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusBadGateway)
}
