package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents a custom application error
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
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

// Predefined error types
var (
	ErrAlreadyExists      = &AppError{Code: "ALREADY_EXISTS", Message: "Resource already exists"}
	ErrQuotaExceeded      = &AppError{Code: "QUOTA_EXCEEDED", Message: "Quota exceeded"}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "You do not own this resource"}
	ErrNotFound           = &AppError{Code: "NOT_FOUND", Message: "Resource not found"}
	ErrPersistenceFailure = &AppError{Code: "PERSISTENCE_FAILURE", Message: "Storage operation failed"}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid credentials"}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is locked"}
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Unauthorized access"}
	ErrValidationFailed   = &AppError{Code: "VALIDATION_FAILED", Message: "Validation failed"}
)

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an error with additional context
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails returns a copy of the error carrying extra detail text.
func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Details: details, Err: e.Err}
}

// Status maps an error to the HTTP status the request boundary should use.
// Every taxonomy error is recoverable; nothing here is fatal to the process.
func Status(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case ErrAlreadyExists.Code:
		return http.StatusConflict
	case ErrQuotaExceeded.Code:
		return http.StatusTooManyRequests
	case ErrForbidden.Code:
		return http.StatusForbidden
	case ErrAccountLocked.Code:
		return http.StatusLocked
	case ErrNotFound.Code:
		return http.StatusNotFound
	case ErrInvalidCredentials.Code, ErrUnauthorized.Code:
		return http.StatusUnauthorized
	case ErrValidationFailed.Code:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err carries the same taxonomy code as target.
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == target.Code
}
