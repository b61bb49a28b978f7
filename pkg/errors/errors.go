package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeNoText       ErrorType = "NO_TEXT"

	// Application errors
	ErrorTypeInternal  ErrorType = "INTERNAL"
	ErrorTypeRateLimit ErrorType = "RATE_LIMIT"

	// AI gateway errors
	ErrorTypeEmptyInput  ErrorType = "EMPTY_INPUT"
	ErrorTypeEmptyResult ErrorType = "EMPTY_RESULT"
	ErrorTypeProvider    ErrorType = "PROVIDER"
)

// FieldError describes one offending request field.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType    `json:"type"`
	Message    string       `json:"message"`
	Operation  string       `json:"operation,omitempty"`
	Details    []FieldError `json:"details,omitempty"`
	Cause      error        `json:"-"`
	HTTPStatus int          `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches per-field validation details
func (e *AppError) WithDetails(details ...FieldError) *AppError {
	e.Details = append(e.Details, details...)
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Unauthorized"
	}
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(limit int, window string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimit,
		Message:    fmt.Sprintf("Rate limit exceeded: %d requests per %s", limit, window),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// NewNoTextError is returned when an AI operation resolves to no text at all.
func NewNoTextError(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeNoText,
		Message:    fmt.Sprintf("No text to %s", operation),
		Operation:  operation,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewEmptyInputError is returned when sanitization leaves nothing to send.
func NewEmptyInputError(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeEmptyInput,
		Message:    "Text is empty after sanitization",
		Operation:  operation,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewEmptyResultError is returned when the provider answers with blank text.
func NewEmptyResultError(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeEmptyResult,
		Message:    fmt.Sprintf("AI provider returned an empty result for %s", operation),
		Operation:  operation,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewProviderError wraps a failed provider call.
func NewProviderError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeProvider,
		Message:    fmt.Sprintf("Failed to %s text", operation),
		Operation:  operation,
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Helper functions

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsUnauthorized checks if an error is an unauthorized error
func IsUnauthorized(err error) bool {
	return IsType(err, ErrorTypeUnauthorized)
}

// IsEmptyInput checks if an error is an empty input error
func IsEmptyInput(err error) bool {
	return IsType(err, ErrorTypeEmptyInput)
}

// IsEmptyResult checks if an error is an empty result error
func IsEmptyResult(err error) bool {
	return IsType(err, ErrorTypeEmptyResult)
}

// IsProvider checks if an error is a provider error
func IsProvider(err error) bool {
	return IsType(err, ErrorTypeProvider)
}

// IsNoText checks if an error is a no-text error
func IsNoText(err error) bool {
	return IsType(err, ErrorTypeNoText)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if GetAppError(err) != nil {
		return fmt.Errorf("%s: %w", message, err)
	}
	return NewInternalError(message).WithCause(err)
}
