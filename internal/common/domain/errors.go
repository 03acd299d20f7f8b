package domain

import "fmt"

// ErrorCode classifies an AppError for transport-level mapping.
type ErrorCode string

const (
	CodeValidation   ErrorCode = "VALIDATION"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeInternal     ErrorCode = "INTERNAL"
)

// AppError is a domain-level error carrying a machine-readable code and a
// human-readable message safe to return to API clients.
type AppError struct {
	Code    ErrorCode
	Message string
	cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *AppError) Unwrap() error { return e.cause }

// NewValidationError creates an AppError for invalid input.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewUnauthorizedError creates an AppError for missing or invalid credentials.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

// NewForbiddenError creates an AppError for an authenticated caller lacking permission.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// NewNotFoundError creates an AppError for a missing entity.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewConflictError creates an AppError for a state conflict.
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewInternalError wraps an unexpected failure. The cause is kept for
// logging but never rendered to API clients.
func NewInternalError(cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: "internal server error", cause: cause}
}

// NewInvalidStateError creates a conflict AppError for a disallowed state transition.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: fmt.Sprintf("invalid status transition: %s -> %s", from, to),
	}
}
