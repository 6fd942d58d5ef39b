package apierrors

import (
	"errors"
	"fmt"
)

// APIError is a domain failure that maps onto an HTTP status.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"error"`
	Field   string    `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Status returns the HTTP status code for the error.
func (e *APIError) Status() int {
	return e.Code.StatusCode()
}

// As extracts an *APIError from err, if any.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Code == code
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return &APIError{Code: ErrNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// Unauthorized creates an UNAUTHORIZED error
func Unauthorized(message string) *APIError {
	return &APIError{Code: ErrUnauthorized, Message: message}
}

// Forbidden creates a FORBIDDEN error
func Forbidden(message string) *APIError {
	return &APIError{Code: ErrForbidden, Message: message}
}

// Conflict creates a CONFLICT error
func Conflict(message string) *APIError {
	return &APIError{Code: ErrConflict, Message: message}
}

// ValidationError creates a VALIDATION_ERROR
func ValidationError(field, message string) *APIError {
	return &APIError{Code: ErrValidation, Message: message, Field: field}
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return &APIError{Code: ErrBadRequest, Message: message}
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return &APIError{Code: ErrInternalError, Message: message}
}

// ServiceUnavailable creates a SERVICE_UNAVAILABLE error
func ServiceUnavailable(service string) *APIError {
	return &APIError{Code: ErrServiceUnavail, Message: fmt.Sprintf("%s is temporarily unavailable", service)}
}
