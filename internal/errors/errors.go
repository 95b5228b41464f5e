package errors

import (
	stderrors "errors"
	"fmt"
)

// APIError is the error half of the JSON envelope. Status is derived from
// Code and never serialized.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
}

func (e *APIError) Error() string {
	if e.Field == "" {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s [%s]", e.Code, e.Message, e.Field)
}

func New(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message, Status: code.StatusCode()}
}

func Newf(code ErrorCode, format string, args ...interface{}) *APIError {
	return New(code, fmt.Sprintf(format, args...))
}

func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// As finds the first *APIError in err's chain
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := stderrors.As(err, &apiErr)
	return apiErr, ok
}

// HasCode reports whether err's chain carries an APIError with code
func HasCode(err error, code ErrorCode) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Code == code
}

func NotFound(resource string) *APIError {
	return Newf(ErrNotFound, "%s not found", resource)
}

func Unauthorized(message string) *APIError { return New(ErrUnauthorized, message) }
func Forbidden(message string) *APIError    { return New(ErrForbidden, message) }
func Conflict(message string) *APIError     { return New(ErrConflict, message) }
func BadRequest(message string) *APIError   { return New(ErrBadRequest, message) }

// ValidationError names the offending request field
func ValidationError(field, message string) *APIError {
	e := New(ErrValidation, message)
	e.Field = field
	return e
}

func AlreadyExists(resource string) *APIError {
	return Newf(ErrAlreadyExists, "%s already exists", resource)
}

func RateLimited(message string) *APIError {
	if message == "" {
		message = "rate limit exceeded"
	}
	return New(ErrRateLimited, message)
}

// ServiceUnavailable reports a dependency that is not configured or not reachable
func ServiceUnavailable(service string) *APIError {
	return Newf(ErrServiceUnavail, "%s is temporarily unavailable", service)
}
