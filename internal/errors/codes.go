package errors

import "net/http"

// ErrorCode represents the type of error
type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrForbidden      ErrorCode = "FORBIDDEN"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrValidation     ErrorCode = "VALIDATION_ERROR"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"

	// Moderation and workflow rule violations
	ErrAlreadyReported   ErrorCode = "ALREADY_REPORTED"
	ErrAlreadyRegistered ErrorCode = "ALREADY_REGISTERED"
	ErrNotRegistered     ErrorCode = "NOT_REGISTERED"
	ErrEventFull         ErrorCode = "EVENT_FULL"
	ErrEventNotActive    ErrorCode = "EVENT_NOT_ACTIVE"
	ErrNotADoctor        ErrorCode = "NOT_A_DOCTOR"
	ErrAlreadyApproved   ErrorCode = "ALREADY_APPROVED"
	ErrAlreadyRejected   ErrorCode = "ALREADY_REJECTED"
	ErrApprovalRequired  ErrorCode = "APPROVAL_REQUIRED"
)

// StatusCodeMap maps ErrorCode to HTTP status code
var StatusCodeMap = map[ErrorCode]int{
	ErrNotFound:       http.StatusNotFound,
	ErrUnauthorized:   http.StatusUnauthorized,
	ErrForbidden:      http.StatusForbidden,
	ErrConflict:       http.StatusConflict,
	ErrValidation:     http.StatusBadRequest,
	ErrBadRequest:     http.StatusBadRequest,
	ErrInternalError:  http.StatusInternalServerError,
	ErrAlreadyExists:  http.StatusConflict,
	ErrRateLimited:    http.StatusTooManyRequests,
	ErrServiceUnavail: http.StatusServiceUnavailable,

	ErrAlreadyReported:   http.StatusConflict,
	ErrAlreadyRegistered: http.StatusConflict,
	ErrNotRegistered:     http.StatusBadRequest,
	ErrEventFull:         http.StatusConflict,
	ErrEventNotActive:    http.StatusBadRequest,
	ErrNotADoctor:        http.StatusBadRequest,
	ErrAlreadyApproved:   http.StatusConflict,
	ErrAlreadyRejected:   http.StatusConflict,
	ErrApprovalRequired:  http.StatusForbidden,
}

// StatusCode returns the HTTP status code for this error code
func (e ErrorCode) StatusCode() int {
	if code, ok := StatusCodeMap[e]; ok {
		return code
	}
	return http.StatusInternalServerError
}
