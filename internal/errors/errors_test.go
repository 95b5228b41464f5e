package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *APIError
		status int
	}{
		{NotFound("post"), http.StatusNotFound},
		{Forbidden("nope"), http.StatusForbidden},
		{ValidationError("title", "too long"), http.StatusBadRequest},
		{AlreadyReported(), http.StatusConflict},
		{AlreadyRegistered(), http.StatusConflict},
		{EventFull(), http.StatusConflict},
		{EventNotActive(), http.StatusBadRequest},
		{AlreadyApproved(), http.StatusConflict},
		{ApprovalRequired("pending"), http.StatusForbidden},
		{Unauthorized("expired"), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
		})
	}
}

func TestUnknownCodeIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("MYSTERY").StatusCode())
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("registering: %w", EventFull())

	apiErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrEventFull, apiErr.Code)
	assert.True(t, HasCode(wrapped, ErrEventFull))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrEventFull))
}

func TestApprovalRequiredCarriesStatus(t *testing.T) {
	err := ApprovalRequired("rejected")
	assert.Contains(t, err.Details, "rejected")
	assert.Equal(t, "APPROVAL_REQUIRED: doctor approval is required for this action", err.Error())
}

func TestValidationErrorNamesField(t *testing.T) {
	err := ValidationError("email", "is required")
	assert.Equal(t, "email", err.Field)
	assert.Equal(t, "VALIDATION_ERROR: is required [email]", err.Error())
	assert.Equal(t, "SERVICE_UNAVAILABLE: image storage is temporarily unavailable", ServiceUnavailable("image storage").Error())
}
