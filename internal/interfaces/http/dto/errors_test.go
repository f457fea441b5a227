package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{"internal error", ErrCodeInternal, http.StatusInternalServerError},
		{"validation error", ErrCodeValidation, http.StatusBadRequest},
		{"unauthorized", ErrCodeUnauthorized, http.StatusUnauthorized},
		{"not found code", "NOT_FOUND", http.StatusNotFound},
		{"duplicate email", "EMAIL_TAKEN", http.StatusConflict},
		{"concurrency conflict", "CONCURRENCY_CONFLICT", http.StatusConflict},
		{"insufficient credit", "INSUFFICIENT_CREDIT", http.StatusPaymentRequired},
		{"inactive account", "ACCOUNT_INACTIVE", http.StatusUnprocessableEntity},
		{"self transfer", "TRANSFER_SAME_ACCOUNT", http.StatusUnprocessableEntity},
		{"missing rate card", "NO_ACTIVE_RATE", http.StatusUnprocessableEntity},
		{"revoked key", "KEY_REVOKED", http.StatusUnauthorized},
		{"bad usage payload", "EMPTY_USAGE", http.StatusBadRequest},
		{"unknown code falls back to 500", "SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID("NOT_FOUND", "Account not found", "req-123")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "Account not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "email", Message: "email is required"},
		{Field: "commission_rate", Message: "must be at most 100"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-456", details)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-456", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "email", resp.Error.Details[0].Field)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a", "b"}, 45, 2, 20)

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
