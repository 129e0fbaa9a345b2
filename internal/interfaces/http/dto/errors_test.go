package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"TOKEN_REVOKED", http.StatusUnauthorized},
		{"ACCOUNT_LOCKED", http.StatusLocked},
		{"STORE_CLOSED", http.StatusConflict},
		{"CHECKOUT_IN_PROGRESS", http.StatusConflict},
		{"INVALID_STATE", http.StatusUnprocessableEntity},
		{"BELOW_MIN_ORDER", http.StatusUnprocessableEntity},
		{"FILE_TOO_LARGE", http.StatusRequestEntityTooLarge},
		{"UNSUPPORTED_MEDIA_TYPE", http.StatusUnsupportedMediaType},
		{"GATEWAY_NOT_SUPPORTED", http.StatusNotImplemented},
		{"GATEWAY_UNAUTHORIZED", http.StatusBadGateway},
		{"GATEWAY_UNAVAILABLE", http.StatusServiceUnavailable},
		{"PRINTING_DISABLED", http.StatusServiceUnavailable},
		// shape fallbacks
		{"INVALID_CPF", http.StatusBadRequest},
		{"INVALID_ADDRESS", http.StatusBadRequest},
		{"CART_NOT_FOUND", http.StatusNotFound},
		{"COUPON_NOT_FOUND", http.StatusNotFound},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID("STORE_CLOSED", "A loja está fechada", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "STORE_CLOSED", resp.Error.Code)
	assert.Equal(t, "A loja está fechada", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "phone", Message: "This field is required"},
		{Field: "paymentMethod", Message: "Must be one of: pix card"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "phone", resp.Error.Details[0].Field)
}

func TestErrorResponseJSON(t *testing.T) {
	data, err := json.Marshal(NewErrorResponse(ErrCodeNotFound, "Pedido não encontrado"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_FOUND","message":"Pedido não encontrado"}}`, string(data))
}

func TestNewSuccessResponseWithMetaPagination(t *testing.T) {
	tests := []struct {
		total         int64
		pageSize      int
		expectedPages int
		expectedSize  int
	}{
		{100, 10, 10, 10},
		{101, 10, 11, 10},
		{0, 10, 0, 10},
		{9, 10, 1, 10},
		{100, 0, 5, 20},
		{100, -1, 5, 20},
	}

	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)
		assert.True(t, resp.Success)
		assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages)
		assert.Equal(t, tt.expectedSize, resp.Meta.PageSize)
	}
}
