package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Domain errors keep the code they were raised with.
const (
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeRateLimited    = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooBig  = "REQUEST_TOO_LARGE"
	ErrCodeStreamCapacity = "STREAM_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeRateLimited:    http.StatusTooManyRequests,
	ErrCodeRequestTooBig:  http.StatusRequestEntityTooLarge,
	ErrCodeStreamCapacity: http.StatusServiceUnavailable,

	// auth
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"TOKEN_EXPIRED":       http.StatusUnauthorized,
	"TOKEN_INVALID":       http.StatusUnauthorized,
	"TOKEN_REVOKED":       http.StatusUnauthorized,
	"ACCOUNT_INACTIVE":    http.StatusForbidden,
	"ACCOUNT_LOCKED":      http.StatusLocked,

	// request shape
	"SELECTION_BELOW_MIN": http.StatusBadRequest,
	"SELECTION_ABOVE_MAX": http.StatusBadRequest,
	"DUPLICATE_OPTION_ID": http.StatusBadRequest,
	"UNKNOWN_EVENT":       http.StatusBadRequest,
	"EMPTY_FILE":          http.StatusBadRequest,

	// resources
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"CART_STORE_MISMATCH":  http.StatusConflict,
	"STORE_CLOSED":         http.StatusConflict,
	"CHECKOUT_IN_PROGRESS": http.StatusConflict,

	// business rules
	"INVALID_STATE":       http.StatusUnprocessableEntity,
	"EMPTY_CART":          http.StatusUnprocessableEntity,
	"BELOW_MIN_ORDER":     http.StatusUnprocessableEntity,
	"PRODUCT_UNAVAILABLE": http.StatusUnprocessableEntity,
	"NO_GATEWAY_PAYMENT":  http.StatusUnprocessableEntity,

	// uploads
	"FILE_TOO_LARGE":         http.StatusRequestEntityTooLarge,
	"UNSUPPORTED_MEDIA_TYPE": http.StatusUnsupportedMediaType,

	// collaborators
	"GATEWAY_NOT_SUPPORTED":  http.StatusNotImplemented,
	"GATEWAY_ERROR":          http.StatusBadGateway,
	"GATEWAY_UNAUTHORIZED":   http.StatusBadGateway,
	"GATEWAY_UNAVAILABLE":    http.StatusServiceUnavailable,
	"GATEWAY_NOT_CONFIGURED": http.StatusServiceUnavailable,
	"PRINTING_DISABLED":      http.StatusServiceUnavailable,
	"STORAGE_DISABLED":       http.StatusServiceUnavailable,
	"ORDER_ID_UNAVAILABLE":   http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Codes outside the table fall back on their shape: INVALID_* is 400 and
// *_NOT_FOUND is 404. Anything else is 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
