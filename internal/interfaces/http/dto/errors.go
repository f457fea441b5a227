package dto

import "net/http"

// Transport-level error codes. Domain errors keep their own codes and
// are mapped to HTTP statuses below.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeValidation is used when request binding validation fails
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeUnauthorized is used when authentication is missing or invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeNotFound is used when a route or resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeRateLimited is used when the rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodePayloadTooLarge is used when the request body exceeds the limit
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Domain error codes appear here verbatim so handlers can pass them
// straight through.
var ErrorCodeHTTPStatus = map[string]int{
	// Transport errors
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeConflict:        http.StatusConflict,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	// Malformed input -> 400 Bad Request
	"INVALID_INPUT":            http.StatusBadRequest,
	"INVALID_AMOUNT":           http.StatusBadRequest,
	"INVALID_NAME":             http.StatusBadRequest,
	"INVALID_EMAIL":            http.StatusBadRequest,
	"INVALID_ACCOUNT":          http.StatusBadRequest,
	"INVALID_ACTOR":            http.StatusBadRequest,
	"INVALID_USER":             http.StatusBadRequest,
	"INVALID_USAGE":            http.StatusBadRequest,
	"EMPTY_USAGE":              http.StatusBadRequest,
	"INVALID_RATE":             http.StatusBadRequest,
	"INVALID_COMMISSION_RATE":  http.StatusBadRequest,
	"INVALID_COST":             http.StatusBadRequest,
	"INVALID_TRANSACTION_TYPE": http.StatusBadRequest,
	"INVALID_POSTING":          http.StatusBadRequest,
	"EMPTY_POSTING_BATCH":      http.StatusBadRequest,

	// Auth errors -> 401
	"UNAUTHORIZED": http.StatusUnauthorized,
	"KEY_REVOKED":  http.StatusUnauthorized,
	"KEY_EXPIRED":  http.StatusUnauthorized,

	// Billing floor -> 402 Payment Required
	"INSUFFICIENT_CREDIT": http.StatusPaymentRequired,

	// Resource errors
	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"EMAIL_TAKEN":          http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Business rule violations -> 422 Unprocessable Entity
	"INVALID_STATE":         http.StatusUnprocessableEntity,
	"ACCOUNT_INACTIVE":      http.StatusUnprocessableEntity,
	"TRANSFER_SAME_ACCOUNT": http.StatusUnprocessableEntity,
	"PARENT_REQUIRED":       http.StatusUnprocessableEntity,
	"PARENT_NOT_OPERATOR":   http.StatusUnprocessableEntity,
	"KEY_LIMIT_REACHED":     http.StatusUnprocessableEntity,
	"NO_ACTIVE_RATE":        http.StatusUnprocessableEntity,
	"NO_RATE_FOR_TIME":      http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
