package dto

import (
	"net/http"

	"github.com/erp/pos-backend/internal/domain/shared"
)

// Domain error codes, as carried by shared.DomainError
const (
	ErrCodeNotFound         = shared.CodeNotFound
	ErrCodeAlreadyExists    = shared.CodeAlreadyExists
	ErrCodeValidation       = shared.CodeValidationFailed
	ErrCodePoolExhausted    = shared.CodePoolExhausted
	ErrCodeStoreUnavailable = shared.CodeStoreUnavailable
	ErrCodeInvalidTxState   = shared.CodeInvalidTxState
)

// Boundary-only error codes
const (
	// ErrCodeBadRequest is used for malformed requests (bad JSON, bad path id)
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeValidation:    http.StatusBadRequest,

	// The store is saturated or down; the client may retry
	ErrCodePoolExhausted:    http.StatusServiceUnavailable,
	ErrCodeStoreUnavailable: http.StatusServiceUnavailable,

	// A terminal transaction was reused, which is a server bug
	ErrCodeInvalidTxState: http.StatusInternalServerError,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
