package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError of the same kind.
// Errors compare by code so that a specific message ("SKU already exists")
// still matches the ErrAlreadyExists sentinel.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodePoolExhausted    = "POOL_EXHAUSTED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInvalidTxState   = "INVALID_TX_STATE"
)

// Common domain errors
var (
	ErrNotFound         = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists    = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidationFailed = NewDomainError(CodeValidationFailed, "Invalid input provided")
	ErrPoolExhausted    = NewDomainError(CodePoolExhausted, "No database connection available within the acquire timeout")
	ErrStoreUnavailable = NewDomainError(CodeStoreUnavailable, "Database is unavailable")
	ErrInvalidTxState   = NewDomainError(CodeInvalidTxState, "Transaction is no longer open")
)

// NotFound returns a NOT_FOUND error with a specific message
func NotFound(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// Conflict returns an ALREADY_EXISTS error with a specific message
func Conflict(message string) *DomainError {
	return NewDomainError(CodeAlreadyExists, message)
}

// Invalid returns a VALIDATION_FAILED error with a specific message
func Invalid(message string) *DomainError {
	return NewDomainError(CodeValidationFailed, message)
}
