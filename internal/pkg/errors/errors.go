package errors

import (
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Common error codes
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeDatabase     = "DATABASE_ERROR"
	ErrCodeRateLimited  = "RATE_LIMITED"

	// Shop purchase rejections (user-correctable)
	ErrCodeInvalidResource   = "INVALID_RESOURCE"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeResourceDisabled  = "RESOURCE_DISABLED"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	ErrCodeLimitExceeded     = "LIMIT_EXCEEDED"

	// Reconciliation (transient / retryable by the caller)
	ErrCodeNotProvisioned      = "NOT_PROVISIONED"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"

	// Ledger commit failures
	ErrCodeTransactionFailed = "TRANSACTION_FAILED"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Is reports whether err carries the given application error code.
func Is(err error, code string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

// Common error constructors

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates a forbidden error
func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

// DatabaseError creates a database error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

// Purchase rejection constructors

// InvalidResource rejects an unknown resource key
func InvalidResource(key string) *AppError {
	return New(ErrCodeInvalidResource, fmt.Sprintf("invalid resource type: %s", key), http.StatusBadRequest)
}

// InvalidQuantity rejects a non-positive purchase quantity
func InvalidQuantity(quantity int64) *AppError {
	return New(ErrCodeInvalidQuantity, fmt.Sprintf("quantity must be at least 1, got %d", quantity), http.StatusBadRequest)
}

// ResourceDisabled rejects a purchase of a resource the shop does not sell
func ResourceDisabled(key string) *AppError {
	return New(ErrCodeResourceDisabled, fmt.Sprintf("%s is currently disabled in the shop", key), http.StatusBadRequest)
}

// InsufficientFunds rejects a purchase the user cannot afford
func InsufficientFunds(cost, balance int64) *AppError {
	return New(ErrCodeInsufficientFunds, "insufficient coins", http.StatusBadRequest).
		WithDetails(map[string]int64{"cost": cost, "balance": balance})
}

// LimitExceeded rejects a purchase that would pass the configured cap
func LimitExceeded(key string, newTotal, maxLimit int64) *AppError {
	return New(ErrCodeLimitExceeded, fmt.Sprintf("purchase would exceed the maximum %s limit", key), http.StatusBadRequest).
		WithDetails(map[string]int64{"new_total": newTotal, "max_limit": maxLimit})
}

// Reconciliation constructors

// NotProvisioned reports a user with no linked panel account
func NotProvisioned(userID int64) *AppError {
	return New(ErrCodeNotProvisioned, fmt.Sprintf("user %d has no linked panel account", userID), http.StatusConflict)
}

// UpstreamUnavailable reports a panel API transport or protocol failure
func UpstreamUnavailable(err error) *AppError {
	return Wrap(err, ErrCodeUpstreamUnavailable, "resources could not be refreshed", http.StatusServiceUnavailable)
}

// TransactionFailed reports a ledger commit that could not be applied
func TransactionFailed(err error) *AppError {
	return Wrap(err, ErrCodeTransactionFailed, "transaction could not be completed", http.StatusConflict)
}
