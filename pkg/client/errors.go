package client

import "fmt"

// APIError represents an error returned by the API
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("API error: %s (status: %d)", e.Message, e.StatusCode)
}

// IsNotFound returns true if the error is a 404 not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized returns true if the error is a 401 unauthorized error
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsRejectedPurchase reports whether the error is one of the shop's
// purchase rejection codes.
func (e *APIError) IsRejectedPurchase() bool {
	switch e.Code {
	case "INVALID_RESOURCE", "INVALID_QUANTITY", "RESOURCE_DISABLED",
		"INSUFFICIENT_FUNDS", "LIMIT_EXCEEDED":
		return true
	}
	return false
}
