package utils

import (
	"encoding/json"
	"net/http"

	"github.com/hostdeck/hostdeck/internal/pkg/errors"
)

// SuccessResponse wraps API payloads in the standard envelope.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse is the envelope for failed requests.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code alongside the message.
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// WriteSuccess writes data inside the success envelope.
func WriteSuccess(w http.ResponseWriter, status int, data interface{}) error {
	return writeJSON(w, status, SuccessResponse{Success: true, Data: data})
}

// WriteSuccessWithMessage writes data plus a human-readable message.
func WriteSuccessWithMessage(w http.ResponseWriter, status int, message string, data interface{}) error {
	return writeJSON(w, status, SuccessResponse{Success: true, Message: message, Data: data})
}

// WriteError maps an AppError onto the error envelope using its own status.
func WriteError(w http.ResponseWriter, err *errors.AppError) error {
	detail := ErrorDetail{Code: err.Code, Message: err.Message, Details: err.Details}
	return writeJSON(w, err.StatusCode, ErrorResponse{Error: detail})
}

// WriteErrorMessage writes an ad-hoc error without constructing an AppError.
func WriteErrorMessage(w http.ResponseWriter, status int, code, message string) error {
	return writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
