package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message, details string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common error codes
const (
	ErrCodeBadRequest            = "BAD_REQUEST"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeInternalError         = "INTERNAL_ERROR"
	ErrCodeValidationError       = "VALIDATION_ERROR"
	ErrCodeConsentNotFound       = "CONSENT_NOT_FOUND"
	ErrCodePaymentNotFound       = "PAYMENT_NOT_FOUND"
	ErrCodeAuthorisationNotFound = "AUTHORISATION_NOT_FOUND"
)

// HTTPStatusForErrorCode returns the appropriate HTTP status code for an error code
func HTTPStatusForErrorCode(code string) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidationError:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeConsentNotFound, ErrCodePaymentNotFound, ErrCodeAuthorisationNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// BoolResponse wraps the outcome of a guarded mutation
type BoolResponse struct {
	Result bool `json:"result"`
}

// IDListResponse lists external ids
type IDListResponse struct {
	IDs []string `json:"ids"`
}

// scanJSON decodes a JSON column value into dest. NULL leaves dest untouched.
func scanJSON(value interface{}, dest interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSON column: %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("invalid JSON data: %w", err)
	}
	return nil
}

// valueJSON encodes v as a JSON string column value
func valueJSON(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON column: %w", err)
	}
	return string(data), nil
}
