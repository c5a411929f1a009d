package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError marks a request that failed input validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// ValidateConsentID validates consent ID format
func ValidateConsentID(consentID string) error {
	return validateID("consent ID", consentID)
}

// ValidatePaymentID validates payment ID format
func ValidatePaymentID(paymentID string) error {
	return validateID("payment ID", paymentID)
}

// ValidateAuthorisationID validates authorisation ID format
func ValidateAuthorisationID(authorisationID string) error {
	return validateID("authorisation ID", authorisationID)
}

// ValidateTppID validates TPP identifier
func ValidateTppID(tppID string) error {
	return validateID("TPP ID", tppID)
}

func validateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return NewValidationError(field, "cannot be empty")
	}
	if len(id) > 255 {
		return NewValidationError(field, "too long (max 255 characters)")
	}
	return nil
}

// ValidateDate validates an ISO 8601 calendar date
func ValidateDate(fieldName, value string) error {
	if err := ValidateRequired(fieldName, value); err != nil {
		return err
	}
	if _, err := ParseDate(value); err != nil {
		return NewValidationError(fieldName, "must be a date in YYYY-MM-DD format")
	}
	return nil
}

// SanitizeString removes dangerous characters from user input
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}

// ValidateRequired validates that a field is not empty
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(fieldName, "is required")
	}
	return nil
}

// ValidateMaxLength validates maximum string length
func ValidateMaxLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return NewValidationError(fieldName, fmt.Sprintf("exceeds maximum length of %d characters", maxLength))
	}
	return nil
}

// ValidateOneOf validates that value is one of the allowed values
func ValidateOneOf(fieldName, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return NewValidationError(fieldName, fmt.Sprintf("must be one of [%s]", strings.Join(allowed, ", ")))
}
