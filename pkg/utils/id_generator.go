package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a new UUID for correlation or audit IDs
func GenerateID() string {
	return uuid.New().String()
}

// GenerateConsentID generates a unique consent ID
func GenerateConsentID() string {
	return "CONSENT-" + uuid.New().String()
}

// GeneratePaymentID generates a unique payment ID
func GeneratePaymentID() string {
	return "PAYMENT-" + uuid.New().String()
}

// GenerateAuthorisationID generates a unique authorisation ID
func GenerateAuthorisationID() string {
	return "AUTH-" + uuid.New().String()
}

// GenerateActionID generates a unique consent action ID
func GenerateActionID() string {
	return "ACTION-" + uuid.New().String()
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
