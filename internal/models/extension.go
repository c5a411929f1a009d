package models

// Extension API payloads exchanged with the bank's consent action webhook

// ConsentActionNotification is posted to the webhook for every consent usage record
type ConsentActionNotification struct {
	RequestID string        `json:"requestId"`
	Data      ConsentAction `json:"data"`
}

// ExtensionResponse is the webhook acknowledgement
type ExtensionResponse struct {
	ResponseID   string `json:"responseId,omitempty"`
	Status       string `json:"status"` // SUCCESS or ERROR
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Extension response statuses
const (
	ExtensionStatusSuccess = "SUCCESS"
	ExtensionStatusError   = "ERROR"
)

type contextKey string

// CorrelationIDKey is the context key under which the request correlation id is stored
const CorrelationIDKey contextKey = "correlationID"
