package models

// ActionStatus is the outcome recorded for one use of a consent
type ActionStatus string

const (
	ActionStatusSuccess              ActionStatus = "SUCCESS"
	ActionStatusBadPayload           ActionStatus = "BAD_PAYLOAD"
	ActionStatusConsentLimitExceeded ActionStatus = "CONSENT_LIMIT_EXCEEDED"
	ActionStatusConsentNotFound      ActionStatus = "CONSENT_NOT_FOUND"
	ActionStatusConsentInvalidStatus ActionStatus = "CONSENT_INVALID_STATUS"
	ActionStatusFailureAccount       ActionStatus = "FAILURE_ACCOUNT"
	ActionStatusFailureBalance       ActionStatus = "FAILURE_BALANCE"
	ActionStatusFailureTransaction   ActionStatus = "FAILURE_TRANSACTION"
)

// ConsentAction represents the CONSENT_ACTION audit table. Records are append-only.
type ConsentAction struct {
	ActionID           string       `db:"ACTION_ID" json:"actionId"`
	RequestedConsentID string       `db:"REQUESTED_CONSENT_ID" json:"requestedConsentId"`
	ActionStatus       ActionStatus `db:"ACTION_STATUS" json:"actionStatus"`
	TppID              string       `db:"TPP_ID" json:"tppId"`
	RequestDate        string       `db:"REQUEST_DATE" json:"requestDate"`
	CreatedTime        int64        `db:"CREATED_TIME" json:"createdTime"`
}
