package models

import (
	"database/sql/driver"
)

// ConsentType distinguishes account-information from confirmation-of-funds consents
type ConsentType string

const (
	ConsentTypeAIS  ConsentType = "AIS"
	ConsentTypePIIS ConsentType = "PIIS"
)

// ConsentStatus is the lifecycle status of a consent
type ConsentStatus string

const (
	ConsentStatusReceived            ConsentStatus = "RECEIVED"
	ConsentStatusValid               ConsentStatus = "VALID"
	ConsentStatusPartiallyAuthorised ConsentStatus = "PARTIALLY_AUTHORISED"
	ConsentStatusRejected            ConsentStatus = "REJECTED"
	ConsentStatusExpired             ConsentStatus = "EXPIRED"
	ConsentStatusRevokedByPsu        ConsentStatus = "REVOKED_BY_PSU"
	ConsentStatusTerminatedByAspsp   ConsentStatus = "TERMINATED_BY_ASPSP"
	ConsentStatusTerminatedByTpp     ConsentStatus = "TERMINATED_BY_TPP"
)

// IsFinalised reports whether the status is terminal
func (s ConsentStatus) IsFinalised() bool {
	switch s {
	case ConsentStatusRejected, ConsentStatusExpired, ConsentStatusRevokedByPsu,
		ConsentStatusTerminatedByAspsp, ConsentStatusTerminatedByTpp:
		return true
	}
	return false
}

// IsValid reports whether s is a known consent status
func (s ConsentStatus) IsValid() bool {
	switch s {
	case ConsentStatusReceived, ConsentStatusValid, ConsentStatusPartiallyAuthorised:
		return true
	}
	return s.IsFinalised()
}

// AccountReference identifies an account inside an access scope
type AccountReference struct {
	Iban         string `json:"iban,omitempty"`
	Bban         string `json:"bban,omitempty"`
	Pan          string `json:"pan,omitempty"`
	MaskedPan    string `json:"maskedPan,omitempty"`
	Msisdn       string `json:"msisdn,omitempty"`
	Currency     string `json:"currency,omitempty"`
	AspspAccount string `json:"aspspAccountId,omitempty"`
}

// AccountAccess is the account/balance/transaction entitlement of a consent
type AccountAccess struct {
	Accounts          []AccountReference `json:"accounts,omitempty"`
	Balances          []AccountReference `json:"balances,omitempty"`
	Transactions      []AccountReference `json:"transactions,omitempty"`
	AvailableAccounts string             `json:"availableAccounts,omitempty"`
	AllPsd2           string             `json:"allPsd2,omitempty"`
}

// IsEmpty reports whether no entitlement is granted
func (a AccountAccess) IsEmpty() bool {
	return len(a.Accounts) == 0 && len(a.Balances) == 0 && len(a.Transactions) == 0 &&
		a.AvailableAccounts == "" && a.AllPsd2 == ""
}

// Scan implements the sql.Scanner interface
func (a *AccountAccess) Scan(value interface{}) error {
	return scanJSON(value, a)
}

// Value implements the driver.Valuer interface
func (a AccountAccess) Value() (driver.Value, error) {
	return valueJSON(a)
}

// Consent represents the CONSENT table
type Consent struct {
	ConsentID                string        `db:"CONSENT_ID" json:"consentId"`
	ConsentType              ConsentType   `db:"CONSENT_TYPE" json:"consentType"`
	Status                   ConsentStatus `db:"CONSENT_STATUS" json:"consentStatus"`
	ValidUntil               string        `db:"VALID_UNTIL" json:"validUntil"`
	ExpectedFrequencyPerDay  int           `db:"EXPECTED_FREQUENCY_PER_DAY" json:"frequencyPerDay"`
	TppFrequencyPerDay       int           `db:"TPP_FREQUENCY_PER_DAY" json:"tppFrequencyPerDay"`
	UsageCounter             int           `db:"USAGE_COUNTER" json:"usageCounter"`
	LastActionDate           *string       `db:"LAST_ACTION_DATE" json:"lastActionDate,omitempty"`
	RecurringIndicator       bool          `db:"RECURRING_INDICATOR" json:"recurringIndicator"`
	CombinedServiceIndicator bool          `db:"COMBINED_SERVICE_INDICATOR" json:"combinedServiceIndicator"`
	MultilevelScaRequired    bool          `db:"MULTILEVEL_SCA_REQUIRED" json:"multilevelScaRequired"`
	TppID                    string        `db:"TPP_ID" json:"tppId"`
	InstanceID               string        `db:"INSTANCE_ID" json:"instanceId"`
	PsuDataList              PsuDataList   `db:"PSU_DATA" json:"psuData"`
	AccessScope              AccountAccess `db:"ACCESS_SCOPE" json:"access"`
	AspspPayload             []byte        `db:"ASPSP_PAYLOAD" json:"aspspPayload,omitempty"`
	TppRedirectURI           *string       `db:"TPP_REDIRECT_URI" json:"tppRedirectUri,omitempty"`
	TppNokRedirectURI        *string       `db:"TPP_NOK_REDIRECT_URI" json:"tppNokRedirectUri,omitempty"`
	CreatedTime              int64         `db:"CREATED_TIME" json:"createdTime"`
	StatusChangeTime         int64         `db:"STATUS_CHANGE_TIME" json:"statusChangeTime"`
	UpdatedTime              int64         `db:"UPDATED_TIME" json:"updatedTime"`
}

// IsOneAccessType reports whether the consent may be used for a single access only
func (c *Consent) IsOneAccessType() bool {
	return !c.RecurringIndicator
}

// HasUsagesAvailable reports whether a use may decrement the counter
func (c *Consent) HasUsagesAvailable() bool {
	return c.Status == ConsentStatusValid && c.UsageCounter > 0
}

// Copy returns a deep copy of the consent
func (c *Consent) Copy() *Consent {
	if c == nil {
		return nil
	}
	cp := *c
	cp.PsuDataList = c.PsuDataList.Copy()
	cp.AccessScope = c.AccessScope.copy()
	if c.AspspPayload != nil {
		cp.AspspPayload = append([]byte(nil), c.AspspPayload...)
	}
	cp.LastActionDate = copyString(c.LastActionDate)
	cp.TppRedirectURI = copyString(c.TppRedirectURI)
	cp.TppNokRedirectURI = copyString(c.TppNokRedirectURI)
	return &cp
}

// Authorisable parent implementation

func (c *Consent) GetExternalID() string           { return c.ConsentID }
func (c *Consent) GetPsuDataList() PsuDataList     { return c.PsuDataList }
func (c *Consent) SetPsuDataList(list PsuDataList) { c.PsuDataList = list }
func (c *Consent) GetCreationTimestamp() int64     { return c.CreatedTime }
func (c *Consent) IsMultilevelScaRequired() bool   { return c.MultilevelScaRequired }
func (c *Consent) IsParentFinalised() bool         { return c.Status.IsFinalised() }

// GetRedirectURIs returns the TPP ok and nok redirect URIs
func (c *Consent) GetRedirectURIs() (string, string) {
	return derefString(c.TppRedirectURI), derefString(c.TppNokRedirectURI)
}

func (a AccountAccess) copy() AccountAccess {
	cp := a
	cp.Accounts = append([]AccountReference(nil), a.Accounts...)
	cp.Balances = append([]AccountReference(nil), a.Balances...)
	cp.Transactions = append([]AccountReference(nil), a.Transactions...)
	return cp
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateConsentRequest is the payload for creating a consent
type CreateConsentRequest struct {
	ConsentType              ConsentType   `json:"consentType"`
	ValidUntil               string        `json:"validUntil" binding:"required"`
	FrequencyPerDay          int           `json:"frequencyPerDay"`
	RecurringIndicator       bool          `json:"recurringIndicator"`
	CombinedServiceIndicator bool          `json:"combinedServiceIndicator"`
	TppID                    string        `json:"tppId" binding:"required"`
	InstanceID               string        `json:"instanceId,omitempty"`
	PsuData                  []PsuData     `json:"psuData,omitempty"`
	Access                   AccountAccess `json:"access"`
	AspspPayload             []byte        `json:"aspspPayload,omitempty"`
	TppRedirectURI           *string       `json:"tppRedirectUri,omitempty"`
	TppNokRedirectURI        *string       `json:"tppNokRedirectUri,omitempty"`
}

// CreateConsentResponse is returned after consent creation
type CreateConsentResponse struct {
	ConsentID string        `json:"consentId"`
	Status    ConsentStatus `json:"consentStatus"`
}

// ConsentStatusResponse wraps a consent status
type ConsentStatusResponse struct {
	ConsentStatus ConsentStatus `json:"consentStatus"`
}

// UpdateConsentStatusRequest requests a consent status change
type UpdateConsentStatusRequest struct {
	Status ConsentStatus `json:"status" binding:"required"`
}

// ConsentUsageRequest records one use of a consent by a TPP
type ConsentUsageRequest struct {
	TppID        string       `json:"tppId" binding:"required"`
	ActionStatus ActionStatus `json:"actionStatus"`
}

// MultilevelScaRequest toggles multilevel SCA on a parent
type MultilevelScaRequest struct {
	MultilevelScaRequired bool `json:"multilevelScaRequired"`
}

// ConsentListResponse lists consents for export
type ConsentListResponse struct {
	Data       []*Consent  `json:"data"`
	Pagination interface{} `json:"pagination,omitempty"`
}

// UpdateAccessResponse carries the id of the consent whose access changed
type UpdateAccessResponse struct {
	ConsentID string `json:"consentId"`
}
