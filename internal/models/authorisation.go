package models

import (
	"database/sql/driver"
)

// AuthorisationType tags which parent kind an authorisation belongs to
type AuthorisationType string

const (
	AuthorisationTypeConsent         AuthorisationType = "CONSENT"
	AuthorisationTypePisCreation     AuthorisationType = "PIS_CREATION"
	AuthorisationTypePisCancellation AuthorisationType = "PIS_CANCELLATION"
)

// IsValid reports whether t is a known authorisation type
func (t AuthorisationType) IsValid() bool {
	switch t {
	case AuthorisationTypeConsent, AuthorisationTypePisCreation, AuthorisationTypePisCancellation:
		return true
	}
	return false
}

// ScaStatus is the state of a single authorisation
type ScaStatus string

const (
	ScaStatusReceived          ScaStatus = "RECEIVED"
	ScaStatusPsuIdentified     ScaStatus = "PSUIDENTIFIED"
	ScaStatusPsuAuthenticated  ScaStatus = "PSUAUTHENTICATED"
	ScaStatusScaMethodSelected ScaStatus = "SCAMETHODSELECTED"
	ScaStatusStarted           ScaStatus = "STARTED"
	ScaStatusUnconfirmed       ScaStatus = "UNCONFIRMED"
	ScaStatusFinalised         ScaStatus = "FINALISED"
	ScaStatusFailed            ScaStatus = "FAILED"
	ScaStatusExempted          ScaStatus = "EXEMPTED"
)

// IsFinalised reports whether the authorisation can no longer change
func (s ScaStatus) IsFinalised() bool {
	return s == ScaStatusFinalised || s == ScaStatusFailed
}

// IsValid reports whether s is a known SCA status
func (s ScaStatus) IsValid() bool {
	switch s {
	case ScaStatusReceived, ScaStatusPsuIdentified, ScaStatusPsuAuthenticated, ScaStatusScaMethodSelected,
		ScaStatusStarted, ScaStatusUnconfirmed, ScaStatusFinalised, ScaStatusFailed, ScaStatusExempted:
		return true
	}
	return false
}

// ScaApproach is the SCA delivery approach
type ScaApproach string

const (
	ScaApproachEmbedded  ScaApproach = "EMBEDDED"
	ScaApproachDecoupled ScaApproach = "DECOUPLED"
	ScaApproachRedirect  ScaApproach = "REDIRECT"
	ScaApproachOAuth     ScaApproach = "OAUTH"
)

// IsValid reports whether a is a known SCA approach
func (a ScaApproach) IsValid() bool {
	switch a {
	case ScaApproachEmbedded, ScaApproachDecoupled, ScaApproachRedirect, ScaApproachOAuth:
		return true
	}
	return false
}

// ScaMethod is an authentication method offered to the PSU
type ScaMethod struct {
	AuthenticationMethodID string `json:"authenticationMethodId"`
	AuthenticationType     string `json:"authenticationType,omitempty"`
	Name                   string `json:"name,omitempty"`
	Decoupled              bool   `json:"decoupled"`
}

// ScaMethods is the list of methods stored on an authorisation
type ScaMethods []ScaMethod

// Equal compares two method lists ignoring order
func (m ScaMethods) Equal(other ScaMethods) bool {
	if len(m) != len(other) {
		return false
	}
	counts := make(map[ScaMethod]int, len(m))
	for _, method := range m {
		counts[method]++
	}
	for _, method := range other {
		if counts[method] == 0 {
			return false
		}
		counts[method]--
	}
	return true
}

// Scan implements the sql.Scanner interface
func (m *ScaMethods) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// Value implements the driver.Valuer interface
func (m ScaMethods) Value() (driver.Value, error) {
	if m == nil {
		return valueJSON([]ScaMethod{})
	}
	return valueJSON([]ScaMethod(m))
}

// Authorisation represents the AUTHORISATION table
type Authorisation struct {
	AuthorisationID                  string            `db:"AUTHORISATION_ID" json:"authorisationId"`
	ParentID                         string            `db:"PARENT_ID" json:"parentId"`
	Type                             AuthorisationType `db:"AUTHORISATION_TYPE" json:"authorisationType"`
	ScaStatus                        ScaStatus         `db:"SCA_STATUS" json:"scaStatus"`
	ScaApproach                      ScaApproach       `db:"SCA_APPROACH" json:"scaApproach"`
	PsuData                          *PsuData          `db:"PSU_DATA" json:"psuData,omitempty"`
	ChosenScaMethod                  *string           `db:"CHOSEN_SCA_METHOD" json:"chosenScaMethod,omitempty"`
	AvailableScaMethods              ScaMethods        `db:"AVAILABLE_SCA_METHODS" json:"availableScaMethods,omitempty"`
	ScaAuthenticationData            *string           `db:"SCA_AUTHENTICATION_DATA" json:"-"`
	RedirectURLExpirationTimestamp   int64             `db:"REDIRECT_URL_EXPIRATION_TIMESTAMP" json:"redirectUrlExpirationTimestamp"`
	AuthorisationExpirationTimestamp int64             `db:"AUTHORISATION_EXPIRATION_TIMESTAMP" json:"authorisationExpirationTimestamp"`
	TppOkRedirectURI                 *string           `db:"TPP_OK_REDIRECT_URI" json:"tppOkRedirectUri,omitempty"`
	TppNokRedirectURI                *string           `db:"TPP_NOK_REDIRECT_URI" json:"tppNokRedirectUri,omitempty"`
	CreatedTime                      int64             `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime                      int64             `db:"UPDATED_TIME" json:"updatedTime"`
}

// Copy returns a deep copy of the authorisation
func (a *Authorisation) Copy() *Authorisation {
	if a == nil {
		return nil
	}
	cp := *a
	cp.PsuData = a.PsuData.Copy()
	cp.ChosenScaMethod = copyString(a.ChosenScaMethod)
	cp.ScaAuthenticationData = copyString(a.ScaAuthenticationData)
	cp.TppOkRedirectURI = copyString(a.TppOkRedirectURI)
	cp.TppNokRedirectURI = copyString(a.TppNokRedirectURI)
	if a.AvailableScaMethods != nil {
		cp.AvailableScaMethods = append(ScaMethods(nil), a.AvailableScaMethods...)
	}
	return &cp
}

// Authorisable is the parent aggregate (consent or payment) an authorisation
// attaches to. Authorisations only hold the parent's external id.
type Authorisable interface {
	GetExternalID() string
	GetPsuDataList() PsuDataList
	SetPsuDataList(list PsuDataList)
	GetCreationTimestamp() int64
	IsMultilevelScaRequired() bool
	IsParentFinalised() bool
}

// TppRedirectURIs carries the TPP callback URIs supplied with an authorisation request
type TppRedirectURIs struct {
	URI    string `json:"uri,omitempty"`
	NokURI string `json:"nokUri,omitempty"`
}

// CreateAuthorisationRequest is the payload for starting an authorisation
type CreateAuthorisationRequest struct {
	PsuData         *PsuData        `json:"psuData,omitempty"`
	ScaApproach     ScaApproach     `json:"scaApproach"`
	TppRedirectURIs TppRedirectURIs `json:"tppRedirectUris"`
}

// CreateAuthorisationResponse is returned after an authorisation is created
type CreateAuthorisationResponse struct {
	AuthorisationID string      `json:"authorisationId"`
	ScaStatus       ScaStatus   `json:"scaStatus"`
	ParentID        string      `json:"parentId"`
	PsuData         *PsuData    `json:"psuData,omitempty"`
	ScaApproach     ScaApproach `json:"scaApproach"`
}

// UpdateAuthorisationRequest drives one step of the SCA state machine
type UpdateAuthorisationRequest struct {
	PsuData                *PsuData    `json:"psuData,omitempty"`
	ScaStatus              ScaStatus   `json:"scaStatus" binding:"required"`
	AuthenticationMethodID string      `json:"authenticationMethodId,omitempty"`
	ScaAuthenticationData  string      `json:"scaAuthenticationData,omitempty"`
	ScaApproach            ScaApproach `json:"scaApproach,omitempty"`
}

// ConfirmationCodeRequest carries the confirmation code returned by the PSU
type ConfirmationCodeRequest struct {
	ConfirmationCode string `json:"confirmationCode" binding:"required"`
}

// ScaStatusResponse wraps an SCA status
type ScaStatusResponse struct {
	ScaStatus ScaStatus `json:"scaStatus"`
}

// ScaApproachResponse wraps an SCA approach
type ScaApproachResponse struct {
	ScaApproach ScaApproach `json:"scaApproach"`
}

// SaveScaMethodsRequest replaces the available SCA methods of an authorisation
type SaveScaMethodsRequest struct {
	Methods []ScaMethod `json:"methods"`
}

// RedirectExpiredResponse points the PSU back to the TPP after the redirect URL expired
type RedirectExpiredResponse struct {
	AuthorisationID   string `json:"authorisationId"`
	TppNokRedirectURI string `json:"tppNokRedirectUri,omitempty"`
}

// NewRedirectExpiredResponse builds the redirect-expired payload for a
func NewRedirectExpiredResponse(a *Authorisation) RedirectExpiredResponse {
	return RedirectExpiredResponse{
		AuthorisationID:   a.AuthorisationID,
		TppNokRedirectURI: derefString(a.TppNokRedirectURI),
	}
}
