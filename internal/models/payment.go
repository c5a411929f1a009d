package models

// TransactionStatus is the ISO 20022 status of a payment
type TransactionStatus string

const (
	TransactionStatusRCVD TransactionStatus = "RCVD" // Received
	TransactionStatusPATC TransactionStatus = "PATC" // PartiallyAcceptedTechnicalCorrect
	TransactionStatusACTC TransactionStatus = "ACTC" // AcceptedTechnicalValidation
	TransactionStatusACCP TransactionStatus = "ACCP" // AcceptedCustomerProfile
	TransactionStatusACSP TransactionStatus = "ACSP" // AcceptedSettlementInProcess
	TransactionStatusACSC TransactionStatus = "ACSC" // AcceptedSettlementCompleted
	TransactionStatusACWC TransactionStatus = "ACWC" // AcceptedWithChange
	TransactionStatusACWP TransactionStatus = "ACWP" // AcceptedWithoutPosting
	TransactionStatusACCC TransactionStatus = "ACCC" // AcceptedCreditSettlementCompleted
	TransactionStatusACFC TransactionStatus = "ACFC" // AcceptedFundsChecked
	TransactionStatusPDNG TransactionStatus = "PDNG" // Pending
	TransactionStatusPART TransactionStatus = "PART" // PartiallyAccepted
	TransactionStatusRJCT TransactionStatus = "RJCT" // Rejected
	TransactionStatusCANC TransactionStatus = "CANC" // Cancelled
)

// IsFinalised reports whether no further transitions are allowed
func (s TransactionStatus) IsFinalised() bool {
	switch s {
	case TransactionStatusACSC, TransactionStatusACCC, TransactionStatusRJCT, TransactionStatusCANC:
		return true
	}
	return false
}

// IsValid reports whether s is a known transaction status
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusRCVD, TransactionStatusPATC, TransactionStatusACTC, TransactionStatusACCP,
		TransactionStatusACSP, TransactionStatusACSC, TransactionStatusACWC, TransactionStatusACWP,
		TransactionStatusACCC, TransactionStatusACFC, TransactionStatusPDNG, TransactionStatusPART,
		TransactionStatusRJCT, TransactionStatusCANC:
		return true
	}
	return false
}

// AcceptsAuthorisation reports whether an authorisation may still attach to the payment
func (s TransactionStatus) AcceptsAuthorisation() bool {
	return s == TransactionStatusRCVD || s == TransactionStatusPATC
}

// PaymentType is the payment kind
type PaymentType string

const (
	PaymentTypeSingle   PaymentType = "SINGLE"
	PaymentTypeBulk     PaymentType = "BULK"
	PaymentTypePeriodic PaymentType = "PERIODIC"
)

// Payment represents the PAYMENT table, the parent of PIS authorisations
type Payment struct {
	PaymentID               string            `db:"PAYMENT_ID" json:"paymentId"`
	PaymentType             PaymentType       `db:"PAYMENT_TYPE" json:"paymentType"`
	PaymentProduct          string            `db:"PAYMENT_PRODUCT" json:"paymentProduct"`
	TransactionStatus       TransactionStatus `db:"TRANSACTION_STATUS" json:"transactionStatus"`
	TppID                   string            `db:"TPP_ID" json:"tppId"`
	InstanceID              string            `db:"INSTANCE_ID" json:"instanceId"`
	PsuDataList             PsuDataList       `db:"PSU_DATA" json:"psuData"`
	MultilevelScaRequired   bool              `db:"MULTILEVEL_SCA_REQUIRED" json:"multilevelScaRequired"`
	Payload                 []byte            `db:"PAYLOAD" json:"payload,omitempty"`
	TppRedirectURI          *string           `db:"TPP_REDIRECT_URI" json:"tppRedirectUri,omitempty"`
	TppNokRedirectURI       *string           `db:"TPP_NOK_REDIRECT_URI" json:"tppNokRedirectUri,omitempty"`
	TppCancelRedirectURI    *string           `db:"TPP_CANCEL_REDIRECT_URI" json:"tppCancelRedirectUri,omitempty"`
	TppCancelNokRedirectURI *string           `db:"TPP_CANCEL_NOK_REDIRECT_URI" json:"tppCancelNokRedirectUri,omitempty"`
	CreatedTime             int64             `db:"CREATED_TIME" json:"createdTime"`
	StatusChangeTime        int64             `db:"STATUS_CHANGE_TIME" json:"statusChangeTime"`
	UpdatedTime             int64             `db:"UPDATED_TIME" json:"updatedTime"`
}

// Copy returns a deep copy of the payment
func (p *Payment) Copy() *Payment {
	if p == nil {
		return nil
	}
	cp := *p
	cp.PsuDataList = p.PsuDataList.Copy()
	if p.Payload != nil {
		cp.Payload = append([]byte(nil), p.Payload...)
	}
	cp.TppRedirectURI = copyString(p.TppRedirectURI)
	cp.TppNokRedirectURI = copyString(p.TppNokRedirectURI)
	cp.TppCancelRedirectURI = copyString(p.TppCancelRedirectURI)
	cp.TppCancelNokRedirectURI = copyString(p.TppCancelNokRedirectURI)
	return &cp
}

// Authorisable parent implementation

func (p *Payment) GetExternalID() string           { return p.PaymentID }
func (p *Payment) GetPsuDataList() PsuDataList     { return p.PsuDataList }
func (p *Payment) SetPsuDataList(list PsuDataList) { p.PsuDataList = list }
func (p *Payment) GetCreationTimestamp() int64     { return p.CreatedTime }
func (p *Payment) IsMultilevelScaRequired() bool   { return p.MultilevelScaRequired }
func (p *Payment) IsParentFinalised() bool         { return p.TransactionStatus.IsFinalised() }

// CreatePaymentRequest is the payload for registering a payment initiation
type CreatePaymentRequest struct {
	PaymentType             PaymentType `json:"paymentType" binding:"required"`
	PaymentProduct          string      `json:"paymentProduct" binding:"required"`
	TppID                   string      `json:"tppId" binding:"required"`
	InstanceID              string      `json:"instanceId,omitempty"`
	PsuData                 []PsuData   `json:"psuData,omitempty"`
	Payload                 []byte      `json:"payload,omitempty"`
	TppRedirectURI          *string     `json:"tppRedirectUri,omitempty"`
	TppNokRedirectURI       *string     `json:"tppNokRedirectUri,omitempty"`
	TppCancelRedirectURI    *string     `json:"tppCancelRedirectUri,omitempty"`
	TppCancelNokRedirectURI *string     `json:"tppCancelNokRedirectUri,omitempty"`
}

// CreatePaymentResponse is returned after payment creation
type CreatePaymentResponse struct {
	PaymentID         string            `json:"paymentId"`
	TransactionStatus TransactionStatus `json:"transactionStatus"`
}

// TransactionStatusResponse wraps a transaction status
type TransactionStatusResponse struct {
	TransactionStatus TransactionStatus `json:"transactionStatus"`
}

// UpdateTransactionStatusRequest requests a transaction status change
type UpdateTransactionStatusRequest struct {
	TransactionStatus TransactionStatus `json:"transactionStatus" binding:"required"`
}

// GetRedirectURIs returns the TPP ok and nok redirect URIs
func (p *Payment) GetRedirectURIs() (string, string) {
	return derefString(p.TppRedirectURI), derefString(p.TppNokRedirectURI)
}

// GetCancellationRedirectURIs returns the redirect URIs used by cancellation authorisations
func (p *Payment) GetCancellationRedirectURIs() (string, string) {
	return derefString(p.TppCancelRedirectURI), derefString(p.TppCancelNokRedirectURI)
}
