package models

import (
	"database/sql/driver"
	"strings"
)

// PsuData identifies a payment service user. Two PsuData describe the same
// PSU when every identity field matches; there is no surrogate key.
type PsuData struct {
	PsuID              string `json:"psuId"`
	PsuIDType          string `json:"psuIdType,omitempty"`
	PsuCorporateID     string `json:"psuCorporateId,omitempty"`
	PsuCorporateIDType string `json:"psuCorporateIdType,omitempty"`
	InstanceID         string `json:"instanceId,omitempty"`
}

// IsEmpty reports whether the PSU carries no identity
func (p *PsuData) IsEmpty() bool {
	return p == nil || strings.TrimSpace(p.PsuID) == ""
}

// IsNotEmpty is the negation of IsEmpty
func (p *PsuData) IsNotEmpty() bool {
	return !p.IsEmpty()
}

// ContentEquals compares the identity tuple of two PSUs
func (p *PsuData) ContentEquals(other *PsuData) bool {
	if p == nil || other == nil {
		return false
	}
	return p.PsuID == other.PsuID &&
		p.PsuIDType == other.PsuIDType &&
		p.PsuCorporateID == other.PsuCorporateID &&
		p.PsuCorporateIDType == other.PsuCorporateIDType &&
		p.InstanceID == other.InstanceID
}

// Copy returns an independent copy, nil stays nil
func (p *PsuData) Copy() *PsuData {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Scan implements the sql.Scanner interface
func (p *PsuData) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// Value implements the driver.Valuer interface
func (p PsuData) Value() (driver.Value, error) {
	return valueJSON(p)
}

// PsuDataList is the set of PSUs bound to a consent or payment
type PsuDataList []PsuData

// Contains reports whether the list holds a PSU value-equal to psu
func (l PsuDataList) Contains(psu *PsuData) bool {
	for i := range l {
		if l[i].ContentEquals(psu) {
			return true
		}
	}
	return false
}

// Find returns the stored PSU value-equal to psu
func (l PsuDataList) Find(psu *PsuData) *PsuData {
	for i := range l {
		if l[i].ContentEquals(psu) {
			return l[i].Copy()
		}
	}
	return nil
}

// PsuIDs returns the distinct psuId values of the list
func (l PsuDataList) PsuIDs() []string {
	seen := make(map[string]bool, len(l))
	ids := make([]string, 0, len(l))
	for _, p := range l {
		if p.PsuID == "" || seen[p.PsuID] {
			continue
		}
		seen[p.PsuID] = true
		ids = append(ids, p.PsuID)
	}
	return ids
}

// Copy returns an independent copy of the list
func (l PsuDataList) Copy() PsuDataList {
	if l == nil {
		return nil
	}
	c := make(PsuDataList, len(l))
	copy(c, l)
	return c
}

// Scan implements the sql.Scanner interface
func (l *PsuDataList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Value implements the driver.Valuer interface
func (l PsuDataList) Value() (driver.Value, error) {
	if l == nil {
		return valueJSON([]PsuData{})
	}
	return valueJSON([]PsuData(l))
}
