package service

import "github.com/wso2/psd2-consent-management/internal/models"

// PsuService holds the PSU identity rules shared by consents, payments and authorisations
type PsuService struct{}

// NewPsuService creates a new PsuService
func NewPsuService() *PsuService {
	return &PsuService{}
}

// DefinePsuDataForAuthorisation resolves the PSU an authorisation binds to.
// An empty request yields nil; a PSU already known to the parent resolves to
// the stored instance so its identity is reused.
func (s *PsuService) DefinePsuDataForAuthorisation(psu *models.PsuData, list models.PsuDataList) *models.PsuData {
	if psu.IsEmpty() {
		return nil
	}
	if stored := list.Find(psu); stored != nil {
		return stored
	}
	return psu.Copy()
}

// EnrichPsuData returns list with psu appended when it is not already present
func (s *PsuService) EnrichPsuData(psu *models.PsuData, list models.PsuDataList) models.PsuDataList {
	if !s.IsPsuDataNew(psu, list) {
		return list
	}
	enriched := list.Copy()
	return append(enriched, *psu.Copy())
}

// IsPsuDataNew reports whether psu is non-empty and absent from list
func (s *PsuService) IsPsuDataNew(psu *models.PsuData, list models.PsuDataList) bool {
	return psu.IsNotEmpty() && !list.Contains(psu)
}

// IsPsuDataRequestCorrect reports whether an update request may proceed against
// the PSU already bound to an authorisation in RECEIVED status
func (s *PsuService) IsPsuDataRequestCorrect(request, stored *models.PsuData) bool {
	if request.IsEmpty() || stored == nil {
		return true
	}
	return request.PsuID == stored.PsuID
}

// IsPsuDataListEqual compares two PSU lists ignoring order
func (s *PsuService) IsPsuDataListEqual(a, b models.PsuDataList) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !b.Contains(&a[i]) {
			return false
		}
	}
	for i := range b {
		if !a.Contains(&b[i]) {
			return false
		}
	}
	return true
}
