// Package memory provides in-process stores with the same contract as the SQL DAOs.
// Aggregates are copied on the way in and out so callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wso2/psd2-consent-management/internal/dao"
	"github.com/wso2/psd2-consent-management/internal/models"
)

// ConsentStore keeps consents keyed by external id
type ConsentStore struct {
	mu       sync.RWMutex
	consents map[string]*models.Consent
}

func NewConsentStore() *ConsentStore {
	return &ConsentStore{consents: make(map[string]*models.Consent)}
}

func (s *ConsentStore) Create(ctx context.Context, consent *models.Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.consents[consent.ConsentID]; exists {
		return fmt.Errorf("failed to create consent: duplicate id %s", consent.ConsentID)
	}
	s.consents[consent.ConsentID] = consent.Copy()
	return nil
}

func (s *ConsentStore) GetByID(ctx context.Context, consentID string) (*models.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	consent, ok := s.consents[consentID]
	if !ok {
		return nil, fmt.Errorf("consent %w: %s", dao.ErrNotFound, consentID)
	}
	return consent.Copy(), nil
}

func (s *ConsentStore) Update(ctx context.Context, consent *models.Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.consents[consent.ConsentID]; !ok {
		return fmt.Errorf("consent %w: %s", dao.ErrNotFound, consent.ConsentID)
	}
	s.consents[consent.ConsentID] = consent.Copy()
	return nil
}

// UpdateAll replaces every given consent or none of them
func (s *ConsentStore) UpdateAll(ctx context.Context, consents []*models.Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, consent := range consents {
		if _, ok := s.consents[consent.ConsentID]; !ok {
			return fmt.Errorf("consent %w: %s", dao.ErrNotFound, consent.ConsentID)
		}
	}
	for _, consent := range consents {
		s.consents[consent.ConsentID] = consent.Copy()
	}
	return nil
}

func (s *ConsentStore) FindOldConsents(ctx context.Context, tppID, instanceID, excludeID string, statuses []models.ConsentStatus) ([]*models.Consent, error) {
	return s.filter(func(c *models.Consent) bool {
		if c.TppID != tppID || c.InstanceID != instanceID || c.ConsentID == excludeID {
			return false
		}
		for _, status := range statuses {
			if c.Status == status {
				return true
			}
		}
		return false
	}), nil
}

func (s *ConsentStore) FindByTppID(ctx context.Context, tppID string) ([]*models.Consent, error) {
	return s.filter(func(c *models.Consent) bool { return c.TppID == tppID }), nil
}

func (s *ConsentStore) FindByPsuID(ctx context.Context, psuID string) ([]*models.Consent, error) {
	return s.filter(func(c *models.Consent) bool {
		for _, id := range c.PsuDataList.PsuIDs() {
			if id == psuID {
				return true
			}
		}
		return false
	}), nil
}

func (s *ConsentStore) filter(match func(*models.Consent) bool) []*models.Consent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.Consent, 0)
	for _, consent := range s.consents {
		if match(consent) {
			result = append(result, consent.Copy())
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedTime == result[j].CreatedTime {
			return result[i].ConsentID < result[j].ConsentID
		}
		return result[i].CreatedTime < result[j].CreatedTime
	})
	return result
}

// PaymentStore keeps payments keyed by external id
type PaymentStore struct {
	mu       sync.RWMutex
	payments map[string]*models.Payment
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{payments: make(map[string]*models.Payment)}
}

func (s *PaymentStore) Create(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[payment.PaymentID]; exists {
		return fmt.Errorf("failed to create payment: duplicate id %s", payment.PaymentID)
	}
	s.payments[payment.PaymentID] = payment.Copy()
	return nil
}

func (s *PaymentStore) GetByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %w: %s", dao.ErrNotFound, paymentID)
	}
	return payment.Copy(), nil
}

func (s *PaymentStore) Update(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[payment.PaymentID]; !ok {
		return fmt.Errorf("payment %w: %s", dao.ErrNotFound, payment.PaymentID)
	}
	s.payments[payment.PaymentID] = payment.Copy()
	return nil
}

// AuthorisationStore keeps authorisations in creation order
type AuthorisationStore struct {
	mu    sync.RWMutex
	auths map[string]*models.Authorisation
	order []string
}

func NewAuthorisationStore() *AuthorisationStore {
	return &AuthorisationStore{auths: make(map[string]*models.Authorisation)}
}

func (s *AuthorisationStore) Create(ctx context.Context, auth *models.Authorisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.auths[auth.AuthorisationID]; exists {
		return fmt.Errorf("failed to create authorisation: duplicate id %s", auth.AuthorisationID)
	}
	s.auths[auth.AuthorisationID] = auth.Copy()
	s.order = append(s.order, auth.AuthorisationID)
	return nil
}

func (s *AuthorisationStore) GetByID(ctx context.Context, authorisationID string) (*models.Authorisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	auth, ok := s.auths[authorisationID]
	if !ok {
		return nil, fmt.Errorf("authorisation %w: %s", dao.ErrNotFound, authorisationID)
	}
	return auth.Copy(), nil
}

func (s *AuthorisationStore) GetByParentID(ctx context.Context, parentID string, authType models.AuthorisationType) ([]*models.Authorisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.Authorisation, 0)
	for _, id := range s.order {
		auth := s.auths[id]
		if auth.ParentID == parentID && auth.Type == authType {
			result = append(result, auth.Copy())
		}
	}
	return result, nil
}

func (s *AuthorisationStore) Update(ctx context.Context, auth *models.Authorisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auths[auth.AuthorisationID]; !ok {
		return fmt.Errorf("authorisation %w: %s", dao.ErrNotFound, auth.AuthorisationID)
	}
	s.auths[auth.AuthorisationID] = auth.Copy()
	return nil
}

// ConsentActionStore is an append-only list of consent actions
type ConsentActionStore struct {
	mu      sync.RWMutex
	actions []models.ConsentAction
}

func NewConsentActionStore() *ConsentActionStore {
	return &ConsentActionStore{}
}

func (s *ConsentActionStore) Create(ctx context.Context, action *models.ConsentAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, *action)
	return nil
}

func (s *ConsentActionStore) GetByConsentID(ctx context.Context, consentID string) ([]models.ConsentAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.ConsentAction, 0)
	for _, action := range s.actions {
		if action.RequestedConsentID == consentID {
			result = append(result, action)
		}
	}
	return result, nil
}
