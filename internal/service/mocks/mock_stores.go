package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/wso2/psd2-consent-management/internal/models"
)

// MockConsentStore is a mock implementation of service.ConsentStore
type MockConsentStore struct {
	mock.Mock
}

func (m *MockConsentStore) Create(ctx context.Context, consent *models.Consent) error {
	args := m.Called(ctx, consent)
	return args.Error(0)
}

func (m *MockConsentStore) GetByID(ctx context.Context, consentID string) (*models.Consent, error) {
	args := m.Called(ctx, consentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Consent), args.Error(1)
}

func (m *MockConsentStore) Update(ctx context.Context, consent *models.Consent) error {
	args := m.Called(ctx, consent)
	return args.Error(0)
}

func (m *MockConsentStore) UpdateAll(ctx context.Context, consents []*models.Consent) error {
	args := m.Called(ctx, consents)
	return args.Error(0)
}

func (m *MockConsentStore) FindOldConsents(ctx context.Context, tppID, instanceID, excludeID string, statuses []models.ConsentStatus) ([]*models.Consent, error) {
	args := m.Called(ctx, tppID, instanceID, excludeID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Consent), args.Error(1)
}

func (m *MockConsentStore) FindByTppID(ctx context.Context, tppID string) ([]*models.Consent, error) {
	args := m.Called(ctx, tppID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Consent), args.Error(1)
}

func (m *MockConsentStore) FindByPsuID(ctx context.Context, psuID string) ([]*models.Consent, error) {
	args := m.Called(ctx, psuID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Consent), args.Error(1)
}

// MockPaymentStore is a mock implementation of service.PaymentStore
type MockPaymentStore struct {
	mock.Mock
}

func (m *MockPaymentStore) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentStore) GetByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentStore) Update(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// MockAuthorisationStore is a mock implementation of service.AuthorisationStore
type MockAuthorisationStore struct {
	mock.Mock
}

func (m *MockAuthorisationStore) Create(ctx context.Context, auth *models.Authorisation) error {
	args := m.Called(ctx, auth)
	return args.Error(0)
}

func (m *MockAuthorisationStore) GetByID(ctx context.Context, authorisationID string) (*models.Authorisation, error) {
	args := m.Called(ctx, authorisationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Authorisation), args.Error(1)
}

func (m *MockAuthorisationStore) GetByParentID(ctx context.Context, parentID string, authType models.AuthorisationType) ([]*models.Authorisation, error) {
	args := m.Called(ctx, parentID, authType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Authorisation), args.Error(1)
}

func (m *MockAuthorisationStore) Update(ctx context.Context, auth *models.Authorisation) error {
	args := m.Called(ctx, auth)
	return args.Error(0)
}

// MockActionLogger is a mock implementation of service.ActionLogger
type MockActionLogger struct {
	mock.Mock
}

func (m *MockActionLogger) Append(ctx context.Context, action *models.ConsentAction) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}
