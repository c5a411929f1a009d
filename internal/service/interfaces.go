package service

import (
	"context"
	"errors"
	"time"

	"github.com/wso2/psd2-consent-management/internal/dao"
	"github.com/wso2/psd2-consent-management/internal/models"
)

// ConsentStore persists consents. Implemented by dao.ConsentDAO and memory.ConsentStore.
type ConsentStore interface {
	Create(ctx context.Context, consent *models.Consent) error
	GetByID(ctx context.Context, consentID string) (*models.Consent, error)
	Update(ctx context.Context, consent *models.Consent) error
	UpdateAll(ctx context.Context, consents []*models.Consent) error
	FindOldConsents(ctx context.Context, tppID, instanceID, excludeID string, statuses []models.ConsentStatus) ([]*models.Consent, error)
	FindByTppID(ctx context.Context, tppID string) ([]*models.Consent, error)
	FindByPsuID(ctx context.Context, psuID string) ([]*models.Consent, error)
}

// PaymentStore persists payments
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, paymentID string) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
}

// AuthorisationStore persists authorisations of every type
type AuthorisationStore interface {
	Create(ctx context.Context, auth *models.Authorisation) error
	GetByID(ctx context.Context, authorisationID string) (*models.Authorisation, error)
	GetByParentID(ctx context.Context, parentID string, authType models.AuthorisationType) ([]*models.Authorisation, error)
	Update(ctx context.Context, auth *models.Authorisation) error
}

// BankProfile exposes the ASPSP settings the lifecycle rules depend on
type BankProfile interface {
	MinFrequencyPerDay(requested int) int
	ConsentLifetimeDays() int
	RedirectURLExpiration() time.Duration
	AuthorisationExpiration() time.Duration
	PaymentCancellationRedirectURLExpiration() time.Duration
	NotConfirmedConsentExpiration() time.Duration
	NotConfirmedPaymentExpiration() time.Duration
}

// ActionLogger records consent usage actions. Implemented by audit.Publisher.
type ActionLogger interface {
	Append(ctx context.Context, action *models.ConsentAction) error
}

// parentHooks are the parent-specific steps of the shared state machine
type parentHooks interface {
	GetParent(ctx context.Context, parentID string) (models.Authorisable, error)
	saveParentPsuData(ctx context.Context, parent models.Authorisable) error
	onScaStatusChanged(ctx context.Context, auth *models.Authorisation) error
}

func isNotFound(err error) bool {
	return errors.Is(err, dao.ErrNotFound)
}
