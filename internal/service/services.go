package service

import (
	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/models"
)

// Stores groups the persistence backends of the service graph
type Stores struct {
	Consents       ConsentStore
	Payments       PaymentStore
	Authorisations AuthorisationStore
}

// Services is the wired service graph exposed to the HTTP layer
type Services struct {
	Consents       *ConsentService
	Payments       *PaymentService
	Authorisations *AuthorisationService
	Resolver       *AuthServiceResolver
}

// NewServices wires the lifecycle engines, the per-type authorisation state
// machines and the authorisation facade over stores
func NewServices(
	stores Stores,
	actions ActionLogger,
	profile BankProfile,
	policy *ExpirationPolicy,
	m *metrics.Metrics,
	logger *logrus.Logger,
) (*Services, error) {
	psu := NewPsuService()

	consents := NewConsentService(stores.Consents, stores.Authorisations, actions, profile, policy, psu, m, logger)
	payments := NewPaymentService(stores.Payments, stores.Authorisations, profile, policy, psu, m, logger)

	resolver, err := NewAuthServiceResolver(
		NewAisAuthService(stores.Authorisations, stores.Consents, consents, profile, policy, psu, m, logger),
		NewPisAuthService(models.AuthorisationTypePisCreation, stores.Authorisations, stores.Payments, payments, profile, policy, psu, m, logger),
		NewPisAuthService(models.AuthorisationTypePisCancellation, stores.Authorisations, stores.Payments, payments, profile, policy, psu, m, logger),
	)
	if err != nil {
		return nil, err
	}

	closing := NewAuthorisationClosingService(resolver, stores.Authorisations, policy, m, logger)
	return &Services{
		Consents:       consents,
		Payments:       payments,
		Authorisations: NewAuthorisationService(resolver, closing, stores.Authorisations, policy, m, logger),
		Resolver:       resolver,
	}, nil
}
