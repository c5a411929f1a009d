package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/models"
)

// AisAuthService drives consent authorisations
type AisAuthService struct {
	baseAuthService
	consents     *ConsentService
	consentStore ConsentStore
}

// NewAisAuthService creates the CONSENT authorisation service
func NewAisAuthService(
	authStore AuthorisationStore,
	consentStore ConsentStore,
	consents *ConsentService,
	profile BankProfile,
	policy *ExpirationPolicy,
	psu *PsuService,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *AisAuthService {
	return &AisAuthService{
		baseAuthService: baseAuthService{
			authType:  models.AuthorisationTypeConsent,
			authStore: authStore,
			profile:   profile,
			policy:    policy,
			psu:       psu,
			metrics:   m,
			logger:    logger,
		},
		consents:     consents,
		consentStore: consentStore,
	}
}

// GetNotFinalisedParent returns the consent when it is not finalised after the
// confirmation and validity checks
func (s *AisAuthService) GetNotFinalisedParent(ctx context.Context, parentID string) (models.Authorisable, error) {
	consent, err := s.consents.getActualConsent(ctx, parentID)
	if err != nil || consent == nil {
		return nil, err
	}
	if consent.Status.IsFinalised() {
		return nil, nil
	}
	return consent, nil
}

// GetParent returns the consent regardless of status
func (s *AisAuthService) GetParent(ctx context.Context, parentID string) (models.Authorisable, error) {
	consent, err := s.consents.loadConsent(ctx, parentID)
	if err != nil || consent == nil {
		return nil, err
	}
	return consent, nil
}

// SaveAuthorisation creates a consent authorisation
func (s *AisAuthService) SaveAuthorisation(ctx context.Context, req *models.CreateAuthorisationRequest, parent models.Authorisable) (*models.Authorisation, error) {
	consent, ok := parent.(*models.Consent)
	if !ok {
		return nil, fmt.Errorf("unexpected parent %T for consent authorisation", parent)
	}
	okURI, nokURI := consent.GetRedirectURIs()
	return s.createAuthorisation(ctx, s, req, consent, s.profile.RedirectURLExpiration(), okURI, nokURI, true)
}

// DoUpdateAuthorisation applies one state machine step to a consent authorisation
func (s *AisAuthService) DoUpdateAuthorisation(ctx context.Context, auth *models.Authorisation, req *models.UpdateAuthorisationRequest) (*models.Authorisation, error) {
	return s.updateAuthorisation(ctx, s, auth, req, true)
}

// IsConfirmationExpired reports whether the consent confirmation window closed
func (s *AisAuthService) IsConfirmationExpired(parent models.Authorisable) bool {
	consent, ok := parent.(*models.Consent)
	return ok && s.consents.IsConfirmationExpired(consent)
}

// CheckAndUpdateOnConfirmationExpiration rejects the consent when its confirmation window closed
func (s *AisAuthService) CheckAndUpdateOnConfirmationExpiration(ctx context.Context, parent models.Authorisable) (models.Authorisable, error) {
	consent, ok := parent.(*models.Consent)
	if !ok {
		return parent, nil
	}
	updated, err := s.consents.CheckAndUpdateOnConfirmationExpiration(ctx, consent)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateOnConfirmationExpiration rejects the consent and fails its open authorisations
func (s *AisAuthService) UpdateOnConfirmationExpiration(ctx context.Context, parent models.Authorisable) (models.Authorisable, error) {
	consent, ok := parent.(*models.Consent)
	if !ok {
		return parent, nil
	}
	updated, err := s.consents.UpdateOnConfirmationExpiration(ctx, consent)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *AisAuthService) saveParentPsuData(ctx context.Context, parent models.Authorisable) error {
	consent := parent.(*models.Consent)
	consent.UpdatedTime = s.policy.NowMillis()
	if err := s.consentStore.Update(ctx, consent); err != nil {
		return fmt.Errorf("failed to update consent PSU data: %w", err)
	}
	return nil
}

// onScaStatusChanged moves the consent once an authorisation finalises or fails.
// A finalised authorisation only advances a consent still awaiting authorisation.
func (s *AisAuthService) onScaStatusChanged(ctx context.Context, auth *models.Authorisation) error {
	if auth.ScaStatus != models.ScaStatusFinalised && auth.ScaStatus != models.ScaStatusFailed {
		return nil
	}

	consent, err := s.consents.getActualConsent(ctx, auth.ParentID)
	if err != nil || consent == nil || consent.Status.IsFinalised() {
		return err
	}

	status := models.ConsentStatusRejected
	if auth.ScaStatus == models.ScaStatusFinalised {
		if consent.Status != models.ConsentStatusReceived && consent.Status != models.ConsentStatusPartiallyAuthorised {
			return nil
		}
		status = models.ConsentStatusValid
		if consent.MultilevelScaRequired {
			done, err := s.allPsusFinalised(ctx, consent)
			if err != nil {
				return err
			}
			if !done {
				status = models.ConsentStatusPartiallyAuthorised
			}
		}
	}

	if consent.Status == status {
		return nil
	}
	return s.consents.changeStatus(ctx, consent, status)
}
