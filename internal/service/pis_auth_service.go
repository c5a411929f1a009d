package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/models"
)

// PisAuthService drives payment authorisations. One instance serves payment
// creation, another payment cancellation.
type PisAuthService struct {
	baseAuthService
	payments     *PaymentService
	paymentStore PaymentStore
}

// NewPisAuthService creates the authorisation service for PIS_CREATION or PIS_CANCELLATION
func NewPisAuthService(
	authType models.AuthorisationType,
	authStore AuthorisationStore,
	paymentStore PaymentStore,
	payments *PaymentService,
	profile BankProfile,
	policy *ExpirationPolicy,
	psu *PsuService,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *PisAuthService {
	return &PisAuthService{
		baseAuthService: baseAuthService{
			authType:  authType,
			authStore: authStore,
			profile:   profile,
			policy:    policy,
			psu:       psu,
			metrics:   m,
			logger:    logger,
		},
		payments:     payments,
		paymentStore: paymentStore,
	}
}

func (s *PisAuthService) isCancellation() bool {
	return s.authType == models.AuthorisationTypePisCancellation
}

// GetNotFinalisedParent returns the payment if it can take a new authorisation.
// Creation requires RCVD or PATC after the confirmation check; cancellation
// only requires a payment that is not finalised.
func (s *PisAuthService) GetNotFinalisedParent(ctx context.Context, parentID string) (models.Authorisable, error) {
	payment, err := s.payments.loadPayment(ctx, parentID)
	if err != nil || payment == nil {
		return nil, err
	}

	if s.isCancellation() {
		if payment.TransactionStatus.IsFinalised() {
			return nil, nil
		}
		return payment, nil
	}

	if !payment.TransactionStatus.AcceptsAuthorisation() {
		return nil, nil
	}
	payment, err = s.payments.CheckAndUpdateOnConfirmationExpiration(ctx, payment)
	if err != nil {
		return nil, err
	}
	if !payment.TransactionStatus.AcceptsAuthorisation() {
		return nil, nil
	}
	return payment, nil
}

// GetParent returns the payment regardless of status
func (s *PisAuthService) GetParent(ctx context.Context, parentID string) (models.Authorisable, error) {
	payment, err := s.payments.loadPayment(ctx, parentID)
	if err != nil || payment == nil {
		return nil, err
	}
	return payment, nil
}

// SaveAuthorisation creates a payment authorisation. Cancellation uses its own
// redirect TTL and URIs and does not add the PSU to the payment.
func (s *PisAuthService) SaveAuthorisation(ctx context.Context, req *models.CreateAuthorisationRequest, parent models.Authorisable) (*models.Authorisation, error) {
	payment, ok := parent.(*models.Payment)
	if !ok {
		return nil, fmt.Errorf("unexpected parent %T for payment authorisation", parent)
	}

	if s.isCancellation() {
		okURI, nokURI := payment.GetCancellationRedirectURIs()
		return s.createAuthorisation(ctx, s, req, payment, s.profile.PaymentCancellationRedirectURLExpiration(), okURI, nokURI, false)
	}
	okURI, nokURI := payment.GetRedirectURIs()
	return s.createAuthorisation(ctx, s, req, payment, s.profile.RedirectURLExpiration(), okURI, nokURI, true)
}

// DoUpdateAuthorisation applies one state machine step. Cancellation skips the
// PSU match outside RECEIVED.
func (s *PisAuthService) DoUpdateAuthorisation(ctx context.Context, auth *models.Authorisation, req *models.UpdateAuthorisationRequest) (*models.Authorisation, error) {
	return s.updateAuthorisation(ctx, s, auth, req, !s.isCancellation())
}

// IsConfirmationExpired reports whether the payment confirmation window closed
func (s *PisAuthService) IsConfirmationExpired(parent models.Authorisable) bool {
	payment, ok := parent.(*models.Payment)
	return ok && s.payments.IsConfirmationExpired(payment)
}

// CheckAndUpdateOnConfirmationExpiration rejects the payment when its confirmation window closed
func (s *PisAuthService) CheckAndUpdateOnConfirmationExpiration(ctx context.Context, parent models.Authorisable) (models.Authorisable, error) {
	payment, ok := parent.(*models.Payment)
	if !ok {
		return parent, nil
	}
	updated, err := s.payments.CheckAndUpdateOnConfirmationExpiration(ctx, payment)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateOnConfirmationExpiration rejects the payment and fails its open authorisations
func (s *PisAuthService) UpdateOnConfirmationExpiration(ctx context.Context, parent models.Authorisable) (models.Authorisable, error) {
	payment, ok := parent.(*models.Payment)
	if !ok {
		return parent, nil
	}
	updated, err := s.payments.UpdateOnConfirmationExpiration(ctx, payment)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PisAuthService) saveParentPsuData(ctx context.Context, parent models.Authorisable) error {
	payment := parent.(*models.Payment)
	payment.UpdatedTime = s.policy.NowMillis()
	if err := s.paymentStore.Update(ctx, payment); err != nil {
		return fmt.Errorf("failed to update payment PSU data: %w", err)
	}
	return nil
}

// onScaStatusChanged moves the payment once an authorisation finalises or fails.
// A finalised creation authorisation only advances a payment in RCVD or PATC.
func (s *PisAuthService) onScaStatusChanged(ctx context.Context, auth *models.Authorisation) error {
	if auth.ScaStatus != models.ScaStatusFinalised && auth.ScaStatus != models.ScaStatusFailed {
		return nil
	}

	payment, err := s.payments.loadPayment(ctx, auth.ParentID)
	if err != nil || payment == nil || payment.TransactionStatus.IsFinalised() {
		return err
	}

	var status models.TransactionStatus
	switch {
	case s.isCancellation() && auth.ScaStatus == models.ScaStatusFinalised:
		status = models.TransactionStatusCANC
	case s.isCancellation():
		return nil
	case auth.ScaStatus == models.ScaStatusFailed:
		status = models.TransactionStatusRJCT
	case !payment.TransactionStatus.AcceptsAuthorisation():
		return nil
	default:
		status = models.TransactionStatusACTC
		if payment.MultilevelScaRequired {
			done, err := s.allPsusFinalised(ctx, payment)
			if err != nil {
				return err
			}
			if !done {
				status = models.TransactionStatusPATC
			}
		}
	}

	if payment.TransactionStatus == status {
		return nil
	}
	return s.payments.changeStatus(ctx, payment, status)
}
