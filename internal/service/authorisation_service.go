package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/models"
	"github.com/wso2/psd2-consent-management/pkg/utils"
)

// AuthorisationService is the entry point for authorisation operations of
// every type. It resolves the per-type state machine and runs the closing
// protocol before each creation and update.
type AuthorisationService struct {
	resolver  *AuthServiceResolver
	closing   *AuthorisationClosingService
	authStore AuthorisationStore
	policy    *ExpirationPolicy
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

// NewAuthorisationService creates a new authorisation facade
func NewAuthorisationService(
	resolver *AuthServiceResolver,
	closing *AuthorisationClosingService,
	authStore AuthorisationStore,
	policy *ExpirationPolicy,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *AuthorisationService {
	return &AuthorisationService{
		resolver:  resolver,
		closing:   closing,
		authStore: authStore,
		policy:    policy,
		metrics:   m,
		logger:    logger,
	}
}

// CreateAuthorisation starts an authorisation on a parent that is not finalised.
// Returns nil when the parent is absent or cannot take a new authorisation.
func (s *AuthorisationService) CreateAuthorisation(
	ctx context.Context,
	authType models.AuthorisationType,
	parentID string,
	req *models.CreateAuthorisationRequest,
) (*models.CreateAuthorisationResponse, error) {
	if req.ScaApproach != "" && !req.ScaApproach.IsValid() {
		return nil, utils.NewValidationError("scaApproach", fmt.Sprintf("unknown SCA approach %q", req.ScaApproach))
	}

	svc := s.resolver.Resolve(authType)

	parent, err := svc.GetNotFinalisedParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		s.logger.WithFields(logrus.Fields{
			"parentId": parentID,
			"type":     authType,
		}).Info("Create authorisation failed, because parent was not found or is finalised")
		return nil, nil
	}

	if err := s.closing.CloseByParent(ctx, parentID, authType, req.PsuData); err != nil {
		return nil, err
	}

	auth, err := svc.SaveAuthorisation(ctx, req, parent)
	if err != nil {
		return nil, err
	}

	return &models.CreateAuthorisationResponse{
		AuthorisationID: auth.AuthorisationID,
		ScaStatus:       auth.ScaStatus,
		ParentID:        auth.ParentID,
		PsuData:         auth.PsuData,
		ScaApproach:     auth.ScaApproach,
	}, nil
}

// UpdateAuthorisation applies one state machine step. Returns nil when the
// authorisation is absent; a finalised authorisation is returned unchanged.
func (s *AuthorisationService) UpdateAuthorisation(ctx context.Context, authorisationID string, req *models.UpdateAuthorisationRequest) (*models.Authorisation, error) {
	if !req.ScaStatus.IsValid() {
		return nil, utils.NewValidationError("scaStatus", fmt.Sprintf("unknown SCA status %q", req.ScaStatus))
	}
	if req.ScaStatus == models.ScaStatusScaMethodSelected && strings.TrimSpace(req.AuthenticationMethodID) == "" {
		return nil, utils.NewValidationError("authenticationMethodId", "required when selecting an SCA method")
	}

	auth, err := s.loadAuthorisation(ctx, authorisationID)
	if err != nil || auth == nil {
		return nil, err
	}
	expired, err := s.checkAndFailOnExpiration(ctx, auth)
	if err != nil {
		return nil, err
	}
	if expired {
		return auth, nil
	}

	if err := s.closing.CloseByAuthorisation(ctx, auth, req.PsuData); err != nil {
		return nil, err
	}

	if auth.ScaStatus.IsFinalised() {
		return auth, nil
	}
	return s.resolver.Resolve(auth.Type).DoUpdateAuthorisation(ctx, auth, req)
}

// GetAuthorisationByID returns the authorisation, failing it first when its
// redirect URL or authorisation window has passed
func (s *AuthorisationService) GetAuthorisationByID(ctx context.Context, authorisationID string) (*models.Authorisation, error) {
	auth, err := s.loadAuthorisation(ctx, authorisationID)
	if err != nil || auth == nil {
		return nil, err
	}
	if _, err := s.checkAndFailOnExpiration(ctx, auth); err != nil {
		return nil, err
	}
	return auth, nil
}

// GetAuthorisationsByParentID returns the authorisation ids of the type on the
// parent, after the parent confirmation check. Returns nil when the parent is absent.
func (s *AuthorisationService) GetAuthorisationsByParentID(ctx context.Context, authType models.AuthorisationType, parentID string) ([]string, error) {
	svc := s.resolver.Resolve(authType)

	parent, err := svc.GetParent(ctx, parentID)
	if err != nil || parent == nil {
		return nil, err
	}
	if _, err := svc.CheckAndUpdateOnConfirmationExpiration(ctx, parent); err != nil {
		return nil, err
	}

	auths, err := svc.GetAuthorisationsByParentID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(auths))
	for _, a := range auths {
		ids = append(ids, a.AuthorisationID)
	}
	return ids, nil
}

// GetAuthorisationScaStatus returns the SCA status of an authorisation on the
// parent. An expired parent confirmation reports FAILED.
func (s *AuthorisationService) GetAuthorisationScaStatus(
	ctx context.Context,
	authType models.AuthorisationType,
	parentID, authorisationID string,
) (*models.ScaStatusResponse, error) {
	svc := s.resolver.Resolve(authType)

	parent, err := svc.GetParent(ctx, parentID)
	if err != nil || parent == nil {
		return nil, err
	}

	if svc.IsConfirmationExpired(parent) {
		if _, err := svc.UpdateOnConfirmationExpiration(ctx, parent); err != nil {
			return nil, err
		}
		return &models.ScaStatusResponse{ScaStatus: models.ScaStatusFailed}, nil
	}

	auths, err := svc.GetAuthorisationsByParentID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	for _, a := range auths {
		if a.AuthorisationID == authorisationID {
			if _, err := s.checkAndFailOnExpiration(ctx, a); err != nil {
				return nil, err
			}
			return &models.ScaStatusResponse{ScaStatus: a.ScaStatus}, nil
		}
	}
	return nil, nil
}

// UpdateAuthorisationStatus sets the SCA status directly. A finalised
// authorisation is left unchanged and reported as false.
func (s *AuthorisationService) UpdateAuthorisationStatus(ctx context.Context, authorisationID string, status models.ScaStatus) (bool, error) {
	if !status.IsValid() {
		return false, utils.NewValidationError("scaStatus", fmt.Sprintf("unknown SCA status %q", status))
	}

	auth, err := s.loadAuthorisation(ctx, authorisationID)
	if err != nil || auth == nil {
		return false, err
	}
	if _, err := s.checkAndFailOnExpiration(ctx, auth); err != nil {
		return false, err
	}
	if auth.ScaStatus.IsFinalised() {
		s.logger.WithFields(logrus.Fields{
			"authorisationId": authorisationID,
			"scaStatus":       auth.ScaStatus,
		}).Info("Update authorisation status failed, because authorisation is finalised")
		return false, nil
	}

	auth.ScaStatus = status
	if err := s.save(ctx, auth); err != nil {
		return false, err
	}
	s.metrics.IncrementAuthorisationStatus(string(auth.Type), string(status))
	return true, nil
}

// IsAuthenticationMethodDecoupled reports whether the stored SCA method is decoupled
func (s *AuthorisationService) IsAuthenticationMethodDecoupled(ctx context.Context, authorisationID, methodID string) (bool, error) {
	auth, err := s.loadAuthorisation(ctx, authorisationID)
	if err != nil || auth == nil {
		return false, err
	}
	for _, m := range auth.AvailableScaMethods {
		if m.AuthenticationMethodID == methodID {
			return m.Decoupled, nil
		}
	}
	return false, nil
}

// SaveAuthenticationMethods replaces the available SCA methods when they changed
func (s *AuthorisationService) SaveAuthenticationMethods(ctx context.Context, authorisationID string, methods []models.ScaMethod) (bool, error) {
	auth, err := s.loadAuthorisation(ctx, authorisationID)
	if err != nil || auth == nil {
		return false, err
	}

	if auth.AvailableScaMethods.Equal(methods) {
		return true, nil
	}
	auth.AvailableScaMethods = methods
	if err := s.save(ctx, auth); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateScaApproach sets the SCA approach of the authorisation
func (s *AuthorisationService) UpdateScaApproach(ctx context.Context, authorisationID string, approach models.ScaApproach) (bool, error) {
	if !approach.IsValid() {
		return false, utils.NewValidationError("scaApproach", fmt.Sprintf("unknown SCA approach %q", approach))
	}

	auth, err := s.loadAuthorisation(ctx, authorisationID)
	if err != nil || auth == nil {
		return false, err
	}
	if auth.ScaApproach == approach {
		return true, nil
	}
	auth.ScaApproach = approach
	if err := s.save(ctx, auth); err != nil {
		return false, err
	}
	return true, nil
}

// GetAuthorisationScaApproach returns the SCA approach of the authorisation
func (s *AuthorisationService) GetAuthorisationScaApproach(ctx context.Context, authorisationID string) (*models.ScaApproachResponse, error) {
	auth, err := s.loadAuthorisation(ctx, authorisationID)
	if err != nil || auth == nil {
		return nil, err
	}
	return &models.ScaApproachResponse{ScaApproach: auth.ScaApproach}, nil
}

// VerifyConfirmationCode finalises the authorisation when code matches the
// stored authentication data. A mismatch or an expired authorisation fails it.
func (s *AuthorisationService) VerifyConfirmationCode(ctx context.Context, authorisationID, code string) (bool, error) {
	auth, err := s.loadAuthorisation(ctx, authorisationID)
	if err != nil || auth == nil {
		return false, err
	}
	if auth.ScaStatus.IsFinalised() {
		return false, nil
	}
	if expired, err := s.checkAndFailOnExpiration(ctx, auth); err != nil || expired {
		return false, err
	}

	logger := s.logger.WithField("authorisationId", authorisationID)
	if auth.ScaAuthenticationData == nil || *auth.ScaAuthenticationData != code {
		logger.Info("Confirmation code check failed, because code does not match")
		return false, s.fail(ctx, auth)
	}

	updated, err := s.resolver.Resolve(auth.Type).DoUpdateAuthorisation(ctx, auth, &models.UpdateAuthorisationRequest{
		PsuData:   auth.PsuData.Copy(),
		ScaStatus: models.ScaStatusFinalised,
	})
	if err != nil {
		return false, err
	}
	return updated.ScaStatus == models.ScaStatusFinalised, nil
}

// CheckRedirectAndGetAuthorisation returns the authorisation for the PSU
// redirect flow and whether its redirect URL is still valid. An expired
// redirect fails the authorisation.
func (s *AuthorisationService) CheckRedirectAndGetAuthorisation(ctx context.Context, authorisationID string) (*models.Authorisation, bool, error) {
	auth, err := s.loadAuthorisation(ctx, authorisationID)
	if err != nil || auth == nil {
		return nil, false, err
	}

	if !s.policy.IsDeadlinePassed(auth.RedirectURLExpirationTimestamp) {
		if _, err := s.checkAndFailOnExpiration(ctx, auth); err != nil {
			return nil, false, err
		}
		return auth, true, nil
	}

	s.logger.WithField("authorisationId", authorisationID).Info("Authorisation redirect URL expired")
	if !auth.ScaStatus.IsFinalised() {
		if err := s.fail(ctx, auth); err != nil {
			return nil, false, err
		}
	}
	return auth, false, nil
}

// checkAndFailOnExpiration fails a non-finalised authorisation whose redirect
// URL or authorisation window has passed and reports whether it did
func (s *AuthorisationService) checkAndFailOnExpiration(ctx context.Context, auth *models.Authorisation) (bool, error) {
	if auth.ScaStatus.IsFinalised() {
		return false, nil
	}
	if !s.policy.IsDeadlinePassed(auth.RedirectURLExpirationTimestamp) &&
		!s.policy.IsDeadlinePassed(auth.AuthorisationExpirationTimestamp) {
		return false, nil
	}

	s.logger.WithFields(logrus.Fields{
		"authorisationId": auth.AuthorisationID,
		"scaStatus":       auth.ScaStatus,
	}).Info("Authorisation expired")
	if err := s.fail(ctx, auth); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthorisationService) loadAuthorisation(ctx context.Context, authorisationID string) (*models.Authorisation, error) {
	if err := utils.ValidateAuthorisationID(authorisationID); err != nil {
		return nil, err
	}

	auth, err := s.authStore.GetByID(ctx, authorisationID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve authorisation: %w", err)
	}
	return auth, nil
}

func (s *AuthorisationService) save(ctx context.Context, auth *models.Authorisation) error {
	auth.UpdatedTime = s.policy.NowMillis()
	if err := s.authStore.Update(ctx, auth); err != nil {
		return fmt.Errorf("failed to update authorisation: %w", err)
	}
	return nil
}

func (s *AuthorisationService) fail(ctx context.Context, auth *models.Authorisation) error {
	if err := failAuthorisation(ctx, s.authStore, s.policy, auth); err != nil {
		return err
	}
	s.metrics.IncrementAuthorisationStatus(string(auth.Type), string(models.ScaStatusFailed))
	return nil
}
