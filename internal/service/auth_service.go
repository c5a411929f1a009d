package service

//go:generate mockgen -source=auth_service.go -destination=mocks/mock_auth_service.go -package=mocks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/models"
	"github.com/wso2/psd2-consent-management/pkg/utils"
)

// AuthService is the authorisation state machine for one parent kind
type AuthService interface {
	Type() models.AuthorisationType
	// GetNotFinalisedParent returns the parent if it may still receive authorisations
	GetNotFinalisedParent(ctx context.Context, parentID string) (models.Authorisable, error)
	GetParent(ctx context.Context, parentID string) (models.Authorisable, error)
	GetAuthorisationsByParentID(ctx context.Context, parentID string) ([]*models.Authorisation, error)
	GetAuthorisationByID(ctx context.Context, authorisationID string) (*models.Authorisation, error)
	SaveAuthorisation(ctx context.Context, req *models.CreateAuthorisationRequest, parent models.Authorisable) (*models.Authorisation, error)
	DoUpdateAuthorisation(ctx context.Context, auth *models.Authorisation, req *models.UpdateAuthorisationRequest) (*models.Authorisation, error)
	IsConfirmationExpired(parent models.Authorisable) bool
	CheckAndUpdateOnConfirmationExpiration(ctx context.Context, parent models.Authorisable) (models.Authorisable, error)
	UpdateOnConfirmationExpiration(ctx context.Context, parent models.Authorisable) (models.Authorisable, error)
}

// baseAuthService holds the authorisation bookkeeping shared by every parent kind
type baseAuthService struct {
	authType  models.AuthorisationType
	authStore AuthorisationStore
	profile   BankProfile
	policy    *ExpirationPolicy
	psu       *PsuService
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

// Type returns the authorisation type served
func (b *baseAuthService) Type() models.AuthorisationType {
	return b.authType
}

// GetAuthorisationsByParentID returns the parent's authorisations of this type
func (b *baseAuthService) GetAuthorisationsByParentID(ctx context.Context, parentID string) ([]*models.Authorisation, error) {
	auths, err := b.authStore.GetByParentID(ctx, parentID, b.authType)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve authorisations: %w", err)
	}
	return auths, nil
}

// GetAuthorisationByID returns the authorisation when it exists and has this type
func (b *baseAuthService) GetAuthorisationByID(ctx context.Context, authorisationID string) (*models.Authorisation, error) {
	auth, err := b.authStore.GetByID(ctx, authorisationID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve authorisation: %w", err)
	}
	if auth.Type != b.authType {
		return nil, nil
	}
	return auth, nil
}

// createAuthorisation builds and persists a new authorisation for parent.
// When enrich is set, a newly seen PSU is added to the parent's PSU list.
func (b *baseAuthService) createAuthorisation(
	ctx context.Context,
	hooks parentHooks,
	req *models.CreateAuthorisationRequest,
	parent models.Authorisable,
	redirectTTL time.Duration,
	okURI, nokURI string,
	enrich bool,
) (*models.Authorisation, error) {
	nowMillis := b.policy.NowMillis()
	auth := &models.Authorisation{
		AuthorisationID:                  utils.GenerateAuthorisationID(),
		ParentID:                         parent.GetExternalID(),
		Type:                             b.authType,
		ScaStatus:                        models.ScaStatusReceived,
		ScaApproach:                      req.ScaApproach,
		RedirectURLExpirationTimestamp:   b.policy.Deadline(redirectTTL),
		AuthorisationExpirationTimestamp: b.policy.Deadline(b.profile.AuthorisationExpiration()),
		TppOkRedirectURI:                 optionalString(defaultIfBlank(req.TppRedirectURIs.URI, okURI)),
		TppNokRedirectURI:                optionalString(defaultIfBlank(req.TppRedirectURIs.NokURI, nokURI)),
		CreatedTime:                      nowMillis,
		UpdatedTime:                      nowMillis,
	}
	if auth.ScaApproach == "" {
		auth.ScaApproach = models.ScaApproachRedirect
	}

	if psu := b.psu.DefinePsuDataForAuthorisation(req.PsuData, parent.GetPsuDataList()); psu != nil {
		if enrich && b.psu.IsPsuDataNew(psu, parent.GetPsuDataList()) {
			parent.SetPsuDataList(b.psu.EnrichPsuData(psu, parent.GetPsuDataList()))
			if err := hooks.saveParentPsuData(ctx, parent); err != nil {
				return nil, err
			}
		}
		auth.PsuData = psu
		auth.ScaStatus = models.ScaStatusPsuIdentified
	}

	if err := b.authStore.Create(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to create authorisation: %w", err)
	}
	b.metrics.IncrementAuthorisationStatus(string(auth.Type), string(auth.ScaStatus))

	b.logger.WithFields(logrus.Fields{
		"authorisationId": auth.AuthorisationID,
		"parentId":        auth.ParentID,
		"type":            auth.Type,
		"scaStatus":       auth.ScaStatus,
	}).Info("Authorisation created")
	return auth, nil
}

// updateAuthorisation applies one step of the SCA state machine. Guard
// failures leave the authorisation unchanged and return it as is.
func (b *baseAuthService) updateAuthorisation(
	ctx context.Context,
	hooks parentHooks,
	auth *models.Authorisation,
	req *models.UpdateAuthorisationRequest,
	checkPsu bool,
) (*models.Authorisation, error) {
	if auth.ScaStatus.IsFinalised() {
		return auth, nil
	}

	logger := b.logger.WithFields(logrus.Fields{
		"authorisationId": auth.AuthorisationID,
		"scaStatus":       auth.ScaStatus,
	})

	if auth.ScaStatus == models.ScaStatusReceived {
		if !b.psu.IsPsuDataRequestCorrect(req.PsuData, auth.PsuData) {
			logger.Info("Update authorisation failed, because PSU data request does not match stored PSU data")
			return auth, nil
		}

		parent, err := hooks.GetParent(ctx, auth.ParentID)
		if err != nil {
			return nil, err
		}
		if parent != nil {
			if psu := b.psu.DefinePsuDataForAuthorisation(req.PsuData, parent.GetPsuDataList()); psu != nil {
				if b.psu.IsPsuDataNew(psu, parent.GetPsuDataList()) {
					parent.SetPsuDataList(b.psu.EnrichPsuData(psu, parent.GetPsuDataList()))
					if err := hooks.saveParentPsuData(ctx, parent); err != nil {
						return nil, err
					}
				}
				auth.PsuData = psu
			}
		}
	} else if checkPsu {
		if auth.PsuData == nil || req.PsuData == nil || !auth.PsuData.ContentEquals(req.PsuData) {
			logger.Info("Update authorisation failed, because PSU data request does not match stored PSU data")
			return auth, nil
		}
	}

	if req.ScaStatus == models.ScaStatusScaMethodSelected {
		auth.ChosenScaMethod = strPtr(req.AuthenticationMethodID)
	}
	if req.ScaAuthenticationData != "" {
		auth.ScaAuthenticationData = strPtr(req.ScaAuthenticationData)
	}
	if req.ScaApproach.IsValid() {
		auth.ScaApproach = req.ScaApproach
	}

	if err := b.setScaStatus(ctx, hooks, auth, req.ScaStatus); err != nil {
		return nil, err
	}
	return auth, nil
}

// setScaStatus persists a status change and propagates it to the parent
func (b *baseAuthService) setScaStatus(ctx context.Context, hooks parentHooks, auth *models.Authorisation, status models.ScaStatus) error {
	auth.ScaStatus = status
	auth.UpdatedTime = b.policy.NowMillis()
	if err := b.authStore.Update(ctx, auth); err != nil {
		return fmt.Errorf("failed to update authorisation: %w", err)
	}
	b.metrics.IncrementAuthorisationStatus(string(auth.Type), string(status))

	b.logger.WithFields(logrus.Fields{
		"authorisationId": auth.AuthorisationID,
		"parentId":        auth.ParentID,
		"scaStatus":       status,
	}).Debug("Authorisation status updated")

	return hooks.onScaStatusChanged(ctx, auth)
}

// allPsusFinalised reports whether every PSU of the parent holds a FINALISED
// authorisation of this type
func (b *baseAuthService) allPsusFinalised(ctx context.Context, parent models.Authorisable) (bool, error) {
	auths, err := b.GetAuthorisationsByParentID(ctx, parent.GetExternalID())
	if err != nil {
		return false, err
	}

	psus := parent.GetPsuDataList()
	for i := range psus {
		finalised := false
		for _, a := range auths {
			if a.ScaStatus == models.ScaStatusFinalised && a.PsuData.ContentEquals(&psus[i]) {
				finalised = true
				break
			}
		}
		if !finalised {
			return false, nil
		}
	}
	return true, nil
}

func defaultIfBlank(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
