package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/models"
)

// AuthorisationClosingService fails the stale authorisations a PSU left behind
// when a newer authorisation becomes active for the same parent.
//
// The lookup and the updates are not atomic: two authorisations created
// concurrently for the same PSU may both survive.
type AuthorisationClosingService struct {
	resolver  *AuthServiceResolver
	authStore AuthorisationStore
	policy    *ExpirationPolicy
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

// NewAuthorisationClosingService creates a new closing service
func NewAuthorisationClosingService(
	resolver *AuthServiceResolver,
	authStore AuthorisationStore,
	policy *ExpirationPolicy,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *AuthorisationClosingService {
	return &AuthorisationClosingService{
		resolver:  resolver,
		authStore: authStore,
		policy:    policy,
		metrics:   m,
		logger:    logger,
	}
}

// CloseByAuthorisation fails the other authorisations of auth's parent that belong to psu
func (s *AuthorisationClosingService) CloseByAuthorisation(ctx context.Context, auth *models.Authorisation, psu *models.PsuData) error {
	return s.closePrevious(ctx, auth.ParentID, auth.Type, auth.AuthorisationID, psu)
}

// CloseByParent fails every authorisation of the type on the parent that belongs to psu
func (s *AuthorisationClosingService) CloseByParent(ctx context.Context, parentID string, authType models.AuthorisationType, psu *models.PsuData) error {
	return s.closePrevious(ctx, parentID, authType, "", psu)
}

func (s *AuthorisationClosingService) closePrevious(ctx context.Context, parentID string, authType models.AuthorisationType, excludeID string, psu *models.PsuData) error {
	if psu.IsEmpty() {
		s.logger.WithField("parentId", parentID).Debug("Close previous authorisations skipped, because PSU data is empty")
		return nil
	}

	auths, err := s.resolver.Resolve(authType).GetAuthorisationsByParentID(ctx, parentID)
	if err != nil {
		return err
	}

	closed := 0
	for _, a := range auths {
		if a.AuthorisationID == excludeID || a.Type != authType || a.ScaStatus.IsFinalised() {
			continue
		}
		if a.PsuData == nil || !a.PsuData.ContentEquals(psu) {
			continue
		}
		if err := failAuthorisation(ctx, s.authStore, s.policy, a); err != nil {
			return err
		}
		closed++
	}

	if closed > 0 {
		s.metrics.AddAuthorisationsClosed(string(authType), closed)
		s.logger.WithFields(logrus.Fields{
			"parentId": parentID,
			"type":     authType,
			"closed":   closed,
		}).Info("Previous authorisations closed")
	}
	return nil
}

// failAuthorisation marks the authorisation FAILED and expires its redirect URL
func failAuthorisation(ctx context.Context, store AuthorisationStore, policy *ExpirationPolicy, auth *models.Authorisation) error {
	nowMillis := policy.NowMillis()
	auth.ScaStatus = models.ScaStatusFailed
	auth.RedirectURLExpirationTimestamp = nowMillis
	auth.UpdatedTime = nowMillis
	if err := store.Update(ctx, auth); err != nil {
		return fmt.Errorf("failed to fail authorisation %s: %w", auth.AuthorisationID, err)
	}
	return nil
}

// failOpenAuthorisations fails every non-finalised authorisation of the given types on a parent
func failOpenAuthorisations(
	ctx context.Context,
	store AuthorisationStore,
	policy *ExpirationPolicy,
	m *metrics.Metrics,
	parentID string,
	types ...models.AuthorisationType,
) error {
	for _, authType := range types {
		auths, err := store.GetByParentID(ctx, parentID, authType)
		if err != nil {
			return fmt.Errorf("failed to retrieve authorisations: %w", err)
		}
		for _, a := range auths {
			if a.ScaStatus.IsFinalised() {
				continue
			}
			if err := failAuthorisation(ctx, store, policy, a); err != nil {
				return err
			}
			m.IncrementAuthorisationStatus(string(authType), string(models.ScaStatusFailed))
		}
	}
	return nil
}
