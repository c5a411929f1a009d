package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/models"
	"github.com/wso2/psd2-consent-management/pkg/utils"
)

var oldConsentStatuses = []models.ConsentStatus{
	models.ConsentStatusReceived,
	models.ConsentStatusPartiallyAuthorised,
	models.ConsentStatusValid,
}

// ConsentService handles the consent lifecycle: status transitions, usage
// counting and the lazy expiration checks run on every read
type ConsentService struct {
	consentStore ConsentStore
	authStore    AuthorisationStore
	actions      ActionLogger
	profile      BankProfile
	policy       *ExpirationPolicy
	psu          *PsuService
	metrics      *metrics.Metrics
	logger       *logrus.Logger
}

// NewConsentService creates a new consent service instance
func NewConsentService(
	consentStore ConsentStore,
	authStore AuthorisationStore,
	actions ActionLogger,
	profile BankProfile,
	policy *ExpirationPolicy,
	psu *PsuService,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *ConsentService {
	return &ConsentService{
		consentStore: consentStore,
		authStore:    authStore,
		actions:      actions,
		profile:      profile,
		policy:       policy,
		psu:          psu,
		metrics:      m,
		logger:       logger,
	}
}

// CreateConsent creates a consent in RECEIVED status
func (s *ConsentService) CreateConsent(ctx context.Context, req *models.CreateConsentRequest) (*models.CreateConsentResponse, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	now := s.policy.Now()
	nowMillis := utils.TimeToMillis(now)
	frequency := s.profile.MinFrequencyPerDay(req.FrequencyPerDay)

	consentType := req.ConsentType
	if consentType == "" {
		consentType = models.ConsentTypeAIS
	}

	// Clamp validUntil to the bank's maximum consent lifetime
	validUntil := req.ValidUntil
	if lifetime := s.profile.ConsentLifetimeDays(); lifetime > 0 && consentType == models.ConsentTypeAIS {
		validUntil = utils.EarlierDate(validUntil, utils.AddDays(now, lifetime-1))
	}

	psuList := make(models.PsuDataList, 0, len(req.PsuData))
	for i := range req.PsuData {
		if s.psu.IsPsuDataNew(&req.PsuData[i], psuList) {
			psuList = append(psuList, req.PsuData[i])
		}
	}

	consent := &models.Consent{
		ConsentID:                utils.GenerateConsentID(),
		ConsentType:              consentType,
		Status:                   models.ConsentStatusReceived,
		ValidUntil:               validUntil,
		ExpectedFrequencyPerDay:  frequency,
		TppFrequencyPerDay:       req.FrequencyPerDay,
		UsageCounter:             frequency,
		RecurringIndicator:       req.RecurringIndicator,
		CombinedServiceIndicator: req.CombinedServiceIndicator,
		TppID:                    req.TppID,
		InstanceID:               req.InstanceID,
		PsuDataList:              psuList,
		AccessScope:              req.Access,
		AspspPayload:             req.AspspPayload,
		TppRedirectURI:           req.TppRedirectURI,
		TppNokRedirectURI:        req.TppNokRedirectURI,
		CreatedTime:              nowMillis,
		StatusChangeTime:         nowMillis,
		UpdatedTime:              nowMillis,
	}

	if err := s.consentStore.Create(ctx, consent); err != nil {
		return nil, fmt.Errorf("failed to create consent: %w", err)
	}
	s.metrics.IncrementConsentStatus(string(consent.Status))

	s.logger.WithFields(logrus.Fields{
		"consentId":       consent.ConsentID,
		"tppId":           consent.TppID,
		"frequencyPerDay": frequency,
	}).Info("Consent created")

	return &models.CreateConsentResponse{
		ConsentID: consent.ConsentID,
		Status:    consent.Status,
	}, nil
}

// GetConsent returns the consent after applying the lazy expiration checks.
// Returns nil when the consent does not exist.
func (s *ConsentService) GetConsent(ctx context.Context, consentID string) (*models.Consent, error) {
	if err := utils.ValidateConsentID(consentID); err != nil {
		return nil, err
	}
	return s.getActualConsent(ctx, consentID)
}

// GetConsentStatus returns the consent status after the lazy expiration checks
func (s *ConsentService) GetConsentStatus(ctx context.Context, consentID string) (*models.ConsentStatusResponse, error) {
	consent, err := s.GetConsent(ctx, consentID)
	if err != nil || consent == nil {
		return nil, err
	}
	return &models.ConsentStatusResponse{ConsentStatus: consent.Status}, nil
}

// UpdateConsentStatus moves a RECEIVED or VALID consent to status. Returns
// false when the consent is absent or no longer in an updatable status.
func (s *ConsentService) UpdateConsentStatus(ctx context.Context, consentID string, status models.ConsentStatus) (bool, error) {
	if !status.IsValid() {
		return false, utils.NewValidationError("status", fmt.Sprintf("unknown consent status %q", status))
	}

	consent, err := s.GetConsent(ctx, consentID)
	if err != nil || consent == nil {
		return false, err
	}

	if !isActiveConsent(consent) {
		s.logger.WithFields(logrus.Fields{
			"consentId":     consentID,
			"consentStatus": consent.Status,
		}).Info("Update consent status failed, because consent is not in an updatable status")
		return false, nil
	}

	if err := s.changeStatus(ctx, consent, status); err != nil {
		return false, err
	}
	return consent.Status == status, nil
}

// CheckAndLogUsage decrements the daily usage counter of a VALID consent and
// appends a consent action. A missing consent is logged as BAD_PAYLOAD.
func (s *ConsentService) CheckAndLogUsage(ctx context.Context, consentID string, req *models.ConsentUsageRequest) error {
	consent, err := s.getActualConsent(ctx, consentID)
	if err != nil {
		return err
	}

	actionStatus := req.ActionStatus
	if actionStatus == "" {
		actionStatus = models.ActionStatusSuccess
	}

	if consent == nil {
		actionStatus = models.ActionStatusBadPayload
	} else if consent.HasUsagesAvailable() {
		consent.UsageCounter--
		consent.LastActionDate = strPtr(s.policy.Today())
		consent.UpdatedTime = s.policy.NowMillis()
		if err := s.consentStore.Update(ctx, consent); err != nil {
			return fmt.Errorf("failed to update consent usage: %w", err)
		}
		s.metrics.IncrementUsageDecrement()
	}

	s.logAction(ctx, consentID, req.TppID, actionStatus)
	return nil
}

// UpdateAccess replaces the access scope of a RECEIVED or VALID consent.
// Returns the consent id, or an empty string when nothing was updated.
func (s *ConsentService) UpdateAccess(ctx context.Context, consentID string, access models.AccountAccess) (string, error) {
	consent, err := s.GetConsent(ctx, consentID)
	if err != nil || consent == nil {
		return "", err
	}

	if !isActiveConsent(consent) {
		s.logger.WithFields(logrus.Fields{
			"consentId":     consentID,
			"consentStatus": consent.Status,
		}).Info("Update consent access failed, because consent is not in an updatable status")
		return "", nil
	}

	consent.AccessScope = access
	consent.UpdatedTime = s.policy.NowMillis()
	if err := s.consentStore.Update(ctx, consent); err != nil {
		return "", fmt.Errorf("failed to update consent access: %w", err)
	}
	return consent.ConsentID, nil
}

// UpdateMultilevelScaRequired sets the multilevel SCA flag. Returns false when the consent is absent.
func (s *ConsentService) UpdateMultilevelScaRequired(ctx context.Context, consentID string, required bool) (bool, error) {
	consent, err := s.loadConsent(ctx, consentID)
	if err != nil || consent == nil {
		return false, err
	}

	consent.MultilevelScaRequired = required
	consent.UpdatedTime = s.policy.NowMillis()
	if err := s.consentStore.Update(ctx, consent); err != nil {
		return false, fmt.Errorf("failed to update multilevel sca flag: %w", err)
	}
	return true, nil
}

// GetPsuDataByConsentID returns the PSUs bound to the consent, nil when it is absent
func (s *ConsentService) GetPsuDataByConsentID(ctx context.Context, consentID string) (models.PsuDataList, error) {
	consent, err := s.loadConsent(ctx, consentID)
	if err != nil || consent == nil {
		return nil, err
	}
	if consent.PsuDataList == nil {
		return models.PsuDataList{}, nil
	}
	return consent.PsuDataList, nil
}

// FindAndTerminateOldConsents closes older recurring consents issued to the same
// TPP for exactly the same PSUs. Returns whether any consent was terminated.
func (s *ConsentService) FindAndTerminateOldConsents(ctx context.Context, newConsentID string) (bool, error) {
	consent, err := s.loadConsent(ctx, newConsentID)
	if err != nil || consent == nil {
		return false, err
	}

	if consent.IsOneAccessType() {
		return false, nil
	}
	if len(consent.PsuDataList) == 0 || consent.TppID == "" {
		return false, utils.NewValidationError("consentId", "consent has no PSU or TPP data")
	}

	candidates, err := s.consentStore.FindOldConsents(ctx, consent.TppID, consent.InstanceID, consent.ConsentID, oldConsentStatuses)
	if err != nil {
		return false, fmt.Errorf("failed to find old consents: %w", err)
	}

	nowMillis := s.policy.NowMillis()
	var terminated []*models.Consent
	for _, old := range candidates {
		if !s.psu.IsPsuDataListEqual(old.PsuDataList, consent.PsuDataList) {
			continue
		}
		if old.Status == models.ConsentStatusReceived || old.Status == models.ConsentStatusPartiallyAuthorised {
			old.Status = models.ConsentStatusRejected
		} else {
			old.Status = models.ConsentStatusTerminatedByTpp
		}
		old.StatusChangeTime = nowMillis
		old.UpdatedTime = nowMillis
		terminated = append(terminated, old)
	}

	if len(terminated) == 0 {
		return false, nil
	}

	if err := s.consentStore.UpdateAll(ctx, terminated); err != nil {
		return false, fmt.Errorf("failed to terminate old consents: %w", err)
	}
	for _, old := range terminated {
		s.metrics.IncrementConsentStatus(string(old.Status))
	}

	s.logger.WithFields(logrus.Fields{
		"consentId":  newConsentID,
		"terminated": len(terminated),
	}).Info("Old consents terminated")
	return true, nil
}

// ExportConsentsByTpp returns all consents issued to the TPP
func (s *ConsentService) ExportConsentsByTpp(ctx context.Context, tppID string) ([]*models.Consent, error) {
	tppID = utils.SanitizeString(tppID)
	if err := utils.ValidateTppID(tppID); err != nil {
		return nil, err
	}
	consents, err := s.consentStore.FindByTppID(ctx, tppID)
	if err != nil {
		return nil, fmt.Errorf("failed to export consents: %w", err)
	}
	return consents, nil
}

// ExportConsentsByPsu returns all consents bound to the PSU
func (s *ConsentService) ExportConsentsByPsu(ctx context.Context, psuID string) ([]*models.Consent, error) {
	psuID = utils.SanitizeString(psuID)
	if err := utils.ValidateRequired("psuId", psuID); err != nil {
		return nil, err
	}
	consents, err := s.consentStore.FindByPsuID(ctx, psuID)
	if err != nil {
		return nil, fmt.Errorf("failed to export consents: %w", err)
	}
	return consents, nil
}

// IsConfirmationExpired reports whether an unconfirmed consent outlived its confirmation window
func (s *ConsentService) IsConfirmationExpired(consent *models.Consent) bool {
	if consent == nil {
		return false
	}
	if consent.Status != models.ConsentStatusReceived && consent.Status != models.ConsentStatusPartiallyAuthorised {
		return false
	}
	return s.policy.IsConfirmationWindowClosed(consent.CreatedTime, s.profile.NotConfirmedConsentExpiration())
}

// CheckAndUpdateOnConfirmationExpiration rejects the consent when its confirmation window closed
func (s *ConsentService) CheckAndUpdateOnConfirmationExpiration(ctx context.Context, consent *models.Consent) (*models.Consent, error) {
	if !s.IsConfirmationExpired(consent) {
		return consent, nil
	}
	return s.UpdateOnConfirmationExpiration(ctx, consent)
}

// UpdateOnConfirmationExpiration rejects the consent and fails its open authorisations
func (s *ConsentService) UpdateOnConfirmationExpiration(ctx context.Context, consent *models.Consent) (*models.Consent, error) {
	s.logger.WithField("consentId", consent.ConsentID).Info("Consent confirmation expired")

	if err := s.changeStatus(ctx, consent, models.ConsentStatusRejected); err != nil {
		return nil, err
	}
	if err := failOpenAuthorisations(ctx, s.authStore, s.policy, s.metrics, consent.ConsentID, models.AuthorisationTypeConsent); err != nil {
		return nil, err
	}
	s.metrics.IncrementConfirmationExpiration("consent")
	return consent, nil
}

// getActualConsent loads the consent and applies confirmation and validity expiration
func (s *ConsentService) getActualConsent(ctx context.Context, consentID string) (*models.Consent, error) {
	consent, err := s.loadConsent(ctx, consentID)
	if err != nil || consent == nil {
		return nil, err
	}

	consent, err = s.CheckAndUpdateOnConfirmationExpiration(ctx, consent)
	if err != nil {
		return nil, err
	}
	return s.checkAndUpdateOnExpiration(ctx, consent)
}

func (s *ConsentService) checkAndUpdateOnExpiration(ctx context.Context, consent *models.Consent) (*models.Consent, error) {
	if consent.Status.IsFinalised() || !s.policy.IsDateBeforeToday(consent.ValidUntil) {
		return consent, nil
	}

	s.logger.WithFields(logrus.Fields{
		"consentId":  consent.ConsentID,
		"validUntil": consent.ValidUntil,
	}).Info("Consent expired")

	if err := s.changeStatus(ctx, consent, models.ConsentStatusExpired); err != nil {
		return nil, err
	}
	return consent, nil
}

// changeStatus persists a status transition and stamps lastActionDate
func (s *ConsentService) changeStatus(ctx context.Context, consent *models.Consent, status models.ConsentStatus) error {
	nowMillis := s.policy.NowMillis()
	consent.Status = status
	consent.LastActionDate = strPtr(s.policy.Today())
	consent.StatusChangeTime = nowMillis
	consent.UpdatedTime = nowMillis

	if err := s.consentStore.Update(ctx, consent); err != nil {
		return fmt.Errorf("failed to update consent status: %w", err)
	}
	s.metrics.IncrementConsentStatus(string(status))
	return nil
}

func (s *ConsentService) loadConsent(ctx context.Context, consentID string) (*models.Consent, error) {
	consent, err := s.consentStore.GetByID(ctx, consentID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve consent: %w", err)
	}
	return consent, nil
}

func (s *ConsentService) logAction(ctx context.Context, consentID, tppID string, status models.ActionStatus) {
	nowMillis := s.policy.NowMillis()
	action := &models.ConsentAction{
		ActionID:           utils.GenerateActionID(),
		RequestedConsentID: consentID,
		ActionStatus:       status,
		TppID:              tppID,
		RequestDate:        s.policy.Today(),
		CreatedTime:        nowMillis,
	}
	s.metrics.IncrementConsentAction(string(status))

	if s.actions == nil {
		return
	}
	if err := s.actions.Append(ctx, action); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"consentId":    consentID,
			"actionStatus": status,
		}).Warn("Failed to log consent action")
	}
}

func (s *ConsentService) validateCreateRequest(req *models.CreateConsentRequest) error {
	if req == nil {
		return utils.NewValidationError("request", "request body is required")
	}
	if err := utils.ValidateTppID(req.TppID); err != nil {
		return err
	}
	if err := utils.ValidateDate("validUntil", req.ValidUntil); err != nil {
		return err
	}
	if req.ConsentType != "" {
		if err := utils.ValidateOneOf("consentType", string(req.ConsentType),
			string(models.ConsentTypeAIS), string(models.ConsentTypePIIS)); err != nil {
			return err
		}
	}
	return nil
}

func isActiveConsent(consent *models.Consent) bool {
	return consent.Status == models.ConsentStatusReceived || consent.Status == models.ConsentStatusValid
}

func strPtr(s string) *string {
	return &s
}
