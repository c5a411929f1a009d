package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/wso2/psd2-consent-management/internal/dao"
	"github.com/wso2/psd2-consent-management/internal/models"
	"github.com/wso2/psd2-consent-management/internal/service/mocks"
	"github.com/wso2/psd2-consent-management/pkg/utils"
)

type ConsentServiceTestSuite struct {
	suite.Suite
	h   *harness
	ctx context.Context
}

func TestConsentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ConsentServiceTestSuite))
}

func (s *ConsentServiceTestSuite) SetupTest() {
	s.h = newHarness(s.T())
	s.ctx = context.Background()
}

func (s *ConsentServiceTestSuite) createConsent(frequency int, validUntil string, psus ...*models.PsuData) string {
	req := &models.CreateConsentRequest{
		ValidUntil:         validUntil,
		FrequencyPerDay:    frequency,
		RecurringIndicator: true,
		TppID:              "tpp-1",
	}
	for _, p := range psus {
		req.PsuData = append(req.PsuData, *p)
	}
	resp, err := s.h.consents.CreateConsent(s.ctx, req)
	s.Require().NoError(err)
	s.Require().Equal(models.ConsentStatusReceived, resp.Status)
	return resp.ConsentID
}

func (s *ConsentServiceTestSuite) nextMonth() string {
	return utils.AddDays(s.h.clock.now, 30)
}

func (s *ConsentServiceTestSuite) status(consentID string) models.ConsentStatus {
	resp, err := s.h.consents.GetConsentStatus(s.ctx, consentID)
	s.Require().NoError(err)
	s.Require().NotNil(resp)
	return resp.ConsentStatus
}

func (s *ConsentServiceTestSuite) TestCreateConsent_FrequencyCappedByBankFloor() {
	tests := []struct {
		requested int
		expected  int
	}{
		{4, 4},
		{10, 4},
		{2, 2},
		{-3, 3},
	}

	for _, tt := range tests {
		id := s.createConsent(tt.requested, s.nextMonth())
		consent, err := s.h.consents.GetConsent(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(tt.expected, consent.ExpectedFrequencyPerDay)
		s.Equal(tt.expected, consent.UsageCounter)
		s.Equal(tt.requested, consent.TppFrequencyPerDay)
	}
}

func (s *ConsentServiceTestSuite) TestCreateConsent_ValidUntilClampedToLifetime() {
	id := s.createConsent(4, "2099-01-01")

	consent, err := s.h.consents.GetConsent(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(utils.AddDays(s.h.clock.now, 89), consent.ValidUntil)
}

func (s *ConsentServiceTestSuite) TestCreateConsent_Validation() {
	_, err := s.h.consents.CreateConsent(s.ctx, &models.CreateConsentRequest{ValidUntil: "2026-04-01"})
	s.True(utils.IsValidationError(err))

	_, err = s.h.consents.CreateConsent(s.ctx, &models.CreateConsentRequest{TppID: "tpp", ValidUntil: "01/04/2026"})
	s.True(utils.IsValidationError(err))

	_, err = s.h.consents.CreateConsent(s.ctx, &models.CreateConsentRequest{TppID: "tpp", ValidUntil: "2026-04-01", ConsentType: "PIS"})
	s.True(utils.IsValidationError(err))
}

func (s *ConsentServiceTestSuite) TestGetConsentStatus_Absent() {
	resp, err := s.h.consents.GetConsentStatus(s.ctx, "CONSENT-missing")
	s.NoError(err)
	s.Nil(resp)
}

func (s *ConsentServiceTestSuite) TestUpdateConsentStatus_FinalisedStatusIsTerminal() {
	id := s.createConsent(4, s.nextMonth())

	ok, err := s.h.consents.UpdateConsentStatus(s.ctx, id, models.ConsentStatusValid)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.h.consents.UpdateConsentStatus(s.ctx, id, models.ConsentStatusRevokedByPsu)
	s.Require().NoError(err)
	s.True(ok)

	for _, next := range []models.ConsentStatus{models.ConsentStatusValid, models.ConsentStatusReceived, models.ConsentStatusExpired} {
		ok, err = s.h.consents.UpdateConsentStatus(s.ctx, id, next)
		s.Require().NoError(err)
		s.False(ok)
		s.Equal(models.ConsentStatusRevokedByPsu, s.status(id))
	}

	consent, err := s.h.consents.GetConsent(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(consent.LastActionDate)
	s.Equal(s.h.today(), *consent.LastActionDate)
}

func (s *ConsentServiceTestSuite) TestUpdateConsentStatus_UnknownStatus() {
	id := s.createConsent(4, s.nextMonth())
	ok, err := s.h.consents.UpdateConsentStatus(s.ctx, id, "ACTIVE")
	s.False(ok)
	s.True(utils.IsValidationError(err))
}

func (s *ConsentServiceTestSuite) TestCheckAndLogUsage_CounterRoundTrip() {
	id := s.createConsent(4, s.nextMonth())
	_, err := s.h.consents.UpdateConsentStatus(s.ctx, id, models.ConsentStatusValid)
	s.Require().NoError(err)

	req := &models.ConsentUsageRequest{TppID: "tpp-1"}
	for i := 3; i >= 0; i-- {
		s.Require().NoError(s.h.consents.CheckAndLogUsage(s.ctx, id, req))
		consent, err := s.h.consents.GetConsent(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(i, consent.UsageCounter)
	}

	s.Require().NoError(s.h.consents.CheckAndLogUsage(s.ctx, id, req))
	consent, err := s.h.consents.GetConsent(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(0, consent.UsageCounter)

	actions, err := s.h.actionStore.GetByConsentID(s.ctx, id)
	s.Require().NoError(err)
	s.Len(actions, 5)
	for _, a := range actions {
		s.Equal(models.ActionStatusSuccess, a.ActionStatus)
		s.Equal("tpp-1", a.TppID)
	}
}

func (s *ConsentServiceTestSuite) TestCheckAndLogUsage_OnlyValidConsentsDecrement() {
	id := s.createConsent(4, s.nextMonth())

	s.Require().NoError(s.h.consents.CheckAndLogUsage(s.ctx, id, &models.ConsentUsageRequest{TppID: "tpp-1"}))

	consent, err := s.h.consents.GetConsent(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(4, consent.UsageCounter)
}

func (s *ConsentServiceTestSuite) TestCheckAndLogUsage_MissingConsentLogsBadPayload() {
	err := s.h.consents.CheckAndLogUsage(s.ctx, "CONSENT-missing", &models.ConsentUsageRequest{
		TppID:        "tpp-1",
		ActionStatus: models.ActionStatusSuccess,
	})
	s.Require().NoError(err)

	actions, err := s.h.actionStore.GetByConsentID(s.ctx, "CONSENT-missing")
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.Equal(models.ActionStatusBadPayload, actions[0].ActionStatus)
}

func (s *ConsentServiceTestSuite) TestGetConsentStatus_ExpiresLazilyAndOnce() {
	yesterday := utils.AddDays(s.h.clock.now, -1)
	id := s.createConsent(4, yesterday)
	_, err := s.h.consents.UpdateConsentStatus(s.ctx, id, models.ConsentStatusValid)
	s.Require().NoError(err)

	s.Equal(models.ConsentStatusExpired, s.status(id))
	consent, err := s.h.consents.GetConsent(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(consent.LastActionDate)
	expiredOn := s.h.today()
	s.Equal(expiredOn, *consent.LastActionDate)
	changedAt := consent.StatusChangeTime

	s.h.clock.Advance(24 * time.Hour)
	s.Equal(models.ConsentStatusExpired, s.status(id))
	consent, err = s.h.consents.GetConsent(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(expiredOn, *consent.LastActionDate)
	s.Equal(changedAt, consent.StatusChangeTime)
}

func (s *ConsentServiceTestSuite) TestGetConsentStatus_ConfirmationExpiration() {
	id := s.createConsent(4, s.nextMonth(), psuData("alice"))
	created, err := s.h.auths.CreateAuthorisation(s.ctx, models.AuthorisationTypeConsent, id, &models.CreateAuthorisationRequest{PsuData: psuData("alice")})
	s.Require().NoError(err)
	s.Require().NotNil(created)

	s.h.clock.Advance(61 * time.Minute)
	s.Equal(models.ConsentStatusRejected, s.status(id))

	auth, err := s.h.authStore.GetByID(s.ctx, created.AuthorisationID)
	s.Require().NoError(err)
	s.Equal(models.ScaStatusFailed, auth.ScaStatus)
}

func (s *ConsentServiceTestSuite) TestUpdateAccess() {
	id := s.createConsent(4, s.nextMonth())
	access := models.AccountAccess{Accounts: []models.AccountReference{{Iban: "DE89370400440532013000"}}}

	updated, err := s.h.consents.UpdateAccess(s.ctx, id, access)
	s.Require().NoError(err)
	s.Equal(id, updated)

	consent, err := s.h.consents.GetConsent(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(access, consent.AccessScope)

	_, err = s.h.consents.UpdateConsentStatus(s.ctx, id, models.ConsentStatusTerminatedByTpp)
	s.Require().NoError(err)
	updated, err = s.h.consents.UpdateAccess(s.ctx, id, models.AccountAccess{AllPsd2: "allAccounts"})
	s.Require().NoError(err)
	s.Empty(updated)
}

func (s *ConsentServiceTestSuite) TestMultilevelScaAndPsuData() {
	id := s.createConsent(4, s.nextMonth(), psuData("alice"), psuData("alice"), psuData("bob"))

	psus, err := s.h.consents.GetPsuDataByConsentID(s.ctx, id)
	s.Require().NoError(err)
	s.Len(psus, 2)

	ok, err := s.h.consents.UpdateMultilevelScaRequired(s.ctx, id, true)
	s.Require().NoError(err)
	s.True(ok)

	consent, err := s.h.consents.GetConsent(s.ctx, id)
	s.Require().NoError(err)
	s.True(consent.MultilevelScaRequired)

	ok, err = s.h.consents.UpdateMultilevelScaRequired(s.ctx, "CONSENT-missing", true)
	s.NoError(err)
	s.False(ok)

	psus, err = s.h.consents.GetPsuDataByConsentID(s.ctx, "CONSENT-missing")
	s.NoError(err)
	s.Nil(psus)
}

func (s *ConsentServiceTestSuite) TestFindAndTerminateOldConsents() {
	received := s.createConsent(4, s.nextMonth(), psuData("alice"))
	valid := s.createConsent(4, s.nextMonth(), psuData("alice"))
	_, err := s.h.consents.UpdateConsentStatus(s.ctx, valid, models.ConsentStatusValid)
	s.Require().NoError(err)
	otherPsu := s.createConsent(4, s.nextMonth(), psuData("bob"))

	s.h.clock.Advance(time.Minute)
	newest := s.createConsent(4, s.nextMonth(), psuData("alice"))

	terminated, err := s.h.consents.FindAndTerminateOldConsents(s.ctx, newest)
	s.Require().NoError(err)
	s.True(terminated)

	s.Equal(models.ConsentStatusRejected, s.status(received))
	s.Equal(models.ConsentStatusTerminatedByTpp, s.status(valid))
	s.Equal(models.ConsentStatusReceived, s.status(otherPsu))
	s.Equal(models.ConsentStatusReceived, s.status(newest))

	terminated, err = s.h.consents.FindAndTerminateOldConsents(s.ctx, newest)
	s.Require().NoError(err)
	s.False(terminated)
}

func (s *ConsentServiceTestSuite) TestFindAndTerminateOldConsents_WrongConsentData() {
	id := s.createConsent(4, s.nextMonth())
	_, err := s.h.consents.FindAndTerminateOldConsents(s.ctx, id)
	s.True(utils.IsValidationError(err))
}

func (s *ConsentServiceTestSuite) TestExport() {
	first := s.createConsent(4, s.nextMonth(), psuData("alice"))
	s.createConsent(4, s.nextMonth(), psuData("bob"))

	byTpp, err := s.h.consents.ExportConsentsByTpp(s.ctx, "tpp-1")
	s.Require().NoError(err)
	s.Len(byTpp, 2)

	byPsu, err := s.h.consents.ExportConsentsByPsu(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(byPsu, 1)
	s.Equal(first, byPsu[0].ConsentID)

	_, err = s.h.consents.ExportConsentsByPsu(s.ctx, "")
	s.True(utils.IsValidationError(err))
}

func TestConsentService_AuditFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	consentStore := &mocks.MockConsentStore{}
	actions := &mocks.MockActionLogger{}
	clock := &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	consent := &models.Consent{
		ConsentID:    "CONSENT-1",
		Status:       models.ConsentStatusValid,
		ValidUntil:   "2026-04-01",
		UsageCounter: 2,
		CreatedTime:  clock.now.UnixMilli(),
	}
	consentStore.On("GetByID", ctx, "CONSENT-1").Return(consent, nil)
	consentStore.On("Update", ctx, mock.AnythingOfType("*models.Consent")).Return(nil)
	actions.On("Append", ctx, mock.AnythingOfType("*models.ConsentAction")).Return(errors.New("webhook down"))

	svc := NewConsentService(consentStore, nil, actions, newTestProfile(),
		NewExpirationPolicyWithClock(clock.Now), NewPsuService(), nil, newTestLogger())

	err := svc.CheckAndLogUsage(ctx, "CONSENT-1", &models.ConsentUsageRequest{TppID: "tpp-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, consent.UsageCounter)
	consentStore.AssertExpectations(t)
	actions.AssertExpectations(t)
}

func TestConsentService_StoreErrors(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	tests := []struct {
		name      string
		getErr    error
		expectErr bool
	}{
		{"not found is absent", dao.ErrNotFound, false},
		{"wrapped not found is absent", errors.Join(errors.New("consent"), dao.ErrNotFound), false},
		{"infrastructure error", errors.New("connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consentStore := &mocks.MockConsentStore{}
			consentStore.On("GetByID", ctx, "CONSENT-1").Return(nil, tt.getErr)

			svc := NewConsentService(consentStore, nil, nil, newTestProfile(),
				NewExpirationPolicyWithClock(clock.Now), NewPsuService(), nil, newTestLogger())

			resp, err := svc.GetConsentStatus(ctx, "CONSENT-1")
			assert.Nil(t, resp)
			if tt.expectErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.getErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
