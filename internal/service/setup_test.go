package service

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/wso2/psd2-consent-management/internal/audit"
	"github.com/wso2/psd2-consent-management/internal/config"
	"github.com/wso2/psd2-consent-management/internal/dao/memory"
	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/models"
)

// testClock is a settable clock shared by every service of a harness
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// harness wires the full service graph over in-memory stores
type harness struct {
	clock        *testClock
	profile      *config.AspspProfileConfig
	consentStore *memory.ConsentStore
	paymentStore *memory.PaymentStore
	authStore    *memory.AuthorisationStore
	actionStore  *memory.ConsentActionStore
	metrics      *metrics.Metrics
	consents     *ConsentService
	payments     *PaymentService
	resolver     *AuthServiceResolver
	auths        *AuthorisationService
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestProfile() *config.AspspProfileConfig {
	return &config.AspspProfileConfig{
		FrequencyPerDay:                            4,
		MaxConsentValidityDays:                     90,
		RedirectURLExpirationTimeMs:                (10 * time.Minute).Milliseconds(),
		AuthorisationExpirationTimeMs:              (30 * time.Minute).Milliseconds(),
		PaymentCancellationRedirectURLExpirationMs: (5 * time.Minute).Milliseconds(),
		NotConfirmedConsentExpirationTimeMs:        time.Hour.Milliseconds(),
		NotConfirmedPaymentExpirationTimeMs:        time.Hour.Milliseconds(),
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		clock:        &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)},
		profile:      newTestProfile(),
		consentStore: memory.NewConsentStore(),
		paymentStore: memory.NewPaymentStore(),
		authStore:    memory.NewAuthorisationStore(),
		actionStore:  memory.NewConsentActionStore(),
		metrics:      metrics.New(),
	}

	logger := newTestLogger()
	policy := NewExpirationPolicyWithClock(h.clock.Now)
	publisher := audit.NewPublisher(h.actionStore, logger, audit.WithMetrics(h.metrics))

	services, err := NewServices(Stores{
		Consents:       h.consentStore,
		Payments:       h.paymentStore,
		Authorisations: h.authStore,
	}, publisher, h.profile, policy, h.metrics, logger)
	require.NoError(t, err)

	h.consents = services.Consents
	h.payments = services.Payments
	h.resolver = services.Resolver
	h.auths = services.Authorisations
	return h
}

func psuData(id string) *models.PsuData {
	return &models.PsuData{PsuID: id, PsuIDType: "login"}
}

func (h *harness) today() string {
	return h.clock.now.Format("2006-01-02")
}

func (h *harness) nowMillis() int64 {
	return h.clock.now.UnixMilli()
}
