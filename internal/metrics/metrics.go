package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for the consent and authorisation lifecycle.
type Metrics struct {
	ConsentStatusTransitions       *prometheus.CounterVec
	ConsentUsageDecrements         prometheus.Counter
	ConsentActions                 *prometheus.CounterVec
	AuthorisationStatusTransitions *prometheus.CounterVec
	AuthorisationsClosed           *prometheus.CounterVec
	ConfirmationExpirations        *prometheus.CounterVec
	AuditFailures                  *prometheus.CounterVec

	registry *prometheus.Registry
}

// New registers the collectors on a fresh registry, so tests can create as
// many instances as they need.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		ConsentStatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "psd2_consent_status_transitions_total",
			Help: "Total number of consent status changes, labeled by target status",
		}, []string{"status"}),
		ConsentUsageDecrements: factory.NewCounter(prometheus.CounterOpts{
			Name: "psd2_consent_usage_decrements_total",
			Help: "Total number of consent usage counter decrements",
		}),
		ConsentActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "psd2_consent_actions_total",
			Help: "Total number of consent usage actions logged, labeled by action status",
		}, []string{"action_status"}),
		AuthorisationStatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "psd2_authorisation_status_transitions_total",
			Help: "Total number of authorisation SCA status changes, labeled by type and status",
		}, []string{"type", "status"}),
		AuthorisationsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "psd2_authorisation_closed_total",
			Help: "Total number of authorisations failed because a newer one was started for the same PSU",
		}, []string{"type"}),
		ConfirmationExpirations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "psd2_consent_confirmation_expirations_total",
			Help: "Total number of consents or payments rejected because they were not confirmed in time",
		}, []string{"parent"}),
		AuditFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "psd2_consent_audit_failures_total",
			Help: "Total number of consent action records that could not be delivered, labeled by sink",
		}, []string{"sink"}),
		registry: reg,
	}
}

// Handler serves the collectors of this instance
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// The helpers below tolerate a nil receiver so metrics stay optional for callers.

func (m *Metrics) IncrementConsentStatus(status string) {
	if m == nil {
		return
	}
	m.ConsentStatusTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementUsageDecrement() {
	if m == nil {
		return
	}
	m.ConsentUsageDecrements.Inc()
}

func (m *Metrics) IncrementConsentAction(actionStatus string) {
	if m == nil {
		return
	}
	m.ConsentActions.WithLabelValues(actionStatus).Inc()
}

func (m *Metrics) IncrementAuthorisationStatus(authType, status string) {
	if m == nil {
		return
	}
	m.AuthorisationStatusTransitions.WithLabelValues(authType, status).Inc()
}

func (m *Metrics) AddAuthorisationsClosed(authType string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.AuthorisationsClosed.WithLabelValues(authType).Add(float64(count))
}

func (m *Metrics) IncrementConfirmationExpiration(parent string) {
	if m == nil {
		return
	}
	m.ConfirmationExpirations.WithLabelValues(parent).Inc()
}

func (m *Metrics) IncrementAuditFailure(sink string) {
	if m == nil {
		return
	}
	m.AuditFailures.WithLabelValues(sink).Inc()
}
