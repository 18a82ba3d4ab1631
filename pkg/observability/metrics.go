package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the bridge
type Metrics struct {
	// Assertion fetch metrics
	AssertionFetchesTotal *prometheus.CounterVec
	AssertionFetchSeconds prometheus.Histogram

	// Pipeline outcome metrics
	VerdictsTotal         *prometheus.CounterVec
	ReconcileFailuresTotal *prometheus.CounterVec

	// Provisioning metrics
	AccountsProvisionedTotal *prometheus.CounterVec

	// Session registry metrics
	SessionsRegistered  prometheus.Gauge
	RevalidationsTotal  *prometheus.CounterVec

	// HTTP surface metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all bridge metrics on the given registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		AssertionFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonauth_assertion_fetches_total",
				Help: "Assertion fetches against the identity provider by result",
			},
			[]string{"result"},
		),
		AssertionFetchSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jsonauth_assertion_fetch_duration_seconds",
				Help:    "Latency of provider assertion fetches",
				Buckets: prometheus.DefBuckets,
			},
		),
		VerdictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonauth_verdicts_total",
				Help: "Session verdicts produced, by operation and status",
			},
			[]string{"operation", "status"},
		),
		ReconcileFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonauth_reconcile_failures_total",
				Help: "Account reconciliation failures by reason",
			},
			[]string{"reason"},
		),
		AccountsProvisionedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonauth_accounts_provisioned_total",
				Help: "Local accounts created on first remote login, by role",
			},
			[]string{"role"},
		),
		SessionsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "jsonauth_sessions_registered",
				Help: "Granted sessions currently tracked by the registry",
			},
		),
		RevalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonauth_session_revalidations_total",
				Help: "Periodic session revalidation checks by outcome",
			},
			[]string{"outcome"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonauth_http_requests_total",
				Help: "HTTP requests handled by the bridge API",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jsonauth_http_request_duration_seconds",
				Help:    "HTTP request latency for the bridge API",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	registry.MustRegister(
		m.AssertionFetchesTotal,
		m.AssertionFetchSeconds,
		m.VerdictsTotal,
		m.ReconcileFailuresTotal,
		m.AccountsProvisionedTotal,
		m.SessionsRegistered,
		m.RevalidationsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}
