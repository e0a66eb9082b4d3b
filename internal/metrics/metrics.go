package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "postkeeper"

// Outcomes recorded for revocation lookups.
const (
	OutcomeRevoked = "revoked"
	OutcomeValid   = "valid"
	OutcomeError   = "error"
)

// Metrics holds the server collectors.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	RevocationChecks *prometheus.CounterVec
}

// New creates the collectors and registers them with r.
// If r is nil, prometheus.DefaultRegisterer is used.
func New(r prometheus.Registerer) *Metrics {
	if r == nil {
		r = prometheus.DefaultRegisterer
	}
	factory := promauto.With(r)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RevocationChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "revocation_checks_total",
			Help: "Total number of token revocation lookups by backend and outcome",
		}, []string{"backend", "outcome"}),
	}
}

// ObserveRevocation records a single revocation lookup.
func (m *Metrics) ObserveRevocation(backend string, revoked bool, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeValid
	switch {
	case err != nil:
		outcome = OutcomeError
	case revoked:
		outcome = OutcomeRevoked
	}
	m.RevocationChecks.WithLabelValues(backend, outcome).Inc()
}
