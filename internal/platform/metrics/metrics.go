// Package metrics holds the Prometheus instrumentation for the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LoginsTotal     *prometheus.CounterVec
	SessionRenewals prometheus.Counter
	ForcedLogouts   prometheus.Counter
	BackendRequests *prometheus.CounterVec
	BackendLatency  prometheus.Histogram
	RequestLatency  *prometheus.HistogramVec
}

// New creates and registers all metrics on the given registerer. Tests pass
// a fresh registry so parallel suites never collide on registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_logins_total",
			Help: "Credential exchange attempts by outcome.",
		}, []string{"outcome"}),
		SessionRenewals: factory.NewCounter(prometheus.CounterOpts{
			Name: "lobby_session_renewals_total",
			Help: "Sessions reissued by the sliding-renewal policy.",
		}),
		ForcedLogouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "lobby_forced_logouts_total",
			Help: "Sessions revoked after a credential-changing operation.",
		}),
		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_backend_requests_total",
			Help: "Proxied backend calls by HTTP status class.",
		}, []string{"path", "status"}),
		BackendLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lobby_backend_request_seconds",
			Help:    "Latency of proxied backend calls.",
			Buckets: prometheus.DefBuckets,
		}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lobby_http_request_seconds",
			Help:    "Latency of inbound HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}
