package census

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics instruments outbound requests and catalog cache traffic.
// A nil receiver is valid and records nothing, so the client never has to
// branch on whether metrics were requested.
type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	m := &clientMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "census_requests_total",
				Help: "Outbound requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "census_request_duration_seconds",
				Help:    "Outbound request latency by endpoint",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "census_catalog_cache_total",
				Help: "Catalog cache lookups by result",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.cache)
	return m
}

func (m *clientMetrics) observeRequest(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.duration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *clientMetrics) observeCache(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}
