package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache traffic. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Fetches   *prometheus.CounterVec
	Retries   *prometheus.CounterVec
	Evictions prometheus.Counter
}

// NewMetrics registers the cache collectors on reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_cache_requests_total",
				Help: "Cache lookups by kind and result (hit, miss, disabled)",
			},
			[]string{"kind", "result"},
		),
		Fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_cache_fetches_total",
				Help: "Provider fetch attempts by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		Retries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_cache_retries_total",
				Help: "Provider fetches retried after a transient failure",
			},
			[]string{"kind"},
		),
		Evictions: f.NewCounter(
			prometheus.CounterOpts{
				Name: "weather_cache_evictions_total",
				Help: "Entries dropped after exceeding the idle limit",
			},
		),
	}
}

func (m *Metrics) request(kind Kind, result string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(string(kind), result).Inc()
}

func (m *Metrics) fetch(kind Kind, outcome string) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(string(kind), outcome).Inc()
}

func (m *Metrics) retry(kind Kind) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) eviction() {
	if m == nil {
		return
	}
	m.Evictions.Inc()
}
