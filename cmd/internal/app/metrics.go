package app

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-level Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	authCalls *prometheus.CounterVec
	evicted   prometheus.Counter
}

// NewMetrics builds a fresh registry and collectors. Each App owns its own
// registry so tests never fight over global collector registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spendsense_http_requests_total",
			Help: "HTTP requests by method and status class.",
		}, []string{"method", "status_class"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spendsense_http_request_duration_seconds",
			Help:    "HTTP request duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		authCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spendsense_auth_requests_total",
			Help: "Auth endpoint calls by endpoint and status.",
		}, []string{"endpoint", "status"}),
		evicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "spendsense_sessions_evicted_total",
			Help: "Expired refresh-token rows removed by the janitor.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeRequest(method string, status int, seconds float64) {
	class := strconv.Itoa(status/100) + "xx"
	m.requests.WithLabelValues(method, class).Inc()
	m.duration.WithLabelValues(method).Observe(seconds)
}

func (m *Metrics) observeAuth(endpoint string, status int) {
	m.authCalls.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

func (m *Metrics) addEvicted(n int64) {
	if n > 0 {
		m.evicted.Add(float64(n))
	}
}
