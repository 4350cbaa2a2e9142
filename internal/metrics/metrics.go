// Package metrics exposes Prometheus instrumentation for the categorizer client.
package metrics

import (
	"net/http"
	"time"

	"github.com/mikey/site-categorizer/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "categorizer"

// Outcome labels for backend calls
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the client Prometheus metrics
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Analyses        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the metrics with reg
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Total backend calls by operation and outcome",
		}, []string{"operation", "outcome"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Time spent in backend calls",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),

		Analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analysis results by status and whether they were served from cache",
		}, []string{"status", "cached"}),

		gatherer: reg,
	}
}

// ObserveRequest records one backend call
func (m *Metrics) ObserveRequest(operation string, elapsed time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.Requests.WithLabelValues(operation, outcome).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveResults counts analysis outcomes
func (m *Metrics) ObserveResults(results ...*core.AnalysisResult) {
	for _, r := range results {
		if r == nil {
			continue
		}
		cached := "false"
		if r.Cached() {
			cached = "true"
		}
		m.Analyses.WithLabelValues(string(r.Status), cached).Inc()
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
