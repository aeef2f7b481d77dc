// Package metrics exposes Prometheus counters for the ledger service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Mutations       *prometheus.CounterVec
	Reconciliations *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	Analyses        *prometheus.CounterVec
	AnalysisSeconds *prometheus.HistogramVec
	HTTPRequests    *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "mutations_total",
			Help:      "Ledger mutations by collection and operation.",
		}, []string{"collection", "op"}),
		Reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "reconciliations_total",
			Help:      "Stock reconciliation attempts by direction and outcome.",
		}, []string{"direction", "outcome"}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "persist_failures_total",
			Help:      "Failed best-effort writes by storage key.",
		}, []string{"key"}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "analyses_total",
			Help:      "Finished analysis runs by kind and result.",
		}, []string{"kind", "result"}),
		AnalysisSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledger",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of external analysis calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Mutations,
		m.Reconciliations,
		m.PersistFailures,
		m.Analyses,
		m.AnalysisSeconds,
		m.HTTPRequests,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Mutation counts one ledger mutation. Safe on a nil receiver.
func (m *Metrics) Mutation(collection, op string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(collection, op).Inc()
}

// Reconciled counts one reconciliation. Safe on a nil receiver.
func (m *Metrics) Reconciled(direction, outcome string) {
	if m == nil {
		return
	}
	m.Reconciliations.WithLabelValues(direction, outcome).Inc()
}

// PersistFailed counts a failed write. Safe on a nil receiver.
func (m *Metrics) PersistFailed(key string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(key).Inc()
}

// AnalysisFinished records a finished analysis run. Safe on a nil receiver.
func (m *Metrics) AnalysisFinished(kind, result string, seconds float64) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(kind, result).Inc()
	m.AnalysisSeconds.WithLabelValues(kind).Observe(seconds)
}
