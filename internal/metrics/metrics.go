// Package metrics exposes Prometheus counters for backend traffic and
// simulation outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeStatus  = "status_error"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
	OutcomeInput   = "input_error"
)

// Manager owns one set of collectors on one registry.
type Manager struct {
	namespace string
	buckets   []float64
	registry  prometheus.Registerer

	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	runs            *prometheus.CounterVec
	hotspots        *prometheus.CounterVec
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets latency buckets in seconds.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRegistry registers the collectors on registry instead of the default.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

var registry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide metrics registry

var global = NewManager(WithRegistry(registry)) //nolint:gochecknoglobals // process-wide metrics manager

// NewManager creates and registers a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "floodsim",
		// generative calls take minutes, fetches take seconds
		buckets:  []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 240},
		registry: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)
	m.backendRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Backend requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	m.backendLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Backend request latency by endpoint",
		Buckets:   m.buckets,
	}, []string{"endpoint"})
	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "runs_total",
		Help:      "Simulation and validation runs by kind and outcome",
	}, []string{"kind", "outcome"})
	m.hotspots = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "hotspots_total",
		Help:      "Hotspot records received, split into rendered and skipped",
	}, []string{"result"})
	return m
}

// RecordBackendRequest counts one backend call and observes its latency.
func (m *Manager) RecordBackendRequest(endpoint, outcome string, elapsed time.Duration) {
	m.backendRequests.WithLabelValues(endpoint, outcome).Inc()
	m.backendLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordRun counts a finished simulation or validation.
func (m *Manager) RecordRun(kind, outcome string) {
	m.runs.WithLabelValues(kind, outcome).Inc()
}

// RecordHotspots counts rendered and skipped hotspot entries.
func (m *Manager) RecordHotspots(rendered, skipped int) {
	m.hotspots.WithLabelValues("rendered").Add(float64(rendered))
	m.hotspots.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordBackendRequest records on the process-wide manager.
func RecordBackendRequest(endpoint, outcome string, elapsed time.Duration) {
	global.RecordBackendRequest(endpoint, outcome, elapsed)
}

// RecordRun records on the process-wide manager.
func RecordRun(kind, outcome string) {
	global.RecordRun(kind, outcome)
}

// RecordHotspots records on the process-wide manager.
func RecordHotspots(rendered, skipped int) {
	global.RecordHotspots(rendered, skipped)
}

// GetRegistry returns the process-wide registry.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Handler serves the process-wide registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
