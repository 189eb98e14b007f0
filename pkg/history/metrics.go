package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics for a synchronizer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "navstack").
	Namespace string

	// Subsystem is the metrics subsystem (default: "history").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures metrics collection.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "navstack",
		Subsystem: "history",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records synchronizer activity. All methods are safe on a nil
// receiver, so instrumentation stays optional.
type Metrics struct {
	eventsTotal     *prometheus.CounterVec
	pushesTotal     prometheus.Counter
	replacesTotal   prometheus.Counter
	restoreFailures prometheus.Counter
	bindsRejected   prometheus.Counter
}

// NewMetrics creates and registers the synchronizer metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_events_total",
			Help:        "Total browser navigation events observed",
			ConstLabels: config.ConstLabels,
		}, []string{"strategy"}),

		pushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pushes_total",
			Help:        "Total pushState calls issued",
			ConstLabels: config.ConstLabels,
		}),

		replacesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "replaces_total",
			Help:        "Total replaceState calls issued",
			ConstLabels: config.ConstLabels,
		}),

		restoreFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "restore_failures_total",
			Help:        "Total restorations dropped due to undecodable state",
			ConstLabels: config.ConstLabels,
		}),

		bindsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "binds_rejected_total",
			Help:        "Total synchronizer binds refused by the ownership guard",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// RecordEvent records an observed navigation event.
func (m *Metrics) RecordEvent(strategy string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(strategy).Inc()
}

// RecordPush records a pushState call.
func (m *Metrics) RecordPush() {
	if m == nil {
		return
	}
	m.pushesTotal.Inc()
}

// RecordReplace records a replaceState call.
func (m *Metrics) RecordReplace() {
	if m == nil {
		return
	}
	m.replacesTotal.Inc()
}

// RecordRestoreFailure records a dropped restoration.
func (m *Metrics) RecordRestoreFailure() {
	if m == nil {
		return
	}
	m.restoreFailures.Inc()
}

// RecordBindRejected records a refused bind.
func (m *Metrics) RecordBindRejected() {
	if m == nil {
		return
	}
	m.bindsRejected.Inc()
}
