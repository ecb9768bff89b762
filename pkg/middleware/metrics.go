package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/thinclient/pkg/protocol"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "thinclient").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for batch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
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

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
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
		Namespace: "thinclient",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the thin client's Prometheus collectors.
type Metrics struct {
	batchesTotal    *prometheus.CounterVec
	batchDuration   prometheus.Histogram
	patchesReceived prometheus.Counter
	faultsTotal     *prometheus.CounterVec
	eventsSent      *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors. Registering twice with
// the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		batchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batches_total",
			Help:        "Total number of patch batches applied",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_duration_seconds",
			Help:        "Batch application duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		patchesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_received_total",
			Help:        "Total number of patches received from the server",
			ConstLabels: config.ConstLabels,
		}),

		faultsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "faults_total",
			Help:        "Total number of faulted batches by class",
			ConstLabels: config.ConstLabels,
		}, []string{"class"}),

		eventsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_sent_total",
			Help:        "Total number of outbound events by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),
	}
}

// Middleware returns a Middleware recording batch counts, durations and
// faults.
func (m *Metrics) Middleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, b protocol.Batch) error {
			start := time.Now()
			err := next(ctx, b)
			m.batchDuration.Observe(time.Since(start).Seconds())
			m.patchesReceived.Add(float64(len(b.Patches)))

			status := "success"
			if err != nil {
				status = "error"
				m.faultsTotal.WithLabelValues(Classify(err)).Inc()
			}
			m.batchesTotal.WithLabelValues(status).Inc()
			return err
		}
	}
}

// RecordEvent records one outbound event send.
func (m *Metrics) RecordEvent(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.eventsSent.WithLabelValues(status).Inc()
}

// RecordFault records a fault raised outside the chain, such as a
// decode failure in the transport.
func (m *Metrics) RecordFault(err error) {
	if err != nil {
		m.faultsTotal.WithLabelValues(Classify(err)).Inc()
	}
}
