package metrics

import (
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets shared by the remote,
// scoring, worker and HTTP latency histograms. Unsorted input is ignored.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if validBuckets(buckets) {
			m.latencyBuckets = buckets
		}
	}
}

// WithPercentBuckets sets the buckets of the churn percent histogram.
func WithPercentBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if validBuckets(buckets) {
			m.percentBuckets = buckets
		}
	}
}

// WithBatchBuckets sets the buckets of the batch size histogram.
func WithBatchBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if validBuckets(buckets) {
			m.batchBuckets = buckets
		}
	}
}

func validBuckets(b []float64) bool {
	return len(b) > 0 && slices.IsSorted(b)
}

// WithPredictionMetrics turns per-prediction source, tier and percent
// recording on or off. Operational metrics are always recorded.
func WithPredictionMetrics(enabled bool) Option {
	return func(m *Manager) {
		m.recordPredictions = enabled
	}
}

// WithRefreshInterval sets how often gauges fed by polling are refreshed.
func WithRefreshInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.refreshInterval = interval
		}
	}
}

// WithConstLabels attaches constant labels, such as a deployment name, to
// every collector.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		if labels != nil {
			m.constLabels = labels
		}
	}
}

// WithMetricPrefix sets a custom prefix for metric names.
func WithMetricPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.metricPrefix = prefix
		}
	}
}

// WithRegistry sets the registerer the collectors are created on.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}
