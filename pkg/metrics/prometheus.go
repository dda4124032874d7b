// Package metrics provides Prometheus metrics for the TelcoGuard churn service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Gateway state values exported by the gateway_state gauge.
const (
	GatewayStateUnknown     = 0
	GatewayStateProbing     = 1
	GatewayStateAvailable   = 2
	GatewayStateUnavailable = 3
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace         string
	subsystem         string
	latencyBuckets    []float64
	percentBuckets    []float64
	batchBuckets      []float64
	recordPredictions bool
	refreshInterval   time.Duration
	constLabels       map[string]string
	metricPrefix      string
	registry          prometheus.Registerer

	// Prediction metrics
	predictions          *prometheus.CounterVec
	predictionTiers      *prometheus.CounterVec
	predictionPercent    prometheus.Histogram
	predictionsSupersede prometheus.Counter

	// Gateway metrics
	fallbacks      *prometheus.CounterVec
	probes         *prometheus.CounterVec
	gatewayState   prometheus.Gauge
	remoteLatency  *prometheus.HistogramVec
	scoringLatency prometheus.Histogram

	// Batch queue and workers
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueRejected     prometheus.Counter
	workerCount       prometheus.Gauge
	workerActiveCount prometheus.Gauge
	workerJobLatency  prometheus.Histogram
	workerJobsAbandon prometheus.Counter
	batchSize         prometheus.Histogram

	// Audit sink
	auditRecords *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewMetricsManager(WithRegistry(customRegistry))
}

// NewMetricsManager creates a metrics manager and registers its collectors.
func NewMetricsManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:         "telcoguard",
		subsystem:         "churn",
		latencyBuckets:    []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		percentBuckets:    []float64{10, 20, 30, 35, 40, 50, 60, 65, 70, 80, 90, 100},
		batchBuckets:      []float64{1, 5, 10, 25, 50, 100, 250, 500},
		recordPredictions: true,
		refreshInterval:   defaultRefreshInterval,
		constLabels:       make(map[string]string),
		registry:          prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all collectors
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	counterVec := func(name, help string, lbls ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, lbls)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels, Buckets: buckets,
		})
	}

	m.predictions = counterVec("predictions_total", "Predictions served, by source (remote or local)", "source")
	m.predictionTiers = counterVec("prediction_tiers_total", "Predictions served, by risk tier", "tier")
	m.predictionPercent = histogram("prediction_percent", "Distribution of churn probability percent", m.percentBuckets)
	m.predictionsSupersede = counter("predictions_superseded_total", "Results discarded because a newer request for the session started")

	m.fallbacks = counterVec("gateway_fallbacks_total", "Local fallbacks by reason", "reason")
	m.probes = counterVec("gateway_probes_total", "Remote liveness probes by outcome", "outcome")
	m.gatewayState = gauge("gateway_state", "Cached remote state: 0 unknown, 1 probing, 2 available, 3 unavailable")
	m.remoteLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("remote_latency_milliseconds"),
		Help: "Remote provider call latency in milliseconds", ConstLabels: labels, Buckets: m.latencyBuckets,
	}, []string{"operation", "outcome"})
	m.scoringLatency = histogram("scoring_latency_milliseconds", "End-to-end gateway prediction latency in milliseconds", m.latencyBuckets)

	m.queueSize = gauge("queue_size", "Jobs waiting in the batch queue")
	m.queueCapacity = gauge("queue_capacity", "Capacity of the batch queue")
	m.queueRejected = counter("queue_rejected_total", "Batch jobs rejected by backpressure")
	m.workerCount = gauge("worker_count", "Configured batch workers")
	m.workerActiveCount = gauge("worker_active_count", "Workers currently scoring a job")
	m.workerJobLatency = histogram("worker_job_latency_milliseconds", "Time a worker spends on one job", m.latencyBuckets)
	m.workerJobsAbandon = counter("worker_jobs_abandoned_total", "Jobs whose caller went away before the result was delivered")
	m.batchSize = histogram("batch_size", "Profiles per batch request", m.batchBuckets)

	m.auditRecords = counterVec("audit_records_total", "Audit sink writes by sink and outcome", "sink", "outcome")

	m.httpRequests = counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", ConstLabels: labels, Buckets: m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByType = counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordPrediction counts a served prediction.
func RecordPrediction(source, tier string, percent int) {
	if !globalManager.recordPredictions {
		return
	}
	globalManager.predictions.WithLabelValues(source).Inc()
	globalManager.predictionTiers.WithLabelValues(tier).Inc()
	globalManager.predictionPercent.Observe(float64(percent))
}

// RecordSuperseded counts a discarded stale result.
func RecordSuperseded() {
	globalManager.predictionsSupersede.Inc()
}

// RecordFallback counts a local fallback.
func RecordFallback(reason string) {
	globalManager.fallbacks.WithLabelValues(reason).Inc()
}

// RecordProbe counts a liveness probe outcome ("available" or "unavailable").
func RecordProbe(outcome string) {
	globalManager.probes.WithLabelValues(outcome).Inc()
}

// UpdateGatewayState sets the cached gateway state gauge.
func UpdateGatewayState(state int) {
	globalManager.gatewayState.Set(float64(state))
}

// RecordRemoteLatency observes a remote call.
func RecordRemoteLatency(operation, outcome string, latencyMs float64) {
	globalManager.remoteLatency.WithLabelValues(operation, outcome).Observe(latencyMs)
}

// RecordScoringLatency observes an end-to-end gateway prediction.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the batch queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the batch queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a rejected job.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive adjusts the busy worker gauge by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerJobLatency observes one job.
func RecordWorkerJobLatency(latencyMs float64) {
	globalManager.workerJobLatency.Observe(latencyMs)
}

// RecordWorkerJobAbandoned counts a job whose reply nobody read.
func RecordWorkerJobAbandoned() {
	globalManager.workerJobsAbandon.Inc()
}

// RecordBatchSize observes a batch request's size.
func RecordBatchSize(n int) {
	globalManager.batchSize.Observe(float64(n))
}

// RecordAudit counts an audit write.
func RecordAudit(sink, outcome string) {
	globalManager.auditRecords.WithLabelValues(sink, outcome).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval returns how often gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
