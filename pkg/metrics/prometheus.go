// Package metrics provides Prometheus metrics for the matchd matching service.
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

// Manager manages all Prometheus metrics for the matchd service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Encoder Metrics - embedding backend calls and cache behavior
	encodeRequests   prometheus.Counter
	encodeErrors     prometheus.Counter
	encodeLatency    prometheus.Histogram
	encodeCacheHits  prometheus.Counter
	encodeCacheMiss  prometheus.Counter

	// Vector Index Metrics
	indexOps     *prometheus.CounterVec
	indexErrors  *prometheus.CounterVec
	indexLatency prometheus.Histogram

	// Ranking Metrics - the core matching pipeline
	rankCalls        *prometheus.CounterVec
	rankLatency      prometheus.Histogram
	rankCandidates   prometheus.Counter
	rankMatches      prometheus.Histogram
	rankFallbacks    prometheus.Counter
	gapComputations  prometheus.Counter

	// Ingest Metrics - feed fetch and posting pipeline
	postingsIngested  prometheus.Counter
	postingsDuplicate prometheus.Counter
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueUtilization  prometheus.Gauge
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics
	workerCount   prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// Notification Metrics
	notificationsSent   prometheus.Counter
	notificationsFailed prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Error attribution across components
	errorRateByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchd",
		subsystem:        "matching",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	latencyBuckets := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

	// Encoder metrics
	m.encodeRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "encode_requests_total",
		Help:      "Total number of encode calls issued to the embedding backend",
	})
	m.encodeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "encode_errors_total",
		Help:      "Total number of failed encode calls",
	})
	m.encodeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "encode_latency_milliseconds",
		Help:      "Latency of encode calls in milliseconds",
		Buckets:   latencyBuckets,
	})
	m.encodeCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "encode_cache_hits_total",
		Help:      "Total number of embedding cache hits",
	})
	m.encodeCacheMiss = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "encode_cache_misses_total",
		Help:      "Total number of embedding cache misses",
	})

	// Vector index metrics
	m.indexOps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_operations_total",
		Help:      "Total number of vector index operations by kind",
	}, []string{"op"})
	m.indexErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_errors_total",
		Help:      "Total number of failed vector index operations by kind",
	}, []string{"op"})
	m.indexLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_latency_milliseconds",
		Help:      "Latency of vector index operations in milliseconds",
		Buckets:   latencyBuckets,
	})

	// Ranking metrics
	m.rankCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rank_calls_total",
		Help:      "Total number of ranking calls by strategy",
	}, []string{"strategy"})
	m.rankLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rank_latency_milliseconds",
		Help:      "End-to-end ranking call latency in milliseconds",
		Buckets:   latencyBuckets,
	})
	m.rankCandidates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rank_candidates_scored_total",
		Help:      "Total number of candidate postings scored",
	})
	m.rankMatches = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rank_matches_returned",
		Help:      "Number of matches returned per ranking call",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})
	m.rankFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rank_fallbacks_total",
		Help:      "Total number of ranking calls that fell back to a degraded candidate source",
	})
	m.gapComputations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gap_computations_total",
		Help:      "Total number of skill-gap computations",
	})

	// Ingest metrics
	m.postingsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "postings_ingested_total",
		Help:      "Total number of postings ingested from external feeds",
	})
	m.postingsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "postings_duplicate_total",
		Help:      "Total number of duplicate postings dropped during ingest",
	})
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_size",
		Help:      "Current number of tasks in the ingest queue",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_capacity",
		Help:      "Configured capacity of the ingest queue",
	})
	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_utilization",
		Help:      "Ingest queue utilization ratio (0-1)",
	})
	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_enqueue_errors_total",
		Help:      "Total number of rejected enqueue attempts",
	})

	// Worker metrics
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of ingest workers",
	})
	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Per-task ingest worker latency in milliseconds",
		Buckets:   latencyBuckets,
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of ingest worker task failures",
	})

	// Notification metrics
	m.notificationsSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_sent_total",
		Help:      "Total number of match notifications sent",
	})
	m.notificationsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_failed_total",
		Help:      "Total number of match notifications that failed to send",
	})

	// HTTP metrics
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration by endpoint, method and status code",
		Buckets:   latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and error type",
	}, []string{"component", "error_type"})

	// System metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Encoder metrics functions.

// RecordEncodeRequest increments the encode requests counter.
func RecordEncodeRequest() {
	globalManager.encodeRequests.Inc()
}

// RecordEncodeError increments the encode errors counter.
func RecordEncodeError() {
	globalManager.encodeErrors.Inc()
}

// RecordEncodeLatency records encode latency in milliseconds.
func RecordEncodeLatency(latencyMs float64) {
	globalManager.encodeLatency.Observe(latencyMs)
}

// RecordEncodeCacheHit increments the embedding cache hit counter.
func RecordEncodeCacheHit() {
	globalManager.encodeCacheHits.Inc()
}

// RecordEncodeCacheMiss increments the embedding cache miss counter.
func RecordEncodeCacheMiss() {
	globalManager.encodeCacheMiss.Inc()
}

// Vector index metrics functions.

// RecordIndexOp increments the index operation counter for op.
func RecordIndexOp(op string) {
	globalManager.indexOps.WithLabelValues(op).Inc()
}

// RecordIndexError increments the index error counter for op.
func RecordIndexError(op string) {
	globalManager.indexErrors.WithLabelValues(op).Inc()
}

// RecordIndexLatency records index operation latency in milliseconds.
func RecordIndexLatency(latencyMs float64) {
	globalManager.indexLatency.Observe(latencyMs)
}

// Ranking metrics functions.

// RecordRankCall increments the ranking call counter for a strategy.
func RecordRankCall(strategy string) {
	globalManager.rankCalls.WithLabelValues(strategy).Inc()
}

// RecordRankLatency records end-to-end ranking latency in milliseconds.
func RecordRankLatency(latencyMs float64) {
	globalManager.rankLatency.Observe(latencyMs)
}

// RecordCandidateScored increments the candidates scored counter.
func RecordCandidateScored() {
	globalManager.rankCandidates.Inc()
}

// RecordMatchesReturned observes the number of matches returned by a call.
func RecordMatchesReturned(n int) {
	globalManager.rankMatches.Observe(float64(n))
}

// RecordRankFallback increments the degraded candidate-source counter.
func RecordRankFallback() {
	globalManager.rankFallbacks.Inc()
}

// RecordGapComputation increments the skill-gap computation counter.
func RecordGapComputation() {
	globalManager.gapComputations.Inc()
}

// Ingest metrics functions.

// RecordPostingIngested increments the ingested postings counter.
func RecordPostingIngested() {
	globalManager.postingsIngested.Inc()
}

// RecordPostingDuplicate increments the duplicate postings counter.
func RecordPostingDuplicate() {
	globalManager.postingsDuplicate.Inc()
}

// UpdateQueueSize sets the current ingest queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the configured ingest queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the ingest queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueueError increments the rejected enqueue counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker metrics functions.

// UpdateWorkerCount sets the current ingest worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records per-task worker latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Notification metrics functions.

// RecordNotificationSent increments the sent notifications counter.
func RecordNotificationSent() {
	globalManager.notificationsSent.Inc()
}

// RecordNotificationFailed increments the failed notifications counter.
func RecordNotificationFailed() {
	globalManager.notificationsFailed.Inc()
}

// HTTP metrics functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an HTTP error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error attributed to a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics functions.

// UpdateSystemMemoryUsage sets the memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records average GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
