// Package metrics provides Prometheus metrics for the arena replay service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the replay service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Recorder metrics
	framesRecorded     prometheus.Counter
	framesThrottled    prometheus.Counter
	framesDropped      prometheus.Counter
	eventsRecorded     *prometheus.CounterVec
	eventsDropped      prometheus.Counter
	damageFiltered     prometheus.Counter
	finalizeLatency    prometheus.Histogram
	highlightsDetected *prometheus.CounterVec

	// Replay service metrics
	replaysSubmitted prometheus.Counter
	replaysDuplicate prometheus.Counter
	replaysRejected  prometheus.Counter

	// Store metrics
	storeSize         prometheus.Gauge
	storeBytes        prometheus.Gauge
	storeSaveLatency  prometheus.Histogram
	storeEvictions    prometheus.Counter
	storeShrinks      prometheus.Counter
	storeMemoryOnly   prometheus.Counter
	storeDecimations  prometheus.Counter
	storeBackendError *prometheus.CounterVec
	codecRatio        prometheus.Histogram

	// Playback metrics
	playersCreated prometheus.Counter
	playbackSeeks  prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global manager on a fresh registry. It must run
// before any metric is recorded or GetRegistry is served.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "arena",
		subsystem:        "replay",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(auto promauto.Factory, name, help string) prometheus.Counter {
	return auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(auto promauto.Factory, name, help string, labels ...string) *prometheus.CounterVec {
	return auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(auto promauto.Factory, name, help string) prometheus.Gauge {
	return auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(auto promauto.Factory, name, help string, buckets []float64) prometheus.Histogram {
	return auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.framesRecorded = m.counter(auto, "frames_recorded_total", "Frames accepted by recorders")
	m.framesThrottled = m.counter(auto, "frames_throttled_total", "Frames ignored because they arrived inside the sample interval")
	m.framesDropped = m.counter(auto, "frames_dropped_total", "Frames dropped because the recording hit its frame cap")
	m.eventsRecorded = m.counterVec(auto, "events_recorded_total", "Events logged by recorders", "kind")
	m.eventsDropped = m.counter(auto, "events_dropped_total", "Events dropped because the recording hit its event cap")
	m.damageFiltered = m.counter(auto, "damage_filtered_total", "Damage events below the significance threshold")
	m.finalizeLatency = m.histogram(auto, "finalize_latency_milliseconds", "Time spent freezing a recording into a timeline", m.histogramBuckets)
	m.highlightsDetected = m.counterVec(auto, "highlights_detected_total", "Highlights kept after ranking", "kind")

	m.replaysSubmitted = m.counter(auto, "replays_submitted_total", "Timelines accepted for persistence")
	m.replaysDuplicate = m.counter(auto, "replays_duplicate_total", "Timelines rejected as already submitted")
	m.replaysRejected = m.counter(auto, "replays_rejected_total", "Timelines rejected as invalid or because the queue was full")

	m.storeSize = m.gauge(auto, "store_timelines", "Timelines currently retained")
	m.storeBytes = m.gauge(auto, "store_bytes", "Encoded bytes held by the storage backend")
	m.storeSaveLatency = m.histogram(auto, "store_save_latency_milliseconds", "Store save latency in milliseconds", m.histogramBuckets)
	m.storeEvictions = m.counter(auto, "store_evictions_total", "Timelines evicted to respect the retention bound")
	m.storeShrinks = m.counter(auto, "store_shrinks_total", "Timelines dropped early after a backend write failure")
	m.storeMemoryOnly = m.counter(auto, "store_memory_only_total", "Timelines kept only in memory after persistence failed")
	m.storeDecimations = m.counter(auto, "store_decimations_total", "Timelines whose frames were decimated before storage")
	m.storeBackendError = m.counterVec(auto, "store_backend_errors_total", "Storage backend failures", "backend", "operation")
	m.codecRatio = m.histogram(auto, "codec_compression_ratio", "Encoded size divided by raw JSON size",
		[]float64{0.02, 0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1})

	m.playersCreated = m.counter(auto, "players_created_total", "Playback sessions opened")
	m.playbackSeeks = m.counter(auto, "playback_seeks_total", "Seeks performed by playback sessions")

	m.queueSize = m.gauge(auto, "queue_size", "Current size of the persistence queue")
	m.queueCapacity = m.gauge(auto, "queue_capacity", "Maximum persistence queue capacity")
	m.queueUtilization = m.gauge(auto, "queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter(auto, "queue_enqueue_total", "Total number of timelines enqueued")
	m.queueDequeueRate = m.counter(auto, "queue_dequeue_total", "Total number of timelines dequeued")
	m.queueEnqueueErrors = m.counter(auto, "queue_enqueue_errors_total", "Total number of enqueue errors")

	m.workerActiveCount = m.gauge(auto, "worker_active_count", "Number of busy persistence workers")
	m.workerIdleCount = m.gauge(auto, "worker_idle_count", "Number of idle persistence workers")
	m.workerProcessingLatency = m.histogram(auto, "worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter(auto, "worker_errors_total", "Total number of worker errors")

	m.httpRequests = m.counterVec(auto, "http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = m.counterVec(auto, "errors_by_endpoint_total", "Total number of errors by endpoint",
		"endpoint", "method", "error_type")
	m.errorsByComponent = m.counterVec(auto, "errors_by_component_total", "Total number of errors by component",
		"component", "error_type")
}

// Recorder metrics.

// RecordFrameRecorded increments the accepted frames counter.
func RecordFrameRecorded() { globalManager.framesRecorded.Inc() }

// RecordFrameThrottled increments the throttled frames counter.
func RecordFrameThrottled() { globalManager.framesThrottled.Inc() }

// RecordFrameDropped increments the capped frames counter.
func RecordFrameDropped() { globalManager.framesDropped.Inc() }

// RecordEventRecorded increments the logged events counter for kind.
func RecordEventRecorded(kind string) { globalManager.eventsRecorded.WithLabelValues(kind).Inc() }

// RecordEventDropped increments the capped events counter.
func RecordEventDropped() { globalManager.eventsDropped.Inc() }

// RecordDamageFiltered increments the insignificant damage counter.
func RecordDamageFiltered() { globalManager.damageFiltered.Inc() }

// RecordTimelineFinalized records finalize latency in milliseconds.
func RecordTimelineFinalized(latencyMs float64) { globalManager.finalizeLatency.Observe(latencyMs) }

// RecordHighlightDetected increments the highlight counter for kind.
func RecordHighlightDetected(kind string) {
	globalManager.highlightsDetected.WithLabelValues(kind).Inc()
}

// Replay service metrics.

// RecordReplaySubmitted increments the accepted submissions counter.
func RecordReplaySubmitted() { globalManager.replaysSubmitted.Inc() }

// RecordReplayDuplicate increments the duplicate submissions counter.
func RecordReplayDuplicate() { globalManager.replaysDuplicate.Inc() }

// RecordReplayRejected increments the rejected submissions counter.
func RecordReplayRejected() { globalManager.replaysRejected.Inc() }

// Store metrics.

// UpdateStoreSize sets the number of retained timelines.
func UpdateStoreSize(count int) { globalManager.storeSize.Set(float64(count)) }

// UpdateStoreBytes sets the encoded bytes held by the backend.
func UpdateStoreBytes(bytes int64) { globalManager.storeBytes.Set(float64(bytes)) }

// RecordStoreSaveLatency records store save latency in milliseconds.
func RecordStoreSaveLatency(latencyMs float64) { globalManager.storeSaveLatency.Observe(latencyMs) }

// RecordStoreEviction increments the eviction counter.
func RecordStoreEviction() { globalManager.storeEvictions.Inc() }

// RecordStoreShrink increments the failure-driven shrink counter.
func RecordStoreShrink() { globalManager.storeShrinks.Inc() }

// RecordStoreMemoryOnly increments the memory-only fallback counter.
func RecordStoreMemoryOnly() { globalManager.storeMemoryOnly.Inc() }

// RecordStoreDecimation increments the decimation counter.
func RecordStoreDecimation() { globalManager.storeDecimations.Inc() }

// RecordStoreBackendError records a backend failure.
func RecordStoreBackendError(backend, operation string) {
	globalManager.storeBackendError.WithLabelValues(backend, operation).Inc()
}

// RecordCompressionRatio records encoded size over raw size.
func RecordCompressionRatio(ratio float64) { globalManager.codecRatio.Observe(ratio) }

// Playback metrics.

// RecordPlayerCreated increments the playback sessions counter.
func RecordPlayerCreated() { globalManager.playersCreated.Inc() }

// RecordPlaybackSeek increments the seek counter.
func RecordPlaybackSeek() { globalManager.playbackSeeks.Inc() }

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueueRate.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeueRate.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// Worker metrics.

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) { globalManager.workerIdleCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
