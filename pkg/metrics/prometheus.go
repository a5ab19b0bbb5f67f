// Package metrics provides Prometheus metrics for the volunteer matching service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Matching
	matchOutcomes          *prometheus.CounterVec
	eligibilityEvaluations *prometheus.CounterVec
	activeRegistrations    prometheus.Gauge

	// Notifications
	notificationsEnqueued  *prometheus.CounterVec
	notificationsDelivered *prometheus.CounterVec
	notificationFailures   *prometheus.CounterVec
	natsPublishes          *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerActiveCount       prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Storage
	storeLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vmatch",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.matchOutcomes = auto.NewCounterVec(
		m.counterOpts("match_outcomes_total", "Match transactions by final state and rejection reason"),
		[]string{"state", "reason"},
	)
	m.eligibilityEvaluations = auto.NewCounterVec(
		m.counterOpts("eligibility_evaluations_total", "Eligibility checks by result"),
		[]string{"eligible"},
	)
	m.activeRegistrations = auto.NewGauge(m.gaugeOpts("registrations_active", "Active registrations held by the in-memory store"))

	m.notificationsEnqueued = auto.NewCounterVec(
		m.counterOpts("notifications_enqueued_total", "Notification requests accepted by the queue"),
		[]string{"type"},
	)
	m.notificationsDelivered = auto.NewCounterVec(
		m.counterOpts("notifications_delivered_total", "Notification requests delivered by workers"),
		[]string{"type"},
	)
	m.notificationFailures = auto.NewCounterVec(
		m.counterOpts("notification_failures_total", "Notification failures by stage"),
		[]string{"stage"},
	)
	m.natsPublishes = auto.NewCounterVec(
		m.counterOpts("nats_publishes_total", "NATS publishes by result"),
		[]string{"result"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Requests waiting in the notification queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Notification queue capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Requests enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Requests dequeued"))
	m.queueEnqueueErrors = auto.NewCounterVec(
		m.counterOpts("queue_enqueue_errors_total", "Rejected enqueue attempts by reason"),
		[]string{"reason"},
	)

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Running notification workers"))
	m.workerMessagesPerSecond = auto.NewGauge(m.gaugeOpts("worker_messages_per_second", "Requests processed per second across the pool"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"worker_processing_seconds", "Time to deliver one notification request", m.histogramBuckets))

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_operation_seconds", "Storage call latency by backend and operation", m.histogramBuckets),
		[]string{"backend", "operation"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_seconds", "HTTP request latency", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_seconds", "Most recent GC pause", prometheus.ExponentialBuckets(0.00001, 4, 8)))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// RecordMatchOutcome counts a finished match transaction.
func RecordMatchOutcome(state, reason string) {
	if reason == "" {
		reason = "none"
	}
	globalManager.matchOutcomes.WithLabelValues(state, reason).Inc()
}

// RecordEligibilityEvaluation counts one eligibility check.
func RecordEligibilityEvaluation(eligible bool) {
	globalManager.eligibilityEvaluations.WithLabelValues(boolLabel(eligible)).Inc()
}

// UpdateActiveRegistrations sets the active registration gauge.
func UpdateActiveRegistrations(n int) {
	globalManager.activeRegistrations.Set(float64(n))
}

// RecordNotificationEnqueued counts a request accepted by the queue.
func RecordNotificationEnqueued(notificationType string) {
	globalManager.notificationsEnqueued.WithLabelValues(notificationType).Inc()
}

// RecordNotificationDelivered counts a delivered request.
func RecordNotificationDelivered(notificationType string) {
	globalManager.notificationsDelivered.WithLabelValues(notificationType).Inc()
}

// RecordNotificationFailure counts a failure at stage (enqueue, deliver, publish).
func RecordNotificationFailure(stage string) {
	globalManager.notificationFailures.WithLabelValues(stage).Inc()
}

// RecordNATSPublish counts a NATS publish attempt by result (ok, error).
func RecordNATSPublish(result string) {
	globalManager.natsPublishes.WithLabelValues(result).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts a successful enqueue.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a dequeue.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
	globalManager.errorsByComponent.WithLabelValues("queue", reason).Inc()
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerMessagesPerSecond sets the pool throughput.
func UpdateWorkerMessagesPerSecond(rate float64) {
	globalManager.workerMessagesPerSecond.Set(rate)
}

// RecordWorkerProcessingLatency observes one delivery.
func RecordWorkerProcessingLatency(d time.Duration) {
	globalManager.workerProcessingLatency.Observe(d.Seconds())
}

// RecordStoreLatency observes one storage call.
func RecordStoreLatency(backend, operation string, d time.Duration) {
	globalManager.storeLatency.WithLabelValues(backend, operation).Observe(d.Seconds())
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the latest GC pause.
func RecordSystemGCPauseTime(pause time.Duration) {
	globalManager.systemGCPauseTime.Observe(pause.Seconds())
}
