// Package metrics provides Prometheus metrics for the skillsift service.
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

// Manager manages all Prometheus metrics for the skillsift service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Extraction Metrics - Throughput and quality of the ensemble pipeline
	extractionsTotal  prometheus.Counter
	extractionLatency prometheus.Histogram
	skillsReturned    prometheus.Histogram
	extractorErrors   *prometheus.CounterVec

	// Feedback Metrics
	feedbackRecorded prometheus.Counter
	retrainsTotal    prometheus.Counter

	// Experiment Metrics - Test lifecycle and traffic routing
	testsCreated   prometheus.Counter
	assignments    prometheus.Counter
	observations   prometheus.Counter
	observationDup prometheus.Counter

	// Queue Metrics - Observation queue health
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueEnqueueErrs prometheus.Counter

	// Worker Metrics - Observation processing
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "skillsift",
		subsystem:        "extraction",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.extractionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extractions_total",
		Help:      "Total number of ensemble extraction requests processed",
	})

	m.extractionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extraction_latency_milliseconds",
		Help:      "Histogram of end-to-end ensemble extraction latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.skillsReturned = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "skills_returned",
		Help:      "Histogram of skill counts returned per extraction",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	m.extractorErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "extractor_errors_total",
			Help:      "Total number of individual extractor failures by method",
		},
		[]string{"method"},
	)

	m.feedbackRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feedback_recorded_total",
		Help:      "Total number of user feedback samples recorded",
	})

	m.retrainsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "retrains_total",
		Help:      "Total number of threshold retrain runs",
	})

	m.testsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "experiment",
		Name:      "tests_created_total",
		Help:      "Total number of A/B tests created",
	})

	m.assignments = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "experiment",
		Name:      "assignments_total",
		Help:      "Total number of new variant assignments",
	})

	m.observations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "experiment",
		Name:      "observations_total",
		Help:      "Total number of metric observations recorded",
	})

	m.observationDup = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "experiment",
		Name:      "observations_duplicate_total",
		Help:      "Total number of duplicate observations rejected",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "size",
		Help:      "Current size of the observation queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "capacity",
		Help:      "Maximum observation queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "utilization_ratio",
		Help:      "Queue utilization ratio (current size / capacity)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "enqueue_total",
		Help:      "Total number of observations enqueued",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "dequeue_total",
		Help:      "Total number of observations dequeued",
	})

	m.queueEnqueueErrs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "enqueue_errors_total",
		Help:      "Total number of enqueue rejections (queue full)",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "count",
		Help:      "Current number of observation workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "processing_latency_milliseconds",
		Help:      "Worker observation processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "errors_total",
		Help:      "Total number of worker processing errors",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordExtraction records one completed extraction and its latency.
func RecordExtraction(latencyMs float64) {
	globalManager.extractionsTotal.Inc()
	globalManager.extractionLatency.Observe(latencyMs)
}

// RecordSkillsReturned records how many skills one extraction yielded.
func RecordSkillsReturned(count int) {
	globalManager.skillsReturned.Observe(float64(count))
}

// RecordExtractorError increments the failure counter for one method.
func RecordExtractorError(method string) {
	globalManager.extractorErrors.WithLabelValues(method).Inc()
}

// RecordFeedback increments the feedback samples counter.
func RecordFeedback() {
	globalManager.feedbackRecorded.Inc()
}

// RecordRetrain increments the retrain runs counter.
func RecordRetrain() {
	globalManager.retrainsTotal.Inc()
}

// RecordTestCreated increments the tests created counter.
func RecordTestCreated() {
	globalManager.testsCreated.Inc()
}

// RecordAssignment increments the new assignments counter.
func RecordAssignment() {
	globalManager.assignments.Inc()
}

// RecordObservation increments the observations counter.
func RecordObservation() {
	globalManager.observations.Inc()
}

// RecordObservationDuplicate increments the duplicate observations counter.
func RecordObservationDuplicate() {
	globalManager.observationDup.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueEnqueueError increments the enqueue rejection counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrs.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
