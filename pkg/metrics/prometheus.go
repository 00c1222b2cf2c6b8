// Package metrics provides Prometheus metrics for the AgentPulse service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Jobs
	jobsTotal   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec

	// Upstream marketplace
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	fetchStrategies  *prometheus.CounterVec
	resolverSteps    *prometheus.CounterVec
	peerFetchErrors  prometheus.Counter

	// Result sink
	sinkDeliveries    *prometheus.CounterVec
	sinkQueueSize     prometheus.Gauge
	sinkQueueCapacity prometheus.Gauge
	sinkWorkers       prometheus.Gauge
	sinkLatency       prometheus.Histogram

	// Result store
	resultsStored prometheus.Gauge
	resultsSaved  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // custom registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "agentpulse",
		subsystem:        "analytics",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all collectors
	auto := promauto.With(m.registry)

	m.jobsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_total",
		Help:      "Jobs executed by offering and outcome",
	}, []string{"offering", "outcome"})

	m.jobDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_duration_milliseconds",
		Help:      "Job execution latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"offering"})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_requests_total",
		Help:      "Requests sent to the marketplace API by endpoint and status",
	}, []string{"endpoint", "status"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_latency_milliseconds",
		Help:      "Marketplace API latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint"})

	m.fetchStrategies = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_strategy_total",
		Help:      "Metrics fetch strategy attempts by strategy and outcome",
	}, []string{"strategy", "outcome"})

	m.resolverSteps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolver_resolutions_total",
		Help:      "Agent reference resolutions by winning step",
	}, []string{"step"})

	m.peerFetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "peer_fetch_errors_total",
		Help:      "Competitor peer fetches that failed and were defaulted",
	})

	m.sinkDeliveries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sink_deliveries_total",
		Help:      "Result sink deliveries by outcome",
	}, []string{"outcome"})

	m.sinkQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sink_queue_size",
		Help:      "Deliveries waiting in the sink queue",
	})

	m.sinkQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sink_queue_capacity",
		Help:      "Capacity of the sink queue",
	})

	m.sinkWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sink_workers",
		Help:      "Number of sink delivery workers",
	})

	m.sinkLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sink_delivery_latency_milliseconds",
		Help:      "Webhook delivery latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.resultsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_stored",
		Help:      "Results currently held by the result store",
	})

	m.resultsSaved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_saved_total",
		Help:      "Results accepted by the webhook receiver",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Allocated heap bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Number of goroutines",
	})
}

// RecordJob counts a job execution and observes its latency.
func RecordJob(offering, outcome string, latencyMs float64) {
	globalManager.jobsTotal.WithLabelValues(offering, outcome).Inc()
	globalManager.jobDuration.WithLabelValues(offering).Observe(latencyMs)
}

// RecordUpstreamRequest counts a marketplace API call.
func RecordUpstreamRequest(endpoint, status string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, status).Inc()
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordFetchStrategy counts one metrics fetch strategy attempt.
func RecordFetchStrategy(strategy, outcome string) {
	globalManager.fetchStrategies.WithLabelValues(strategy, outcome).Inc()
}

// RecordResolution counts a resolved agent reference by the step that resolved it.
func RecordResolution(step string) {
	globalManager.resolverSteps.WithLabelValues(step).Inc()
}

// RecordPeerFetchError counts a failed competitor peer fetch.
func RecordPeerFetchError() {
	globalManager.peerFetchErrors.Inc()
}

// RecordSinkDelivery counts a sink delivery by outcome.
func RecordSinkDelivery(outcome string) {
	globalManager.sinkDeliveries.WithLabelValues(outcome).Inc()
}

// RecordSinkLatency observes a webhook POST latency.
func RecordSinkLatency(latencyMs float64) {
	globalManager.sinkLatency.Observe(latencyMs)
}

// UpdateSinkQueueSize sets the sink queue depth.
func UpdateSinkQueueSize(size int) {
	globalManager.sinkQueueSize.Set(float64(size))
}

// UpdateSinkQueueCapacity sets the sink queue capacity.
func UpdateSinkQueueCapacity(capacity int) {
	globalManager.sinkQueueCapacity.Set(float64(capacity))
}

// UpdateSinkWorkers sets the number of sink workers.
func UpdateSinkWorkers(count int) {
	globalManager.sinkWorkers.Set(float64(count))
}

// UpdateResultsStored sets the number of results held by the store.
func UpdateResultsStored(count int) {
	globalManager.resultsStored.Set(float64(count))
}

// RecordResultSaved counts a result accepted by the store.
func RecordResultSaved() {
	globalManager.resultsSaved.Inc()
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an HTTP error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry that backs the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
