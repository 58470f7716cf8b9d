// Package metrics provides Prometheus metrics for the relay optimizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	nodeBuckets      []float64
	enabled          bool
	registry         prometheus.Registerer

	// Optimization
	optimizations       *prometheus.CounterVec
	optimizationLatency *prometheus.HistogramVec
	solverNodes         prometheus.Histogram
	teamsFormed         *prometheus.CounterVec
	unassignedSwimmers  prometheus.Gauge

	// Quota
	feasibilityRejections *prometheus.CounterVec
	quotaAborts           *prometheus.CounterVec

	// Dataset
	datasetSwimmers    prometheus.Gauge
	datasetCategories  prometheus.Gauge
	validationFailures prometheus.Counter

	// Jobs
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	jobsEnqueued   prometheus.Counter
	jobsRejected   prometheus.Counter
	jobsDuplicate  prometheus.Counter
	jobsCompleted  *prometheus.CounterVec
	workerBusy     prometheus.Gauge
	jobHistorySize prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "relay",
		subsystem:        "optimizer",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		nodeBuckets:      prometheus.ExponentialBuckets(1, 4, 10),
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)

	m.optimizations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "optimizations_total",
		Help:      "Optimization runs by mode and outcome",
	}, []string{"mode", "status"})

	m.optimizationLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "optimization_latency_milliseconds",
		Help:      "Wall time of an optimization run in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"mode"})

	m.solverNodes = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solver_nodes",
		Help:      "Branch-and-bound nodes explored per solve",
		Buckets:   m.nodeBuckets,
	})

	m.teamsFormed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teams_formed_total",
		Help:      "Teams returned to callers by mode",
	}, []string{"mode"})

	m.unassignedSwimmers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unassigned_swimmers",
		Help:      "Swimmers left without a team by the last run",
	})

	m.feasibilityRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feasibility_rejections_total",
		Help:      "Quota categories rejected by the pre-check, by reason",
	}, []string{"reason"})

	m.quotaAborts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quota_aborts_total",
		Help:      "Quota runs that stopped before finishing, by kind",
	}, []string{"kind"})

	m.datasetSwimmers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_swimmers",
		Help:      "Swimmers in the current dataset",
	})

	m.datasetCategories = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_categories",
		Help:      "Categories in the current dataset",
	})

	m.validationFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "validation_failures_total",
		Help:      "Rejected dataset uploads and requests",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_queue_size",
		Help:      "Jobs waiting in the queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_queue_capacity",
		Help:      "Maximum jobs the queue can hold",
	})

	m.jobsEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_enqueued_total",
		Help:      "Jobs accepted into the queue",
	})

	m.jobsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_rejected_total",
		Help:      "Jobs refused because the queue was full or closed",
	})

	m.jobsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_duplicate_total",
		Help:      "Job submissions answered from an idempotency key",
	})

	m.jobsCompleted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_completed_total",
		Help:      "Jobs finished by the worker, by final state",
	}, []string{"state"})

	m.workerBusy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_busy",
		Help:      "1 while the worker is running a job",
	})

	m.jobHistorySize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_history_size",
		Help:      "Jobs retained in the repository",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
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
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "type"})
}

// RecordOptimization records one finished run.
func (m *Manager) RecordOptimization(mode, status string, latencyMs float64, nodes int) {
	if !m.enabled {
		return
	}
	m.optimizations.WithLabelValues(mode, status).Inc()
	m.optimizationLatency.WithLabelValues(mode).Observe(latencyMs)
	if nodes > 0 {
		m.solverNodes.Observe(float64(nodes))
	}
}

// RecordTeams records the teams and leftovers of a successful run.
func (m *Manager) RecordTeams(mode string, teams, unassigned int) {
	if !m.enabled {
		return
	}
	m.teamsFormed.WithLabelValues(mode).Add(float64(teams))
	m.unassignedSwimmers.Set(float64(unassigned))
}

func (m *Manager) counter(c prometheus.Counter) {
	if m.enabled {
		c.Inc()
	}
}

func (m *Manager) gauge(g prometheus.Gauge, v float64) {
	if m.enabled {
		g.Set(v)
	}
}

// RecordOptimization records one finished run.
func RecordOptimization(mode, status string, latencyMs float64, nodes int) {
	globalManager.RecordOptimization(mode, status, latencyMs, nodes)
}

// RecordTeams records the teams and leftovers of a successful run.
func RecordTeams(mode string, teams, unassigned int) {
	globalManager.RecordTeams(mode, teams, unassigned)
}

// RecordFeasibilityRejection counts a pre-check rejection.
func RecordFeasibilityRejection(reason string) {
	globalManager.counter(globalManager.feasibilityRejections.WithLabelValues(reason))
}

// RecordQuotaAbort counts an aborted quota run.
func RecordQuotaAbort(kind string) {
	globalManager.counter(globalManager.quotaAborts.WithLabelValues(kind))
}

// UpdateDatasetSize sets the dataset gauges.
func UpdateDatasetSize(swimmers, categories int) {
	globalManager.gauge(globalManager.datasetSwimmers, float64(swimmers))
	globalManager.gauge(globalManager.datasetCategories, float64(categories))
}

// RecordValidationFailure counts a rejected upload or request.
func RecordValidationFailure() {
	globalManager.counter(globalManager.validationFailures)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.gauge(globalManager.queueSize, float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.gauge(globalManager.queueCapacity, float64(capacity))
}

// RecordJobEnqueued counts an accepted job.
func RecordJobEnqueued() {
	globalManager.counter(globalManager.jobsEnqueued)
}

// RecordJobRejected counts a refused job.
func RecordJobRejected() {
	globalManager.counter(globalManager.jobsRejected)
}

// RecordJobDuplicate counts a submission answered from an idempotency key.
func RecordJobDuplicate() {
	globalManager.counter(globalManager.jobsDuplicate)
}

// RecordJobCompleted counts a finished job.
func RecordJobCompleted(state string) {
	globalManager.counter(globalManager.jobsCompleted.WithLabelValues(state))
}

// UpdateWorkerBusy flags whether the worker is running a job.
func UpdateWorkerBusy(busy bool) {
	v := 0.0
	if busy {
		v = 1
	}
	globalManager.gauge(globalManager.workerBusy, v)
}

// UpdateJobHistorySize sets the retained job count.
func UpdateJobHistorySize(n int) {
	globalManager.gauge(globalManager.jobHistorySize, float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.counter(globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode))
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.counter(globalManager.errorsByComponent.WithLabelValues(component, errorType))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
