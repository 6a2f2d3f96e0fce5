// Package metrics provides Prometheus metrics for the mvpcast pipeline and service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the mvpcast service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Source loading
	sourceRowsLoaded      *prometheus.CounterVec
	sourceOptionalMissing *prometheus.CounterVec

	// Panel construction
	panelRowsDropped *prometheus.CounterVec
	panelRows        prometheus.Gauge
	stageDuration    *prometheus.HistogramVec

	// Features and model
	featureColumnsMissing prometheus.Counter
	modelCVMAE            *prometheus.GaugeVec
	modelValidationMAE    *prometheus.GaugeVec

	// Leaderboards
	leaderboardEmptySeasons prometheus.Counter
	forecasts               *prometheus.CounterVec

	// Warm-up queue
	queueSize  prometheus.Gauge
	warmupJobs *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mvpcast",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.sourceRowsLoaded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("source_rows_loaded_total"),
			Help:        "Rows read from raw season tables",
			ConstLabels: labels,
		},
		[]string{"table"},
	)

	m.sourceOptionalMissing = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("source_optional_missing_total"),
			Help:        "Optional season tables that were absent and synthesized empty",
			ConstLabels: labels,
		},
		[]string{"table"},
	)

	m.panelRowsDropped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("panel_rows_dropped_total"),
			Help:        "Rows removed while building season datasets and panels",
			ConstLabels: labels,
		},
		[]string{"reason"},
	)

	m.panelRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("panel_rows"),
		Help:        "Rows in the most recently built panel",
		ConstLabels: labels,
	})

	m.stageDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("stage_duration_milliseconds"),
			Help:        "Duration of pipeline stages in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"stage"},
	)

	m.featureColumnsMissing = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("feature_columns_missing_total"),
		Help:        "Feature columns requested by a model but absent from scoring data",
		ConstLabels: labels,
	})

	m.modelCVMAE = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("model_cv_mae"),
			Help:        "Leave-one-season-out MAE of the last fitted model of each kind",
			ConstLabels: labels,
		},
		[]string{"model"},
	)

	m.modelValidationMAE = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("model_validation_mae"),
			Help:        "Validation season MAE of the last fitted model of each kind",
			ConstLabels: labels,
		},
		[]string{"model"},
	)

	m.leaderboardEmptySeasons = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("leaderboard_empty_seasons_total"),
		Help:        "Seasons whose leaderboard was empty after the minimum-games filter",
		ConstLabels: labels,
	})

	m.forecasts = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("forecasts_total"),
			Help:        "Forecast runs by outcome",
			ConstLabels: labels,
		},
		[]string{"status"},
	)

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("warmup_queue_size"),
		Help:        "Forecast warm-up jobs waiting in the queue",
		ConstLabels: labels,
	})

	m.warmupJobs = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("warmup_jobs_total"),
			Help:        "Forecast warm-up jobs by outcome",
			ConstLabels: labels,
		},
		[]string{"status"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Total number of errors by component",
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "Heap bytes allocated",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "Average GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// Enabled reports whether recording is active for the manager.
func (m *Manager) Enabled() bool { return m.enabled }

// RecordSourceRows adds n loaded rows for a source table.
func RecordSourceRows(table string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.sourceRowsLoaded.WithLabelValues(table).Add(float64(n))
}

// RecordOptionalMissing counts an optional table that had to be synthesized.
func RecordOptionalMissing(table string) {
	if !globalManager.enabled {
		return
	}
	globalManager.sourceOptionalMissing.WithLabelValues(table).Inc()
}

// RecordRowsDropped adds n rows removed for the given reason.
func RecordRowsDropped(reason string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.panelRowsDropped.WithLabelValues(reason).Add(float64(n))
}

// UpdatePanelRows sets the size of the latest panel.
func UpdatePanelRows(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.panelRows.Set(float64(n))
}

// RecordStageDuration records how long a pipeline stage took.
func RecordStageDuration(stage string, ms float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.stageDuration.WithLabelValues(stage).Observe(ms)
}

// RecordFeatureColumnsMissing adds n model columns absent at scoring time.
func RecordFeatureColumnsMissing(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.featureColumnsMissing.Add(float64(n))
}

// UpdateModel sets the cross-validated and validation MAE of a model kind.
func UpdateModel(kind string, cvMAE, validationMAE float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.modelCVMAE.WithLabelValues(kind).Set(cvMAE)
	globalManager.modelValidationMAE.WithLabelValues(kind).Set(validationMAE)
}

// RecordLeaderboardEmpty counts a season whose leaderboard came out empty.
func RecordLeaderboardEmpty() {
	if !globalManager.enabled {
		return
	}
	globalManager.leaderboardEmptySeasons.Inc()
}

// RecordForecast counts a forecast by status ("success", "error", "cached").
func RecordForecast(status string) {
	if !globalManager.enabled {
		return
	}
	globalManager.forecasts.WithLabelValues(status).Inc()
}

// UpdateQueueSize sets the number of queued warm-up jobs.
func UpdateQueueSize(n int) {
	globalManager.queueSize.Set(float64(n))
}

// RecordWarmupJob counts a warm-up job by status ("success", "error", "rejected").
func RecordWarmupJob(status string) {
	if !globalManager.enabled {
		return
	}
	globalManager.warmupJobs.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
