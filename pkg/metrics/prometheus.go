// Package metrics provides Prometheus metrics for the QuestForge ETL service.
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

// Manager manages all Prometheus metrics for the QuestForge service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pipeline Metrics - What really matters for the ETL
	walletsProcessed  prometheus.Counter
	walletsFailed     prometheus.Counter
	walletRunDuration prometheus.Histogram
	loaderErrors      *prometheus.CounterVec
	challengesSkipped prometheus.Counter

	// Batch Metrics - Scheduled run health
	batchRuns        *prometheus.CounterVec
	batchRunDuration *prometheus.HistogramVec
	schedulerSkips   *prometheus.CounterVec

	// Classification Metrics - Tier and progress outcomes
	tierClassifications *prometheus.CounterVec
	foundersMarks       prometheus.Counter
	seasonComputations  prometheus.Counter
	leaderboardRuns     *prometheus.CounterVec

	// Operational Health Metrics
	trackedWallets prometheus.Gauge
	runInFlight    prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "questforge",
		subsystem:        "etl",
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
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Pipeline Metrics
	m.walletsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "wallets_processed_total",
		Help:      "Total number of wallets processed without error",
	})

	m.walletsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "wallets_failed_total",
		Help:      "Total number of wallet runs that recorded at least one error",
	})

	m.walletRunDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "wallet_run_duration_milliseconds",
		Help:      "Histogram of single-wallet pipeline duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.loaderErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "loader_errors_total",
			Help:      "Total number of loader stage errors by stage",
		},
		[]string{"stage"},
	)

	m.challengesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "challenges_skipped_total",
		Help:      "Total number of challenges skipped because their metric could not be resolved",
	})

	// Batch Metrics
	m.batchRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "batch_runs_total",
			Help:      "Total number of completed batch runs by mode",
		},
		[]string{"mode"},
	)

	m.batchRunDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "batch_run_duration_milliseconds",
			Help:      "Batch run duration in milliseconds by mode",
			Buckets:   []float64{100, 500, 1000, 5000, 15000, 60000, 300000, 900000},
		},
		[]string{"mode"},
	)

	m.schedulerSkips = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "scheduler_skips_total",
			Help:      "Total number of batch runs skipped because another run was in flight",
		},
		[]string{"mode"},
	)

	// Classification Metrics
	m.tierClassifications = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "tier_classifications_total",
			Help:      "Total number of tier classifications by resulting tier",
		},
		[]string{"tier"},
	)

	m.foundersMarks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "founders_marks_total",
		Help:      "Total number of Founder's Marks awarded",
	})

	m.seasonComputations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "season_computations_total",
		Help:      "Total number of season standing computations",
	})

	m.leaderboardRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "leaderboard_runs_total",
			Help:      "Total number of leaderboard runs by final status",
		},
		[]string{"status"},
	)

	// Operational Health Metrics
	m.trackedWallets = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_wallets",
		Help:      "Number of wallets covered by batch runs",
	})

	m.runInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_in_flight",
		Help:      "1 while a batch run holds the single-flight gate, 0 otherwise",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// System Performance Metrics
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
}

// RecordWalletProcessed increments the processed wallets counter.
func RecordWalletProcessed() {
	globalManager.walletsProcessed.Inc()
}

// RecordWalletFailed increments the failed wallets counter.
func RecordWalletFailed() {
	globalManager.walletsFailed.Inc()
}

// ObserveWalletRunDuration records one wallet pipeline duration in milliseconds.
func ObserveWalletRunDuration(durationMs float64) {
	globalManager.walletRunDuration.Observe(durationMs)
}

// RecordLoaderError increments the loader error counter for a stage.
func RecordLoaderError(stage string) {
	globalManager.loaderErrors.WithLabelValues(stage).Inc()
}

// RecordChallengeSkipped increments the skipped challenges counter.
func RecordChallengeSkipped() {
	globalManager.challengesSkipped.Inc()
}

// RecordBatchRun increments the batch run counter for a mode.
func RecordBatchRun(mode string) {
	globalManager.batchRuns.WithLabelValues(mode).Inc()
}

// ObserveBatchRunDuration records a batch run duration in milliseconds.
func ObserveBatchRunDuration(mode string, durationMs float64) {
	globalManager.batchRunDuration.WithLabelValues(mode).Observe(durationMs)
}

// RecordSchedulerSkip increments the skipped batch run counter for a mode.
func RecordSchedulerSkip(mode string) {
	globalManager.schedulerSkips.WithLabelValues(mode).Inc()
}

// RecordTierClass increments the classification counter for a tier.
func RecordTierClass(tier string) {
	globalManager.tierClassifications.WithLabelValues(tier).Inc()
}

// RecordFoundersMark increments the Founder's Mark counter.
func RecordFoundersMark() {
	globalManager.foundersMarks.Inc()
}

// RecordSeasonComputation increments the season computation counter.
func RecordSeasonComputation() {
	globalManager.seasonComputations.Inc()
}

// RecordLeaderboardRun increments the leaderboard run counter for a status.
func RecordLeaderboardRun(status string) {
	globalManager.leaderboardRuns.WithLabelValues(status).Inc()
}

// UpdateTrackedWallets sets the tracked wallet count.
func UpdateTrackedWallets(count int) {
	globalManager.trackedWallets.Set(float64(count))
}

// UpdateRunInFlight sets the single-flight gate gauge.
func UpdateRunInFlight(running bool) {
	if running {
		globalManager.runInFlight.Set(1)
	} else {
		globalManager.runInFlight.Set(0)
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
