// Package metrics provides Prometheus metrics for the guildsnap pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Endpoint label values.
const (
	EndpointRoster  = "roster"
	EndpointProfile = "profile"
)

// Outcome label values.
const (
	OutcomeSuccess   = "success"
	OutcomeRetryable = "retryable"
	OutcomeTerminal  = "terminal"
	OutcomeMalformed = "malformed"
)

// Manager owns every Prometheus collector used by the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Remote calls
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// Rate governor
	governorWait      prometheus.Histogram
	governorPenalties prometheus.Counter

	// Inputs and identity table
	guildsLoaded  prometheus.Gauge
	inputsSkipped *prometheus.CounterVec
	playersTotal  prometheus.Gauge

	// Enrichment
	queueSize         prometheus.Gauge
	workerCount       prometheus.Gauge
	unknownCharacters prometheus.Counter

	// Retry pass
	retryQueueSize prometheus.Gauge
	retryResults   *prometheus.CounterVec

	// Snapshot
	snapshotWriteDuration prometheus.Histogram
	snapshotBytes         prometheus.Gauge
	snapshotLastSuccess   prometheus.Gauge

	runDuration prometheus.Gauge

	// Status server
	httpRequests *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "guildsnap",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

// initializeMetrics creates and registers all collectors.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.requests = auto.NewCounterVec(
		m.counterOpts("requests_total", "Remote API calls by endpoint and outcome"),
		[]string{"endpoint", "outcome"},
	)
	m.requestDuration = auto.NewHistogramVec(
		m.histogramOpts("request_duration_seconds", "Remote API call latency in seconds"),
		[]string{"endpoint"},
	)

	m.governorWait = auto.NewHistogram(
		m.histogramOpts("governor_wait_seconds", "Time spent waiting for a rate-limit slot"),
	)
	m.governorPenalties = auto.NewCounter(
		m.counterOpts("governor_penalties_total", "Cooldowns forced by rate-limit responses"),
	)

	m.guildsLoaded = auto.NewGauge(
		m.gaugeOpts("guilds_loaded", "Guild identifiers loaded for this run"),
	)
	m.inputsSkipped = auto.NewCounterVec(
		m.counterOpts("input_lines_skipped_total", "Input lines skipped by source and reason"),
		[]string{"source", "reason"},
	)
	m.playersTotal = auto.NewGauge(
		m.gaugeOpts("players_total", "Unique players in the identity table"),
	)

	m.queueSize = auto.NewGauge(
		m.gaugeOpts("enrichment_queue_size", "Players waiting for enrichment"),
	)
	m.workerCount = auto.NewGauge(
		m.gaugeOpts("enrichment_workers", "Enrichment workers running"),
	)
	m.unknownCharacters = auto.NewCounter(
		m.counterOpts("unknown_characters_total", "Players reported as not found by the API"),
	)

	m.retryQueueSize = auto.NewGauge(
		m.gaugeOpts("retry_queue_size", "Entries waiting for the retry pass"),
	)
	m.retryResults = auto.NewCounterVec(
		m.counterOpts("retry_results_total", "Retry pass results by target kind"),
		[]string{"kind", "result"},
	)

	m.snapshotWriteDuration = auto.NewHistogram(
		m.histogramOpts("snapshot_write_seconds", "Time to write and commit the snapshot"),
	)
	m.snapshotBytes = auto.NewGauge(
		m.gaugeOpts("snapshot_bytes", "Size of the last committed snapshot"),
	)
	m.snapshotLastSuccess = auto.NewGauge(
		m.gaugeOpts("snapshot_last_success_unixtime", "Unix time of the last committed snapshot"),
	)

	m.runDuration = auto.NewGauge(
		m.gaugeOpts("run_duration_seconds", "Wall-clock duration of the last run"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Requests served by the status server"),
		[]string{"endpoint", "method", "status"},
	)
}

// RecordRequest counts one remote call and observes its latency.
func RecordRequest(endpoint, outcome string, seconds float64) {
	globalManager.requests.WithLabelValues(endpoint, outcome).Inc()
	globalManager.requestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// RecordGovernorWait observes time spent blocked on the rate governor.
func RecordGovernorWait(seconds float64) {
	globalManager.governorWait.Observe(seconds)
}

// RecordGovernorPenalty counts a forced cooldown.
func RecordGovernorPenalty() {
	globalManager.governorPenalties.Inc()
}

// UpdateGuildsLoaded sets the number of guilds loaded.
func UpdateGuildsLoaded(count int) {
	globalManager.guildsLoaded.Set(float64(count))
}

// RecordInputSkipped counts a skipped input line.
func RecordInputSkipped(source, reason string) {
	globalManager.inputsSkipped.WithLabelValues(source, reason).Inc()
}

// UpdatePlayersTotal sets the identity table size.
func UpdatePlayersTotal(count int) {
	globalManager.playersTotal.Set(float64(count))
}

// UpdateQueueSize sets the enrichment backlog.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the number of enrichment workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordUnknownCharacter counts a terminal not-found player.
func RecordUnknownCharacter() {
	globalManager.unknownCharacters.Inc()
}

// UpdateRetryQueueSize sets the retry backlog.
func UpdateRetryQueueSize(size int) {
	globalManager.retryQueueSize.Set(float64(size))
}

// RecordRetryResult counts a retry pass result ("recovered" or "dropped").
func RecordRetryResult(kind, result string) {
	globalManager.retryResults.WithLabelValues(kind, result).Inc()
}

// RecordSnapshotWrite observes a committed snapshot.
func RecordSnapshotWrite(seconds float64, size int64, unixTime int64) {
	globalManager.snapshotWriteDuration.Observe(seconds)
	globalManager.snapshotBytes.Set(float64(size))
	globalManager.snapshotLastSuccess.Set(float64(unixTime))
}

// UpdateRunDuration sets the duration of the last run.
func UpdateRunDuration(seconds float64) {
	globalManager.runDuration.Set(seconds)
}

// RecordHTTPRequest counts one request served by the status server.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
