package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Feeds
	feedFetchDuration *prometheus.HistogramVec
	feedFetchErrors   *prometheus.CounterVec
	feedRecords       *prometheus.GaugeVec

	// Fusion pipeline
	snapshotBuilds        *prometheus.CounterVec
	snapshotBuildDuration prometheus.Histogram
	sectionDegraded       *prometheus.CounterVec
	identityDrops         *prometheus.CounterVec
	ownershipConflicts    prometheus.Counter
	tierCount             *prometheus.GaugeVec

	// Cache
	cacheRequests *prometheus.CounterVec

	// Refresh scheduler
	refreshQueueSize prometheus.Gauge
	refreshWorkers   prometheus.Gauge
	refreshProcessed prometheus.Counter
	refreshErrors    prometheus.Counter
	refreshLatency   prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry exposed on /healthz

var globalManager = NewManager(WithPrometheusRegistry(customRegistry)) //nolint:gochecknoglobals // package-level recorders

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rosterlens",
		subsystem:        "engine",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.feedFetchDuration = auto.NewHistogramVec(
		m.histogramOpts("feed_fetch_duration_milliseconds", "Upstream feed pull latency in milliseconds"),
		[]string{"source"})
	m.feedFetchErrors = auto.NewCounterVec(
		m.counterOpts("feed_fetch_errors_total", "Upstream feed pulls that failed or timed out"),
		[]string{"source"})
	m.feedRecords = auto.NewGaugeVec(
		m.gaugeOpts("feed_records", "Records returned by the last successful pull"),
		[]string{"source"})

	m.snapshotBuilds = auto.NewCounterVec(
		m.counterOpts("snapshot_builds_total", "Snapshot requests by outcome (built, cached, unchanged, stale, failed)"),
		[]string{"outcome"})
	m.snapshotBuildDuration = auto.NewHistogram(
		m.histogramOpts("snapshot_build_duration_milliseconds", "Full fusion pipeline duration in milliseconds"))
	m.sectionDegraded = auto.NewCounterVec(
		m.counterOpts("section_degraded_total", "Snapshot sections published as unavailable"),
		[]string{"section"})
	m.identityDrops = auto.NewCounterVec(
		m.counterOpts("identity_drops_total", "Roster records dropped for failed identity resolution"),
		[]string{"source"})
	m.ownershipConflicts = auto.NewCounter(
		m.counterOpts("ownership_conflicts_total", "Players claimed by more than one owner in a league"))
	m.tierCount = auto.NewGaugeVec(
		m.gaugeOpts("tier_count", "Tiers produced for the latest snapshot"),
		[]string{"position", "scope"})

	m.cacheRequests = auto.NewCounterVec(
		m.counterOpts("cache_requests_total", "Snapshot cache lookups by result"),
		[]string{"result"})

	m.refreshQueueSize = auto.NewGauge(m.gaugeOpts("refresh_queue_size", "Pending league refresh requests"))
	m.refreshWorkers = auto.NewGauge(m.gaugeOpts("refresh_workers", "Running refresh workers"))
	m.refreshProcessed = auto.NewCounter(m.counterOpts("refresh_processed_total", "Completed league refreshes"))
	m.refreshErrors = auto.NewCounter(m.counterOpts("refresh_errors_total", "League refreshes that returned an error"))
	m.refreshLatency = auto.NewHistogram(
		m.histogramOpts("refresh_latency_milliseconds", "Time from enqueue to refresh completion in milliseconds"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})
}

// RecordFeedFetch records a successful pull and its record count.
func RecordFeedFetch(source string, latencyMs float64, records int) {
	globalManager.feedFetchDuration.WithLabelValues(source).Observe(latencyMs)
	globalManager.feedRecords.WithLabelValues(source).Set(float64(records))
}

// RecordFeedError increments the feed error counter.
func RecordFeedError(source string) {
	globalManager.feedFetchErrors.WithLabelValues(source).Inc()
}

// RecordSnapshot counts a snapshot request by outcome.
func RecordSnapshot(outcome string) {
	globalManager.snapshotBuilds.WithLabelValues(outcome).Inc()
}

// RecordSnapshotBuildDuration records pipeline latency.
func RecordSnapshotBuildDuration(latencyMs float64) {
	globalManager.snapshotBuildDuration.Observe(latencyMs)
}

// RecordSectionDegraded counts a section published without data.
func RecordSectionDegraded(section string) {
	globalManager.sectionDegraded.WithLabelValues(section).Inc()
}

// RecordIdentityDrop counts a roster record that could not be matched.
func RecordIdentityDrop(source string) {
	globalManager.identityDrops.WithLabelValues(source).Inc()
}

// RecordOwnershipConflict counts a duplicate-owner conflict.
func RecordOwnershipConflict() {
	globalManager.ownershipConflicts.Inc()
}

// UpdateTierCount sets the number of tiers for a position and scope.
func UpdateTierCount(position, scope string, count int) {
	globalManager.tierCount.WithLabelValues(position, scope).Set(float64(count))
}

// RecordCacheHit counts a cache hit.
func RecordCacheHit() { globalManager.cacheRequests.WithLabelValues("hit").Inc() }

// RecordCacheMiss counts a cache miss.
func RecordCacheMiss() { globalManager.cacheRequests.WithLabelValues("miss").Inc() }

// UpdateRefreshQueueSize sets the refresh backlog.
func UpdateRefreshQueueSize(size int) {
	globalManager.refreshQueueSize.Set(float64(size))
}

// UpdateRefreshWorkers sets the number of running refresh workers.
func UpdateRefreshWorkers(count int) {
	globalManager.refreshWorkers.Set(float64(count))
}

// RecordRefresh records a completed refresh.
func RecordRefresh(latencyMs float64, err error) {
	globalManager.refreshProcessed.Inc()
	globalManager.refreshLatency.Observe(latencyMs)
	if err != nil {
		globalManager.refreshErrors.Inc()
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
