package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for match key ingestion

var (
	// API Call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchkeys_api_calls_total",
			Help: "Total number of BetsAPI events calls",
		},
		[]string{"scope", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchkeys_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scope"},
	)

	// Pagination metrics
	PagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchkeys_pages_fetched_total",
			Help: "Total number of non-empty result pages fetched",
		},
		[]string{"scope"},
	)

	FetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchkeys_fetch_errors_total",
			Help: "Total number of per-page error records",
		},
		[]string{"kind"},
	)

	EventsNormalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchkeys_events_normalized_total",
			Help: "Total number of events normalized into rows",
		},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchkeys_db_queries_total",
			Help: "Total number of warehouse queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchkeys_db_query_duration_seconds",
			Help:    "Duration of warehouse queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchkeys_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchkeys_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	RowsLoadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchkeys_rows_loaded_total",
			Help: "Total number of rows bulk-loaded into the warehouse",
		},
	)

	// Sync metrics
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchkeys_sync_operations_total",
			Help: "Total number of scheduled sync runs",
		},
		[]string{"status"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchkeys_sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchkeys_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchkeys_last_successful_sync_timestamp",
			Help: "Timestamp of the last sync run that loaded its partition, complete or partial",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(scope, status string, duration float64) {
	APICallsTotal.WithLabelValues(scope, status).Inc()
	APICallDuration.WithLabelValues(scope).Observe(duration)
}

// RecordPage records a non-empty page
func RecordPage(scope string) {
	PagesFetchedTotal.WithLabelValues(scope).Inc()
}

// RecordFetchError records a per-page error record
func RecordFetchError(kind string) {
	FetchErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, status).Inc()
	DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// RecordRowsLoaded records rows written by COPY
func RecordRowsLoaded(n int64) {
	RowsLoadedTotal.Add(float64(n))
}

// RecordSync records a sync run. The last-sync gauge advances whenever the
// run loaded its partition, including partial runs.
func RecordSync(status string, loaded bool, duration float64) {
	SyncOperationsTotal.WithLabelValues(status).Inc()
	SyncDuration.Observe(duration)

	if loaded {
		LastSuccessfulSync.SetToCurrentTime()
	}
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
