package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Per-user streak sync outcomes.
	StreakSyncCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streak_sync_total",
			Help: "Total number of per-user streak sync attempts",
		},
		[]string{"status"}, // status: synced, skipped, failed
	)

	// Duration of one full SyncAll pass.
	SyncBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streak_sync_batch_duration_seconds",
			Help:    "Duration of a full batched streak sync pass in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~100s
		},
	)

	// Leaderboard score writes.
	LeaderboardUpdateCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_update_total",
			Help: "Total number of leaderboard score updates",
		},
		[]string{"status"}, // status: success, failed
	)

	// HTTP request latency (seconds).
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Slow database queries.
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Total number of slow database queries",
		},
		[]string{"sql"},
	)
)

// IncrementStreakSync records one per-user sync outcome.
func IncrementStreakSync(status string) {
	StreakSyncCount.WithLabelValues(status).Inc()
}

// RecordSyncBatchDuration records the duration of a SyncAll pass.
func RecordSyncBatchDuration(duration time.Duration) {
	SyncBatchDuration.Observe(duration.Seconds())
}

// IncrementLeaderboardUpdate records one leaderboard write outcome.
func IncrementLeaderboardUpdate(status string) {
	LeaderboardUpdateCount.WithLabelValues(status).Inc()
}

// RecordHTTPRequestDuration records HTTP request latency.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementSlowQuery counts one query over the slow threshold.
func IncrementSlowQuery(sql string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(sql).Inc()
}
