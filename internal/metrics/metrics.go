package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signage_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Playlist metrics
var (
	PlaylistFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_playlist_fetches_total",
			Help: "Total number of playlist fetches by outcome",
		},
		[]string{"status"}, // "success", "error"
	)

	PlaylistFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signage_playlist_fetch_duration_seconds",
			Help:    "Playlist fetch duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	PlaylistItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_playlist_items",
			Help: "Number of items in the current playlist",
		},
	)

	PlaylistLastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_playlist_last_success_timestamp",
			Help: "Unix timestamp of the last successful playlist fetch",
		},
	)
)

// Player metrics
var (
	SlidesShownTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_slides_shown_total",
			Help: "Total number of slides shown to completion",
		},
	)

	SlideShownDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signage_slide_shown_duration_seconds",
			Help:    "Time a slide stayed on screen, including its exit transition",
			Buckets: []float64{3, 5, 10, 15, 20, 30, 60, 120, 300},
		},
	)

	SlideSegments = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signage_slide_segments",
			Help:    "Number of segments per displayed slide",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12, 16},
		},
	)

	ItemsMissingTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_items_missing_total",
			Help: "Total number of loop iterations with no item at the cursor",
		},
	)

	PlayerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signage_player_state",
			Help: "1 for the current player state, 0 for the others",
		},
		[]string{"state"},
	)

	PlayerCursor = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_player_cursor",
			Help: "Index of the item being shown",
		},
	)

	SlideProgressRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_slide_progress_ratio",
			Help: "Progress of the current slide between 0 and 1",
		},
	)
)

// Composite metrics
var (
	CompositeRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_composite_renders_total",
			Help: "Total number of composite slide images rendered",
		},
		[]string{"status"}, // "success", "error", "shared"
	)

	CompositeRenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signage_composite_render_duration_seconds",
			Help:    "Composite rendering duration by phase",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"phase"}, // "fetch", "decode", "resize", "encode"
	)

	CompositeSegmentFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_composite_segment_fetches_total",
			Help: "Total number of segment downloads by outcome",
		},
		[]string{"status"},
	)

	CompositeSegmentDecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_composite_segment_decode_total",
			Help: "Total number of decoded segments by image format",
		},
		[]string{"format"},
	)

	CompositeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signage_composite_bytes",
			Help:    "Size of encoded composite images in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signage_filesystem_operation_duration_seconds",
			Help:    "Duration of file:// channel reads including retries",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_filesystem_retry_attempts_total",
			Help: "Total number of NFS retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_filesystem_retry_success_total",
			Help: "Total number of operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_filesystem_retry_failures_total",
			Help: "Total number of operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors seen",
		},
		[]string{"operation", "volume"},
	)
)

// Journal metrics
var (
	JournalWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_journal_writes_total",
			Help: "Total number of play journal writes",
		},
		[]string{"table", "status"},
	)

	JournalRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signage_journal_rows",
			Help: "Number of rows in the play journal",
		},
		[]string{"table"},
	)

	JournalSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signage_journal_size_bytes",
			Help: "Size of SQLite journal files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_memory_paused",
			Help: "1 while composite rendering is paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signage_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version", "channel"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion, channel string) {
	AppInfo.WithLabelValues(version, commit, goVersion, channel).Set(1)
}
