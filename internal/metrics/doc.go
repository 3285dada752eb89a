// Package metrics provides Prometheus instrumentation for the signage player.
//
// All metrics are prefixed with "signage_" and registered with the default
// registry through promauto, so importing the package is enough to expose
// them on the metrics server.
//
// # Metric Categories
//
// ## HTTP Metrics
//
// Recorded by the middleware package for the web surface:
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Playlist and Player Metrics
//
// Fed by the observer returned from NewPlayerObserver:
//   - PlaylistFetchesTotal: Counter of fetches by status (success/error)
//   - PlaylistFetchDuration: Histogram of fetch duration
//   - PlaylistItems: Gauge of items in the current playlist
//   - SlidesShownTotal: Counter of slides shown to completion
//   - PlayerState: Gauge set to 1 for the current loop state
//   - PlayerCursor: Gauge of the cursor
//   - SlideProgressRatio: Gauge of the current slide's progress
//
// ## Composite Metrics
//
// Recorded by the media package when rendering slide images:
//   - CompositeRendersTotal, CompositeRenderDuration (by phase)
//   - CompositeSegmentFetchesTotal, CompositeSegmentDecodeByFormat
//
// ## Filesystem and Journal Metrics
//
// File:// channel reads report through NewFilesystemObserver. The Collector
// polls the play journal for row counts and SQLite file sizes.
//
// # Usage
//
//	metrics.InitializeMetrics()
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	obs := player.Observers{metrics.NewPlayerObserver()}
package metrics
