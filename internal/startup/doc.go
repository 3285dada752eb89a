// Package startup handles player initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - PAGE_URL: Page URL carrying the ?canal= parameter (no default)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - DISPLAY_MODE: web, console or both (default: web)
//   - RETRY_DELAY: Wait between failed playlist fetches (default: 15s)
//   - EMPTY_ITEM_DELAY: Wait when there is no item at the cursor (default: 2s)
//   - TRANSITION_DELAY: Exit transition of a slide (default: 600ms)
//   - FRAME_INTERVAL: Progress bar tick (default: 16ms)
//   - TIMEZONE: Zone of the "last updated" line (default: Local)
//   - DATABASE_DIR: Enables the play journal when set
//   - SLIDE_WIDTH, SLIDE_QUALITY: Composite slide JPEG (default: 1920, 85)
//   - VIPS_ENABLED: Resize segments with libvips (default: false)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log kiosk polling requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// Invalid durations and numbers fall back to their defaults with a warning.
// An invalid DISPLAY_MODE is an error.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogMemoryConfig]: GOMEMLIMIT configuration
//   - [LogJournalInit]: Play journal setup
//   - [LogVipsInit]: Image pipeline selection
//   - [LogPlayerInit]: Resolved channel
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
package startup
