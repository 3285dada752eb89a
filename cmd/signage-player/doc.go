// Package main provides the entry point for the signage player.
//
// The player reads a channel name from the canal parameter of PAGE_URL,
// fetches channels/<canal>/playlist.json next to that page and shows its
// slides in an endless loop. The playlist is fetched again each time the
// loop wraps; failed fetches are retried forever with a fixed delay.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT
//  2. Configuration Loading: Reads environment variables
//  3. Channel Resolution: A missing canal halts playback with a message
//  4. Component Initialization:
//     - Display surfaces: web board, console line, or both
//     - Play journal: SQLite, when DATABASE_DIR is set
//     - Compositor: Stacks slide segments for the kiosk page
//     - Memory Monitor: Refuses composite renders under pressure
//     - Metrics Collector: Journal row counts and file sizes
//  5. HTTP Server Setup: Routes, middleware, metrics server
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM
//
// # HTTP Server
//
//  1. Main Server (default port 8080):
//     - Kiosk page and the state it polls
//     - Composite slide images
//     - Play journal and health endpoints
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// See [signage-player/internal/startup] for the environment variables.
package main
