// Package logging provides the leveled logger used by the signage player.
//
// Levels, from most to least verbose:
//   - DEBUG: frame-level and fetch-level detail
//   - INFO: playlist loads, slide changes, server lifecycle
//   - WARN: recoverable problems (fetch failures, compositing errors)
//   - ERROR: failures a human should look at
//   - FATAL: configuration errors that stop the process
//
// The level comes from LOG_LEVEL, or DEBUG=true as a shortcut.
package logging
