// Package memory keeps the player within its container memory limit.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT (typically set
// through the Kubernetes Downward API) and MEMORY_RATIO (default 0.80).
// GOMEMLIMIT, when set, always wins.
//
// [Monitor] samples the heap and flips into a paused state above the
// critical water mark. The web surface refuses composite slide renders
// while paused; the playback loop is unaffected.
package memory
