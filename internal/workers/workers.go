package workers

import (
	"os"
	"runtime"
	"strconv"
)

// SegmentEnv overrides the number of parallel segment downloads.
const SegmentEnv = "SEGMENT_WORKERS"

// Count returns a worker count for a task, scaled from GOMAXPROCS so that
// container CPU limits are respected.
//
// The multiplier is 1.0 for CPU-bound work and 2.0 for I/O-bound work.
// limit caps the result; 0 means no cap. When envVar names a set, positive
// integer variable, that value wins (still capped by limit).
func Count(envVar string, multiplier float64, limit int) int {
	if envVar != "" {
		if override := os.Getenv(envVar); override != "" {
			if count, err := strconv.Atoi(override); err == nil && count > 0 {
				return capAt(count, limit)
			}
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capAt(workers, limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count("", 1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count("", 2.0, limit)
}

// ForSegments returns how many segments of one slide are downloaded at once.
// It is I/O-bound and can be overridden with SEGMENT_WORKERS.
func ForSegments(limit int) int {
	return Count(SegmentEnv, 2.0, limit)
}
