package metrics

import "signage-player/internal/player"

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"success", "error"} {
		PlaylistFetchesTotal.WithLabelValues(status)
		CompositeSegmentFetchesTotal.WithLabelValues(status)
	}

	for _, s := range player.States {
		PlayerState.WithLabelValues(s.String()).Set(0)
	}
	PlayerState.WithLabelValues(player.StateInit.String()).Set(1)

	// --- Composite rendering ---
	for _, status := range []string{"success", "error", "shared"} {
		CompositeRendersTotal.WithLabelValues(status)
	}
	for _, phase := range []string{"fetch", "decode", "resize", "encode"} {
		CompositeRenderDuration.WithLabelValues(phase)
	}
	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp", "unknown"} {
		CompositeSegmentDecodeByFormat.WithLabelValues(format)
	}

	// --- Filesystem (file:// channels) ---
	for _, op := range []string{"stat", "open"} {
		FilesystemOperationDuration.WithLabelValues("channel", op)
		FilesystemOperationErrors.WithLabelValues("channel", op)
		FilesystemRetryAttempts.WithLabelValues(op, "channel")
		FilesystemRetrySuccess.WithLabelValues(op, "channel")
		FilesystemRetryFailures.WithLabelValues(op, "channel")
		FilesystemStaleErrors.WithLabelValues(op, "channel")
	}

	// --- Journal ---
	for _, table := range []string{"plays", "fetches"} {
		JournalWritesTotal.WithLabelValues(table, "success")
		JournalWritesTotal.WithLabelValues(table, "error")
		JournalRows.WithLabelValues(table)
	}
	for _, file := range []string{"main", "wal", "shm"} {
		JournalSizeBytes.WithLabelValues(file)
	}
}
