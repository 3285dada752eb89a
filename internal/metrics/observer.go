package metrics

import (
	"time"

	"signage-player/internal/filesystem"
	"signage-player/internal/player"
	"signage-player/internal/slide"
)

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem metrics
// into the Prometheus counters and histograms declared in metrics.go.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveOperation(volume, operation string, durationSeconds float64, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(durationSeconds)
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
	}
}

func (o *filesystemObserver) ObserveRetryAttempt(retryOp, volume string) {
	FilesystemRetryAttempts.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(retryOp, volume string) {
	FilesystemRetrySuccess.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(retryOp, volume string) {
	FilesystemRetryFailures.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveStaleError(retryOp, volume string) {
	FilesystemStaleErrors.WithLabelValues(retryOp, volume).Inc()
}

// playerObserver implements player.Observer on top of the playlist and
// player metrics.
type playerObserver struct {
	now func() time.Time
}

// NewPlayerObserver creates an observer that mirrors playback events into
// Prometheus.
func NewPlayerObserver() player.Observer {
	return &playerObserver{now: time.Now}
}

func (o *playerObserver) FetchSucceeded(_ string, items int, took time.Duration) {
	PlaylistFetchesTotal.WithLabelValues("success").Inc()
	PlaylistFetchDuration.Observe(took.Seconds())
	PlaylistItems.Set(float64(items))
	PlaylistLastSuccessTimestamp.Set(float64(o.now().Unix()))
}

func (o *playerObserver) FetchFailed(_ string, _ error, took time.Duration) {
	PlaylistFetchesTotal.WithLabelValues("error").Inc()
	PlaylistFetchDuration.Observe(took.Seconds())
}

func (o *playerObserver) StateChanged(state player.State) {
	for _, s := range player.States {
		v := 0.0
		if s == state {
			v = 1
		}
		PlayerState.WithLabelValues(s.String()).Set(v)
	}
}

func (o *playerObserver) SlideShown(s *slide.Slide) {
	PlayerCursor.Set(float64(s.Index))
	SlideSegments.Observe(float64(len(s.Segments)))
	SlideProgressRatio.Set(0)
}

func (o *playerObserver) SlideFinished(_ *slide.Slide, shown time.Duration) {
	SlidesShownTotal.Inc()
	SlideShownDuration.Observe(shown.Seconds())
}

func (o *playerObserver) ItemMissing(cursor int) {
	ItemsMissingTotal.Inc()
	PlayerCursor.Set(float64(cursor))
}

func (o *playerObserver) Progress(ratio float64) {
	SlideProgressRatio.Set(ratio)
}
