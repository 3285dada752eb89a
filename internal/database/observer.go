package database

import (
	"context"
	"time"

	"signage-player/internal/logging"
	"signage-player/internal/player"
	"signage-player/internal/slide"
)

// Journal records playback events of one run into the database. It
// implements player.Observer; write failures are logged and dropped so the
// loop never stalls on the journal.
type Journal struct {
	db      *Database
	runID   string
	channel string
	now     func() time.Time

	shownAt time.Time
}

// NewJournal returns an observer writing rows tagged with runID and channel.
func NewJournal(db *Database, runID, channel string) *Journal {
	return &Journal{db: db, runID: runID, channel: channel, now: time.Now}
}

var _ player.Observer = (*Journal)(nil)

func (j *Journal) FetchSucceeded(url string, items int, _ time.Duration) {
	j.fetch(url, items, nil)
}

func (j *Journal) FetchFailed(url string, err error, _ time.Duration) {
	j.fetch(url, 0, err)
}

func (j *Journal) fetch(url string, items int, err error) {
	f := Fetch{
		RunID:   j.runID,
		Channel: j.channel,
		URL:     url,
		OK:      err == nil,
		Items:   items,
		At:      j.now(),
	}
	if err != nil {
		f.Error = err.Error()
	}
	if werr := j.db.RecordFetch(context.Background(), f); werr != nil {
		logging.Warn("Journal: failed to record fetch: %v", werr)
	}
}

func (j *Journal) SlideShown(*slide.Slide) {
	j.shownAt = j.now()
}

func (j *Journal) SlideFinished(s *slide.Slide, shown time.Duration) {
	started := j.shownAt
	if started.IsZero() {
		started = j.now().Add(-shown)
	}

	err := j.db.RecordPlay(context.Background(), Play{
		RunID:     j.runID,
		Channel:   j.channel,
		Version:   s.Version,
		ItemIndex: s.Index,
		SlideID:   s.ID,
		Segments:  len(s.Segments),
		StartedAt: started,
		Duration:  shown,
	})
	if err != nil {
		logging.Warn("Journal: failed to record play of %s: %v", s.ID, err)
	}
	j.shownAt = time.Time{}
}

func (j *Journal) StateChanged(player.State) {}
func (j *Journal) ItemMissing(int)           {}
func (j *Journal) Progress(float64)          {}
