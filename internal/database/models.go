package database

import (
	"encoding/json"
	"time"
)

// Play is one slide shown to completion.
type Play struct {
	ID        int64         `json:"id"`
	RunID     string        `json:"runId"`
	Channel   string        `json:"channel"`
	Version   string        `json:"version"`
	ItemIndex int           `json:"itemIndex"`
	SlideID   string        `json:"slideId"`
	Segments  int           `json:"segments"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"-"`
}

// MarshalJSON renders Duration as whole milliseconds.
func (p Play) MarshalJSON() ([]byte, error) {
	type alias Play
	return json.Marshal(struct {
		alias
		DurationMs int64 `json:"durationMs"`
	}{alias(p), p.Duration.Milliseconds()})
}

// Fetch is one playlist fetch attempt.
type Fetch struct {
	ID      int64     `json:"id"`
	RunID   string    `json:"runId"`
	Channel string    `json:"channel"`
	URL     string    `json:"url"`
	OK      bool      `json:"ok"`
	Items   int       `json:"items"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}
