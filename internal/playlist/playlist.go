package playlist

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

const (
	// DefaultDisplayDuration applies when an item has no usable duration.
	DefaultDisplayDuration = 10 * time.Second
	// MinDisplayDuration is the floor applied to every item.
	MinDisplayDuration = 3 * time.Second
)

// Playlist is the document published for a channel.
type Playlist struct {
	GeneratedAt Seconds `json:"generated_at,omitempty"`
	Version     Version `json:"version,omitempty"`
	Items       []*Item `json:"items"`
}

// Item is one slide: images shown together for a duration.
type Item struct {
	Segments        []string `json:"segments,omitempty"`
	DisplayDuration Seconds  `json:"display_duration,omitempty"`
}

// Len returns the number of items.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// At returns the item at index, or nil when index is out of range or the
// entry is null.
func (p *Playlist) At(index int) *Item {
	if p == nil || index < 0 || index >= len(p.Items) {
		return nil
	}
	return p.Items[index]
}

// UpdatedAt returns generated_at, or fetchedAt when it is absent or zero.
func (p *Playlist) UpdatedAt(fetchedAt time.Time) time.Time {
	if p == nil || p.GeneratedAt <= 0 {
		return fetchedAt
	}
	sec, frac := math.Modf(float64(p.GeneratedAt))
	return time.Unix(int64(sec), int64(frac*1e9))
}

// SegmentList returns the item's segments, never nil.
func (it *Item) SegmentList() []string {
	if it == nil || it.Segments == nil {
		return []string{}
	}
	return it.Segments
}

// Duration returns how long the item stays on screen. Absent, zero and
// unparseable durations use the default; anything else is floored.
func (it *Item) Duration() time.Duration {
	d := DefaultDisplayDuration
	if it != nil && it.DisplayDuration != 0 {
		d = it.DisplayDuration.Duration()
	}
	if d < MinDisplayDuration {
		d = MinDisplayDuration
	}
	return d
}

// Seconds is a number of seconds. It accepts JSON numbers and numeric
// strings; anything else decodes as zero so the default applies.
type Seconds float64

func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*s = Seconds(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if parsed, perr := strconv.ParseFloat(str, 64); perr == nil && !math.IsNaN(parsed) {
			*s = Seconds(parsed)
			return nil
		}
	}
	*s = 0
	return nil
}

// Duration converts s to a time.Duration, saturating at the int64 range.
func (s Seconds) Duration() time.Duration {
	ns := float64(s) * float64(time.Second)
	switch {
	case math.IsNaN(ns):
		return 0
	case ns >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	case ns <= math.MinInt64:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(ns)
}

// Version is the opaque cache-busting token of a playlist. Any JSON value is
// accepted and kept verbatim.
type Version struct {
	raw json.RawMessage
}

// NewVersion builds a string version.
func NewVersion(s string) Version {
	b, _ := json.Marshal(s)
	return Version{raw: b}
}

func (v *Version) UnmarshalJSON(data []byte) error {
	v.raw = append(v.raw[:0], data...)
	return nil
}

func (v Version) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// IsZero reports whether the version is absent or null.
func (v Version) IsZero() bool {
	return len(v.raw) == 0 || string(v.raw) == "null"
}

// String renders the token for use in a URL: strings unquoted, other values
// as their JSON text, absent or null as "".
func (v Version) String() string {
	if v.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err == nil {
		return s
	}
	return string(v.raw)
}
