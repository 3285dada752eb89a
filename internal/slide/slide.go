// Package slide turns playlist items into display nodes.
package slide

import (
	"fmt"
	"hash/crc32"
	"strings"
	"time"

	"signage-player/internal/playlist"
)

// Segment is one image of a slide.
type Segment struct {
	Ref string `json:"ref"`
	Src string `json:"src"`
}

// Slide is a rendered playlist item, ready to be inserted into a display.
type Slide struct {
	ID       string        `json:"id"`
	Index    int           `json:"index"`
	Version  string        `json:"version"`
	Duration time.Duration `json:"duration"`
	Segments []Segment     `json:"segments"`
}

// URLResolver maps a segment reference and playlist version to an image URL.
type URLResolver interface {
	SegmentURL(segment, version string) string
}

// Render builds the slide for item at index. It never fails: an item
// without segments yields a slide with no images. The same inputs always
// produce the same slide, ID included.
func Render(index int, item *playlist.Item, version string, urls URLResolver) *Slide {
	refs := item.SegmentList()

	s := &Slide{
		Index:    index,
		Version:  version,
		Duration: item.Duration(),
		Segments: make([]Segment, 0, len(refs)),
	}
	for _, ref := range refs {
		s.Segments = append(s.Segments, Segment{
			Ref: ref,
			Src: urls.SegmentURL(ref, version),
		})
	}
	s.ID = slideID(index, version, refs)
	return s
}

func slideID(index int, version string, refs []string) string {
	h := crc32.NewIEEE()
	_, _ = h.Write([]byte(version))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.Join(refs, "\x00")))
	return fmt.Sprintf("s%d-%08x", index, h.Sum32())
}

// Sources returns the image URLs of the slide in order.
func (s *Slide) Sources() []string {
	out := make([]string, len(s.Segments))
	for i, seg := range s.Segments {
		out[i] = seg.Src
	}
	return out
}
