// Package channel resolves the channel a player shows from its page URL and
// builds the per-channel resource locations.
package channel

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// QueryParam is the page URL query parameter naming the channel.
const QueryParam = "canal"

// MissingMessage is shown on the overlay when the page URL has no channel.
const MissingMessage = "Paramètre manquant : ?canal=..."

// ErrMissing reports a page URL without a channel. It is not retryable.
var ErrMissing = errors.New(MissingMessage)

// Channel is a resolved channel bound to the page it was read from.
type Channel struct {
	Name string
	page *url.URL
}

// Resolve reads the channel name from pageURL.
func Resolve(pageURL string) (*Channel, error) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	name := u.Query().Get(QueryParam)
	if name == "" {
		return nil, ErrMissing
	}

	page := *u
	page.RawQuery = ""
	page.Fragment = ""

	return &Channel{Name: name, page: &page}, nil
}

// Page returns the page URL without its query.
func (c *Channel) Page() string {
	return c.page.String()
}

// PlaylistURL returns channels/<name>/playlist.json relative to the page,
// with a cache-busting v parameter taken from now in milliseconds.
func (c *Channel) PlaylistURL(now time.Time) string {
	ref := &url.URL{
		Path:     "channels/" + c.Name + "/playlist.json",
		RawQuery: "v=" + strconv.FormatInt(now.UnixMilli(), 10),
	}
	return c.page.ResolveReference(ref).String()
}

// SegmentURL resolves a segment reference against the page and appends the
// playlist version as the v parameter. An empty version adds nothing.
func (c *Channel) SegmentURL(segment, version string) string {
	ref, err := url.Parse(segment)
	if err != nil {
		if version == "" {
			return segment
		}
		return segment + "?v=" + url.QueryEscape(version)
	}

	resolved := c.page.ResolveReference(ref)
	if version != "" {
		v := "v=" + url.QueryEscape(version)
		if resolved.RawQuery == "" {
			resolved.RawQuery = v
		} else {
			resolved.RawQuery += "&" + v
		}
	}
	return resolved.String()
}

// IsFile reports whether the page is read from the local filesystem. A
// kiosk browser cannot load file:// segments from an http page.
func (c *Channel) IsFile() bool {
	return c.page.Scheme == "file"
}
