package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxPlaylistBytes caps the size of a playlist document.
const maxPlaylistBytes = 8 << 20

var errTrailingData = errors.New("decode playlist: unexpected data after document")

// FetchError is a transient failure to load a playlist: a transport error,
// a non-2xx status or an undecodable body.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch playlist %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch playlist %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads playlist documents.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher returns a Fetcher using client, or http.DefaultClient when nil.
// No request timeout is applied; callers bound a fetch through its context.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch loads and decodes the playlist at url with caching disabled.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Playlist, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var p Playlist
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxPlaylistBytes))
	if err := dec.Decode(&p); err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("decode playlist: %w", err)}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &FetchError{URL: url, Err: errTrailingData}
	}
	return &p, nil
}
