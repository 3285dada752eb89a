package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"signage-player/internal/logging"
	"signage-player/internal/metrics"
	"signage-player/internal/slide"
	"signage-player/internal/workers"
)

// ErrNoSegments is returned when a slide has nothing to draw.
var ErrNoSegments = errors.New("slide has no segments")

const (
	// maxSegmentBytes bounds one segment download.
	maxSegmentBytes = 64 << 20
	// renderTimeout bounds a shared render once its callers have gone.
	renderTimeout = 2 * time.Minute
)

// SegmentError reports a segment that could not be downloaded.
type SegmentError struct {
	Src        string
	StatusCode int
	Err        error
}

func (e *SegmentError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("segment %s: unexpected status %d", e.Src, e.StatusCode)
	}
	return fmt.Sprintf("segment %s: %v", e.Src, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

// CompositorConfig tunes composite rendering.
type CompositorConfig struct {
	// Width every segment is scaled to; 0 keeps the widest segment's width.
	Width int
	// Quality of the JPEG output (1-100).
	Quality int
	// Workers caps parallel segment downloads.
	Workers int
	// MaxPixels bounds one decoded segment.
	MaxPixels int
	// UseVips decodes and scales with libvips when it is available.
	UseVips   bool
	UserAgent string
}

// DefaultCompositorConfig returns a 1920px wide, quality 85 configuration.
func DefaultCompositorConfig() CompositorConfig {
	return CompositorConfig{
		Width:     1920,
		Quality:   85,
		Workers:   workers.ForSegments(8),
		MaxPixels: MaxSegmentPixels,
	}
}

// Compositor renders a slide as one image: its segments are vertical slices
// of a captured page, stacked back together top to bottom.
type Compositor struct {
	client *http.Client
	config CompositorConfig
	group  singleflight.Group
}

// NewCompositor returns a compositor downloading segments with client.
func NewCompositor(client *http.Client, config CompositorConfig) *Compositor {
	if client == nil {
		client = http.DefaultClient
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = 85
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &Compositor{client: client, config: config}
}

// Render returns the JPEG composite of s. Concurrent renders of the same
// slide share one result. The shared render is detached from ctx, so a
// caller giving up only stops its own wait.
func (c *Compositor) Render(ctx context.Context, s *slide.Slide) ([]byte, error) {
	if len(s.Segments) == 0 {
		return nil, ErrNoSegments
	}

	ch := c.group.DoChan(s.ID, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), renderTimeout)
		defer cancel()
		return c.render(rctx, s)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	switch {
	case res.Err != nil:
		metrics.CompositeRendersTotal.WithLabelValues("error").Inc()
		return nil, res.Err
	case res.Shared:
		metrics.CompositeRendersTotal.WithLabelValues("shared").Inc()
	default:
		metrics.CompositeRendersTotal.WithLabelValues("success").Inc()
	}
	return res.Val.([]byte), nil
}

func (c *Compositor) render(ctx context.Context, s *slide.Slide) ([]byte, error) {
	start := time.Now()
	images := make([]image.Image, len(s.Segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)
	for i, seg := range s.Segments {
		g.Go(func() error {
			img, err := c.segment(gctx, seg.Src)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.Warn("Composite for slide %s failed: %v", s.ID, err)
		return nil, err
	}

	encodeStart := time.Now()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Stack(images), imaging.JPEG, imaging.JPEGQuality(c.config.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode composite: %w", err)
	}
	metrics.CompositeRenderDuration.WithLabelValues("encode").Observe(time.Since(encodeStart).Seconds())
	metrics.CompositeBytes.Observe(float64(buf.Len()))

	logging.Debug("Composite for slide %s: %d segments, %d bytes in %v",
		s.ID, len(images), buf.Len(), time.Since(start))
	return buf.Bytes(), nil
}

// segment downloads, decodes and scales one segment.
func (c *Compositor) segment(ctx context.Context, src string) (image.Image, error) {
	fetchStart := time.Now()
	data, err := c.download(ctx, src)
	metrics.CompositeRenderDuration.WithLabelValues("fetch").Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		metrics.CompositeSegmentFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.CompositeSegmentFetchesTotal.WithLabelValues("success").Inc()

	if c.config.UseVips && IsVipsAvailable() {
		decodeStart := time.Now()
		img, err := DecodeSegmentWithVips(data, c.config.Width)
		if err == nil {
			metrics.CompositeRenderDuration.WithLabelValues("decode").Observe(time.Since(decodeStart).Seconds())
			return img, nil
		}
		logging.Debug("vips decode failed for %s, falling back: %v", src, err)
	}

	decodeStart := time.Now()
	img, format, err := DecodeSegment(data, c.config.MaxPixels)
	metrics.CompositeSegmentDecodeByFormat.WithLabelValues(formatLabel(format)).Inc()
	if err != nil {
		return nil, &SegmentError{Src: src, Err: err}
	}
	metrics.CompositeRenderDuration.WithLabelValues("decode").Observe(time.Since(decodeStart).Seconds())

	resizeStart := time.Now()
	img = FitWidth(img, c.config.Width)
	metrics.CompositeRenderDuration.WithLabelValues("resize").Observe(time.Since(resizeStart).Seconds())
	return img, nil
}

func (c *Compositor) download(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, http.NoBody)
	if err != nil {
		return nil, &SegmentError{Src: src, Err: err}
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &SegmentError{Src: src, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Debug("failed to close segment body %s: %v", src, err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &SegmentError{Src: src, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSegmentBytes))
	if err != nil {
		return nil, &SegmentError{Src: src, Err: err}
	}
	return data, nil
}

func formatLabel(format string) string {
	switch format {
	case "jpeg", "png", "gif", "webp", "bmp":
		return format
	default:
		return "unknown"
	}
}
