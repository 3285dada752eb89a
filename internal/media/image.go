package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	// Segment formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support

	"signage-player/internal/logging"
)

const (
	// MaxSegmentDimension is the largest width or height accepted for a
	// segment.
	MaxSegmentDimension = 16384

	// MaxSegmentPixels bounds the memory of one decoded segment
	// (~40MP, ~160MB in RGBA).
	MaxSegmentPixels = 40_000_000
)

// ErrTooLarge is returned for segments whose header announces a side longer
// than MaxSegmentDimension or more pixels than the decode limit.
var ErrTooLarge = errors.New("segment exceeds size limit")

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions reads the dimensions and format of an encoded image
// without decoding its pixels.
func GetImageDimensions(data []byte) (*ImageDimensions, string, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	return &ImageDimensions{Width: config.Width, Height: config.Height}, format, nil
}

// DecodeSegment decodes one segment image. Segments announcing a side over
// MaxSegmentDimension, or more than maxPixels pixels, are refused before
// decoding.
func DecodeSegment(data []byte, maxPixels int) (image.Image, string, error) {
	dims, format, err := GetImageDimensions(data)
	if err != nil {
		return nil, "unknown", fmt.Errorf("failed to read segment header: %w", err)
	}

	if dims.Width > MaxSegmentDimension || dims.Height > MaxSegmentDimension {
		return nil, format, fmt.Errorf("%w: %dx%d", ErrTooLarge, dims.Width, dims.Height)
	}
	if maxPixels > 0 && dims.Width*dims.Height > maxPixels {
		return nil, format, fmt.Errorf("%w: %dx%d", ErrTooLarge, dims.Width, dims.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode %s segment: %w", format, err)
	}

	logging.Debug("Decoded %s segment %dx%d", format, dims.Width, dims.Height)
	return img, format, nil
}

// FitWidth scales img to width, keeping its aspect ratio.
func FitWidth(img image.Image, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || b.Dx() == width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// Stack draws images top to bottom on a white canvas as wide as the widest.
func Stack(images []image.Image) *image.NRGBA {
	width, height := 0, 0
	for _, img := range images {
		b := img.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	y := 0
	for _, img := range images {
		b := img.Bounds()
		draw.Draw(canvas, image.Rect(0, y, b.Dx(), y+b.Dy()), img, b.Min, draw.Over)
		y += b.Dy()
	}
	return canvas
}
