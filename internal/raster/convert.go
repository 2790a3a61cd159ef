// Package raster converts decoded pixel buffers into normalized 8-bit
// images suitable for the inference API.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ErrNoPixelData indicates an absent or empty pixel buffer.
var ErrNoPixelData = errors.New("no pixel data")

// Buffer is a decoded pixel matrix, row major. Channels is 1 for grayscale
// or 3 for color; samples of one pixel are stored consecutively.
type Buffer struct {
	Rows     int
	Cols     int
	Channels int
	Pixels   []int
}

// Options controls conversion output.
type Options struct {
	// MaxSize bounds the larger output dimension. Zero disables resizing.
	MaxSize int
	// AutoGamma applies median-derived gamma correction after rescaling.
	AutoGamma bool
}

// Convert rescales the buffer's observed value range to [0, 255], expands
// grayscale to three channels, and downscales so the larger dimension does
// not exceed MaxSize, preserving aspect ratio. Images already within bounds
// are never upscaled. A constant-valued buffer produces an all-zero image.
func Convert(buf Buffer, opts Options) (*image.NRGBA, error) {
	if err := buf.validate(); err != nil {
		return nil, err
	}

	lo, hi := buf.Pixels[0], buf.Pixels[0]
	for _, v := range buf.Pixels {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, buf.Cols, buf.Rows))
	span := hi - lo
	for y := 0; y < buf.Rows; y++ {
		for x := 0; x < buf.Cols; x++ {
			base := (y*buf.Cols + x) * buf.Channels
			var r, g, b uint8
			if buf.Channels == 1 {
				v := rescale(buf.Pixels[base], lo, span)
				r, g, b = v, v, v
			} else {
				r = rescale(buf.Pixels[base], lo, span)
				g = rescale(buf.Pixels[base+1], lo, span)
				b = rescale(buf.Pixels[base+2], lo, span)
			}
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 0xFF})
		}
	}

	if opts.AutoGamma {
		img = adjustGamma(img, autoGamma(img))
	}

	if opts.MaxSize > 0 {
		img = shrinkToFit(img, opts.MaxSize)
	}
	return img, nil
}

func (b Buffer) validate() error {
	if b.Rows <= 0 || b.Cols <= 0 || len(b.Pixels) == 0 {
		return ErrNoPixelData
	}
	if b.Channels != 1 && b.Channels != 3 {
		return fmt.Errorf("unsupported channel count %d", b.Channels)
	}
	if want := b.Rows * b.Cols * b.Channels; len(b.Pixels) != want {
		return fmt.Errorf("pixel buffer length %d does not match %dx%dx%d", len(b.Pixels), b.Rows, b.Cols, b.Channels)
	}
	return nil
}

func rescale(v, lo, span int) uint8 {
	if span == 0 {
		return 0
	}
	return uint8((v - lo) * 255 / span)
}

// shrinkToFit downscales with a box (area averaging) filter so the larger
// dimension equals maxSize. Smaller images pass through untouched.
func shrinkToFit(img *image.NRGBA, maxSize int) *image.NRGBA {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxSize && height <= maxSize {
		return img
	}
	var newWidth, newHeight int
	if height > width {
		newHeight = maxSize
		newWidth = width * maxSize / height
	} else {
		newWidth = maxSize
		newHeight = height * maxSize / width
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	return imaging.Resize(img, newWidth, newHeight, imaging.Box)
}

// SavePNG writes the image to path; the .png extension selects the format.
func SavePNG(img image.Image, path string) error {
	return imaging.Save(img, path)
}
