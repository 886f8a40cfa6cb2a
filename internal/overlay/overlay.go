// Package overlay provides the raster image laid over the map canvas.
package overlay

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"sitesketch/pkg/geometry"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Defaults applied when an image is first placed.
const (
	DefaultOpacity = 0.7
	fitFraction    = 0.8
)

// ErrNotDataURL is returned when a source is not a base64 data URL.
var ErrNotDataURL = errors.New("overlay: not a base64 data URL")

// Overlay is a raster image positioned in canvas pixels. It lives outside the
// shape store and its history.
type Overlay struct {
	// Source is the stored asset URL, empty until uploaded.
	Source string
	// Data is a raw payload that has not been uploaded yet.
	Data   []byte
	Format string // png, jpeg, gif, bmp, tiff or webp

	X, Y          float64 // top-left corner in canvas pixels
	Width, Height float64 // natural size in pixels
	Scale         float64
	Rotation      float64 // degrees
	Opacity       float64
}

// Decode reads the image header of data and returns an overlay holding the
// payload for upload.
func Decode(data []byte) (*Overlay, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has empty size %dx%d", cfg.Width, cfg.Height)
	}
	return &Overlay{
		Data:    data,
		Format:  format,
		Width:   float64(cfg.Width),
		Height:  float64(cfg.Height),
		Scale:   1,
		Opacity: DefaultOpacity,
	}, nil
}

// DecodeDataURL decodes a "data:image/...;base64," URL.
func DecodeDataURL(s string) (*Overlay, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, ErrNotDataURL
	}
	i := strings.Index(s, ";base64,")
	if i < 0 {
		return nil, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(s[i+len(";base64,"):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}
	return Decode(data)
}

// IsStored reports whether the overlay points at already stored storage.
func (o *Overlay) IsStored() bool {
	return strings.HasPrefix(o.Source, "http://") || strings.HasPrefix(o.Source, "https://")
}

// NeedsUpload reports whether the overlay carries a fresh in-memory image.
func (o *Overlay) NeedsUpload() bool {
	return len(o.Data) > 0 && !o.IsStored()
}

// ContentType returns the MIME type of the payload.
func (o *Overlay) ContentType() string {
	if o.Format == "" {
		return "application/octet-stream"
	}
	return "image/" + o.Format
}

// MarkStored records the uploaded URL and releases the payload.
func (o *Overlay) MarkStored(url string) {
	o.Source = url
	o.Data = nil
}

// FitTo scales and centers the image at 80% of the canvas, resetting rotation
// and opacity.
func (o *Overlay) FitTo(canvasW, canvasH float64) {
	if o.Width <= 0 || o.Height <= 0 || canvasW <= 0 || canvasH <= 0 {
		return
	}
	o.Scale = math.Min(canvasW/o.Width, canvasH/o.Height) * fitFraction
	o.X = (canvasW - o.Width*o.Scale) / 2
	o.Y = (canvasH - o.Height*o.Scale) / 2
	o.Rotation = 0
	o.Opacity = DefaultOpacity
}

// Rect returns the unrotated on-screen box.
func (o *Overlay) Rect() geometry.Rect {
	return geometry.NewRect(o.X, o.Y, o.Width*o.Scale, o.Height*o.Scale)
}

// Contains tests p against the box rotated about its center.
func (o *Overlay) Contains(p geometry.Point2D) bool {
	return geometry.RotatedRectContains(o.Rect(), o.Rotation, p)
}

// MoveTo places the top-left corner at p.
func (o *Overlay) MoveTo(p geometry.Point2D) {
	o.X, o.Y = p.X, p.Y
}

// Clone returns a copy that shares the immutable payload.
func (o *Overlay) Clone() *Overlay {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}
