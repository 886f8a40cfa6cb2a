// Package colorutil provides shared stroke color utilities for sketch shapes.
package colorutil

import (
	"fmt"
	"image/color"
	"strings"
)

// Common stroke colors used throughout the application.
var (
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 170, B: 0, A: 255}
	Orange  = color.RGBA{R: 255, G: 136, B: 0, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// DefaultStroke is the stroke color of newly drawn shapes.
const DefaultStroke = "#ff0000"

// Palette is the rotation used when a shape needs a color that differs from
// its source, such as a duplicate.
var Palette = []color.RGBA{Blue, Red, Green, Orange, Magenta, Cyan}

// ParseHex parses "#rgb" or "#rrggbb" into an opaque color.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	c := color.RGBA{A: 255}
	switch len(s) {
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
	case 3:
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &c.R, &c.G, &c.B); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		c.R *= 17
		c.G *= 17
		c.B *= 17
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return c, nil
}

// Hex formats a color as lowercase "#rrggbb".
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Normalize returns s in canonical "#rrggbb" form, or fallback if s does not parse.
func Normalize(s, fallback string) string {
	c, err := ParseHex(s)
	if err != nil {
		return fallback
	}
	return Hex(c)
}

// Distinct returns the first palette color that differs from current.
func Distinct(current string) string {
	cur, err := ParseHex(current)
	for _, c := range Palette {
		if err != nil || c != cur {
			return Hex(c)
		}
	}
	return Hex(Palette[0])
}
