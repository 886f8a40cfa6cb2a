package sketch

import (
	"sitesketch/internal/geo"
	"sitesketch/pkg/geometry"
)

// Pixel tolerances for pointer interaction.
const (
	HandleRadius   = 8.0
	StrokeMargin   = 10.0
	LabelRadius    = 10.0
	MarkerRadius   = 15.0
	MarkerLift     = 15.0 // marker pins are hit above their anchor
	CloseTolerance = 10.0 // polygon closes when clicking this near vertex 0
)

// HitTest reports whether pixel p hits the shape, given the shape's path
// already projected to pixels.
func HitTest(s *Shape, pixels []geometry.Point2D, p geometry.Point2D) bool {
	if len(pixels) == 0 {
		return false
	}
	switch s.Kind {
	case KindLine, KindFreehand:
		return geometry.PointNearPath(p, pixels, StrokeMargin)
	case KindPolygon:
		return geometry.PointInPolygon(p, pixels)
	case KindCircle:
		if len(pixels) < 2 {
			return false
		}
		return p.Distance(pixels[0]) <= pixels[0].Distance(pixels[1])
	case KindDepthPoint, KindText:
		return p.Distance(pixels[0]) < LabelRadius
	case KindMarker:
		pin := geometry.Point2D{X: pixels[0].X, Y: pixels[0].Y - MarkerLift}
		return p.Distance(pin) < MarkerRadius
	}
	return false
}

// HandleAt returns the index of the first vertex handle within HandleRadius
// of p, or -1.
func HandleAt(pixels []geometry.Point2D, p geometry.Point2D) int {
	for i, v := range pixels {
		if p.Distance(v) < HandleRadius {
			return i
		}
	}
	return -1
}

// MoveVertex returns a copy of s with vertex i moved to pt. For polygons the
// closing duplicate follows vertex 0.
func MoveVertex(s *Shape, i int, pt geo.LatLng) *Shape {
	out := s.Clone()
	if i < 0 || i >= len(out.Path) {
		return out
	}
	out.Path[i] = pt
	if out.Kind == KindPolygon && len(out.Path) > 1 {
		last := len(out.Path) - 1
		if i == 0 {
			out.Path[last] = pt
		} else if i == last {
			out.Path[0] = pt
		}
	}
	out.Recompute()
	return out
}
