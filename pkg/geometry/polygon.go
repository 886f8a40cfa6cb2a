package geometry

import (
	"math"
)

// PointInPolygon tests if a point is inside a polygon using ray casting.
// A closing duplicate vertex is harmless.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// PointToSegmentDistance returns the distance from p to the segment a-b.
func PointToSegmentDistance(p, a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		return p.Distance(a)
	}

	// Parameter t of closest point on infinite line, clamped to the segment
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))

	return p.Distance(Point2D{X: a.X + t*dx, Y: a.Y + t*dy})
}

// PointNearPath reports whether p lies within tolerance of any segment of path.
func PointNearPath(p Point2D, path []Point2D, tolerance float64) bool {
	if len(path) == 1 {
		return p.Distance(path[0]) < tolerance
	}
	for i := 0; i+1 < len(path); i++ {
		if PointToSegmentDistance(p, path[i], path[i+1]) < tolerance {
			return true
		}
	}
	return false
}

// RotatedRectContains tests p against r rotated by degrees around its center.
// The point is rotated back into the rectangle's frame before the box test.
func RotatedRectContains(r Rect, degrees float64, p Point2D) bool {
	c := r.Center()
	local := Rotation(-degrees * math.Pi / 180).Apply(p.Sub(c))
	return math.Abs(local.X) <= r.Width/2 && math.Abs(local.Y) <= r.Height/2
}
