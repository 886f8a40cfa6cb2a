// Package geo implements spherical measurement of geographic paths.
package geo

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// Unit conversions applied to spherical results, which are in meters.
const (
	MetersToFeet       = 3.28084
	SqMetersToSqFeet   = 10.7639
	cubicFeetPerYard   = 27.0
	inchesPerFoot      = 12.0
	minResizableSample = 1e-9
)

// ErrNotResizable is returned when a path has no measurable extent to scale from.
var ErrNotResizable = errors.New("geo: path cannot be resized")

// LatLng is a geographic point in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts to an orb point, which is ordered longitude first.
func (p LatLng) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// FromPoint converts an orb point back to a LatLng.
func FromPoint(pt orb.Point) LatLng {
	return LatLng{Lat: pt.Lat(), Lng: pt.Lon()}
}

// IsFinite reports whether both coordinates are finite numbers.
func (p LatLng) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) && !math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b LatLng) float64 {
	return geo.Distance(a.Point(), b.Point())
}

// Bearing returns the initial bearing from a to b in degrees.
func Bearing(a, b LatLng) float64 {
	return geo.Bearing(a.Point(), b.Point())
}

// Offset returns the point reached by travelling meters from p along bearing.
func Offset(p LatLng, meters, bearing float64) LatLng {
	return FromPoint(geo.PointAtBearingAndDistance(p.Point(), bearing, meters))
}

// Length returns the sum of great-circle distances along path, in feet.
func Length(path []LatLng) float64 {
	if len(path) < 2 {
		return 0
	}
	return geo.Length(lineString(path)) * MetersToFeet
}

// PolygonArea returns the spherical area enclosed by path, in square feet.
// The ring is closed implicitly if the last point does not repeat the first.
func PolygonArea(path []LatLng) float64 {
	if len(path) < 3 {
		return 0
	}
	return math.Abs(geo.Area(orb.Polygon{ring(path)})) * SqMetersToSqFeet
}

// CircleArea returns pi*r^2 for a circle given its center and a point on the
// radius, in square feet.
func CircleArea(center, edge LatLng) float64 {
	r := Distance(center, edge)
	return math.Pi * r * r * SqMetersToSqFeet
}

// CubicYards converts a footprint in square feet and a depth in inches to a volume.
func CubicYards(areaSqFt, depthInches float64) float64 {
	if areaSqFt <= 0 || depthInches <= 0 {
		return 0
	}
	return areaSqFt * (depthInches / inchesPerFoot) / cubicFeetPerYard
}

// Bounds returns the lat/lng bounding box of path.
func Bounds(path []LatLng) orb.Bound {
	mp := make(orb.MultiPoint, len(path))
	for i, p := range path {
		mp[i] = p.Point()
	}
	return mp.Bound()
}

// Center returns the center of the bounding box of path.
func Center(path []LatLng) LatLng {
	if len(path) == 0 {
		return LatLng{}
	}
	return FromPoint(Bounds(path).Center())
}

// RingContains reports whether p lies inside the polygon described by path.
func RingContains(path []LatLng, p LatLng) bool {
	if len(path) < 3 {
		return false
	}
	return planar.RingContains(ring(path), p.Point())
}

// ResizeLine keeps the start point and bearing of a two point path and moves
// the end point so the line measures targetFeet.
func ResizeLine(path []LatLng, targetFeet float64) ([]LatLng, error) {
	if len(path) < 2 || targetFeet <= 0 || Distance(path[0], path[1]) < minResizableSample {
		return nil, ErrNotResizable
	}
	out := Clone(path)
	out[1] = Offset(path[0], targetFeet/MetersToFeet, Bearing(path[0], path[1]))
	return out, nil
}

// ResizeArea scales every vertex's offset from the bounding-box center by
// sqrt(target/current).
func ResizeArea(path []LatLng, currentSqFt, targetSqFt float64) ([]LatLng, error) {
	if len(path) == 0 || currentSqFt <= 0 || targetSqFt <= 0 {
		return nil, ErrNotResizable
	}
	k := math.Sqrt(targetSqFt / currentSqFt)
	c := Center(path)
	out := make([]LatLng, len(path))
	for i, p := range path {
		out[i] = Offset(c, Distance(c, p)*k, Bearing(c, p))
	}
	return out, nil
}

// Clone returns a copy of path.
func Clone(path []LatLng) []LatLng {
	if path == nil {
		return nil
	}
	out := make([]LatLng, len(path))
	copy(out, path)
	return out
}

// Equal reports whether two paths hold identical points in the same order.
func Equal(a, b []LatLng) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DistinctCount returns the number of distinct points in path.
func DistinctCount(path []LatLng) int {
	seen := make(map[LatLng]struct{}, len(path))
	for _, p := range path {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func lineString(path []LatLng) orb.LineString {
	ls := make(orb.LineString, len(path))
	for i, p := range path {
		ls[i] = p.Point()
	}
	return ls
}

func ring(path []LatLng) orb.Ring {
	r := make(orb.Ring, 0, len(path)+1)
	for _, p := range path {
		r = append(r, p.Point())
	}
	if !r.Closed() {
		r = append(r, r[0])
	}
	return r
}
