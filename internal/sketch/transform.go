package sketch

import (
	"math"

	"sitesketch/internal/geo"
	"sitesketch/pkg/geometry"
)

// PathProjector converts whole paths between geographic and pixel space.
type PathProjector interface {
	PathToPixels(path []geo.LatLng) ([]geometry.Point2D, bool)
	PathToGeo(pixels []geometry.Point2D) ([]geo.LatLng, bool)
}

// ApplyTransform regenerates the live path of a copy of s from its baseline,
// scale and rotation. The pivot is the pixel-space bounding-box center of
// OriginalPath. At identity the path is the baseline exactly. It reports
// false when the projection is unavailable, in which case s is unchanged.
func ApplyTransform(s *Shape, proj PathProjector) (*Shape, bool) {
	out := s.Clone()
	if !s.HasTransform() {
		out.Path = geo.Clone(s.OriginalPath)
		out.Recompute()
		return out, true
	}

	pixels, ok := proj.PathToPixels(s.OriginalPath)
	if !ok || len(pixels) == 0 {
		return s, false
	}
	pivot := geometry.BoundingBox(pixels).Center()
	t := geometry.AboutPivot(pivot, s.Scale, s.Rotation*math.Pi/180)

	path, ok := proj.PathToGeo(geometry.TransformPath(t, pixels))
	if !ok {
		return s, false
	}
	out.Path = path
	out.Recompute()
	return out, true
}

// Resize back-solves new geometry so the shape measures target. Length shapes
// keep their start point and bearing; area shapes scale about their center.
// The result is committed with an identity transform.
func Resize(s *Shape, target float64) (*Shape, error) {
	if !(target > 0) || math.IsInf(target, 0) || !(s.Measurement > 0) {
		return nil, geo.ErrNotResizable
	}

	var (
		path []geo.LatLng
		err  error
	)
	switch s.Kind {
	case KindLine:
		path, err = geo.ResizeLine(s.Path, target)
	case KindPolygon, KindCircle:
		path, err = geo.ResizeArea(s.Path, s.Measurement, target)
	default:
		return nil, geo.ErrNotResizable
	}
	if err != nil {
		return nil, err
	}
	for _, p := range path {
		if !p.IsFinite() {
			return nil, geo.ErrNotResizable
		}
	}

	out := s.Clone()
	out.Path = path
	out.Commit()
	return out, nil
}
