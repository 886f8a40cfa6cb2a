// Package projection converts between geographic coordinates and canvas pixels
// using the host map's current viewport.
package projection

import (
	"github.com/paulmach/orb"

	"sitesketch/internal/geo"
	"sitesketch/pkg/geometry"
)

// Projection maps geographic points to canvas pixels and back for one
// viewport state. Implementations return ok=false instead of failing.
type Projection interface {
	ToPixel(p geo.LatLng) (geometry.Point2D, bool)
	ToGeo(p geometry.Point2D) (geo.LatLng, bool)
}

// Host is the map viewport service that owns the projection.
type Host interface {
	// Projection returns nil until the map has finished laying out.
	Projection() Projection
	Zoom() float64
	Bounds() orb.Bound
	// OnChange registers fn to run after every pan, zoom or resize.
	OnChange(fn func())
}

// Projector resolves the host's current projection on every call, so callers
// never hold a stale viewport across frames.
type Projector struct {
	host Host
}

// NewProjector wraps a host. A nil host behaves as a map that never becomes ready.
func NewProjector(host Host) *Projector {
	return &Projector{host: host}
}

func (p *Projector) current() Projection {
	if p == nil || p.host == nil {
		return nil
	}
	return p.host.Projection()
}

// Ready reports whether a projection is currently available.
func (p *Projector) Ready() bool {
	return p.current() != nil
}

// ToPixel converts a geographic point to a canvas pixel.
func (p *Projector) ToPixel(pt geo.LatLng) (geometry.Point2D, bool) {
	proj := p.current()
	if proj == nil {
		return geometry.Point2D{}, false
	}
	px, ok := proj.ToPixel(pt)
	if !ok || !px.IsFinite() {
		return geometry.Point2D{}, false
	}
	return px, true
}

// ToGeo converts a canvas pixel to a geographic point.
func (p *Projector) ToGeo(px geometry.Point2D) (geo.LatLng, bool) {
	proj := p.current()
	if proj == nil {
		return geo.LatLng{}, false
	}
	pt, ok := proj.ToGeo(px)
	if !ok || !pt.IsFinite() {
		return geo.LatLng{}, false
	}
	return pt, true
}

// PathToPixels projects every point of path. It fails as a whole if any
// point cannot be projected.
func (p *Projector) PathToPixels(path []geo.LatLng) ([]geometry.Point2D, bool) {
	proj := p.current()
	if proj == nil {
		return nil, false
	}
	out := make([]geometry.Point2D, len(path))
	for i, pt := range path {
		px, ok := proj.ToPixel(pt)
		if !ok || !px.IsFinite() {
			return nil, false
		}
		out[i] = px
	}
	return out, true
}

// PathToGeo converts pixel positions back to geographic points. It fails as
// a whole if any pixel cannot be converted.
func (p *Projector) PathToGeo(pixels []geometry.Point2D) ([]geo.LatLng, bool) {
	proj := p.current()
	if proj == nil {
		return nil, false
	}
	out := make([]geo.LatLng, len(pixels))
	for i, px := range pixels {
		pt, ok := proj.ToGeo(px)
		if !ok || !pt.IsFinite() {
			return nil, false
		}
		out[i] = pt
	}
	return out, true
}
