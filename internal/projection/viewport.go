package projection

import (
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"sitesketch/internal/geo"
	"sitesketch/pkg/geometry"
)

const (
	tileSize = 256.0
	minZoom  = 0.0
	maxZoom  = 23.0
)

// Viewport is a web-mercator map view. It stands in for a tile map host in
// tools and tests, and is safe for use by a render goroutine.
type Viewport struct {
	mu sync.RWMutex

	// Center in spherical mercator meters
	center orb.Point
	zoom   float64

	width  int
	height int

	listeners []func()
}

// NewViewport creates a viewport centered on c. It has no projection until
// SetSize is called with a non-empty size.
func NewViewport(c geo.LatLng, zoom float64) *Viewport {
	return &Viewport{
		center: project.WGS84.ToMercator(c.Point()),
		zoom:   clampZoom(zoom),
	}
}

// mercatorProjection is an immutable snapshot of a viewport.
type mercatorProjection struct {
	center orb.Point
	res    float64 // meters per pixel
	halfW  float64
	halfH  float64
}

func (m mercatorProjection) ToPixel(p geo.LatLng) (geometry.Point2D, bool) {
	merc := project.WGS84.ToMercator(p.Point())
	px := geometry.Point2D{
		X: m.halfW + (merc[0]-m.center[0])/m.res,
		Y: m.halfH - (merc[1]-m.center[1])/m.res,
	}
	return px, px.IsFinite()
}

func (m mercatorProjection) ToGeo(px geometry.Point2D) (geo.LatLng, bool) {
	merc := orb.Point{
		m.center[0] + (px.X-m.halfW)*m.res,
		m.center[1] - (px.Y-m.halfH)*m.res,
	}
	p := geo.FromPoint(project.Mercator.ToWGS84(merc))
	return p, p.IsFinite()
}

// Projection returns a snapshot of the current view, or nil before layout.
func (v *Viewport) Projection() Projection {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.width <= 0 || v.height <= 0 {
		return nil
	}
	return v.snapshot()
}

func (v *Viewport) snapshot() mercatorProjection {
	return mercatorProjection{
		center: v.center,
		res:    resolution(v.zoom),
		halfW:  float64(v.width) / 2,
		halfH:  float64(v.height) / 2,
	}
}

// Zoom returns the current zoom level.
func (v *Viewport) Zoom() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.zoom
}

// Bounds returns the geographic area currently visible.
func (v *Viewport) Bounds() orb.Bound {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.width <= 0 || v.height <= 0 {
		c := project.Mercator.ToWGS84(v.center)
		return orb.Bound{Min: c, Max: c}
	}
	m := v.snapshot()
	sw, _ := m.ToGeo(geometry.Point2D{X: 0, Y: float64(v.height)})
	ne, _ := m.ToGeo(geometry.Point2D{X: float64(v.width), Y: 0})
	return orb.Bound{Min: sw.Point(), Max: ne.Point()}
}

// OnChange registers fn to run after the view changes.
func (v *Viewport) OnChange(fn func()) {
	v.mu.Lock()
	v.listeners = append(v.listeners, fn)
	v.mu.Unlock()
}

// SetSize updates the canvas size in pixels.
func (v *Viewport) SetSize(width, height int) {
	v.mu.Lock()
	v.width = width
	v.height = height
	v.mu.Unlock()
	v.notify()
}

// Center returns the geographic center of the view.
func (v *Viewport) Center() geo.LatLng {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return geo.FromPoint(project.Mercator.ToWGS84(v.center))
}

// SetCenter re-centers the view, for example on a geocoded address.
func (v *Viewport) SetCenter(c geo.LatLng) {
	v.mu.Lock()
	v.center = project.WGS84.ToMercator(c.Point())
	v.mu.Unlock()
	v.notify()
}

// Pan moves the view by screen pixel offsets.
func (v *Viewport) Pan(dx, dy float64) {
	v.mu.Lock()
	res := resolution(v.zoom)
	v.center[0] -= dx * res
	v.center[1] += dy * res
	v.mu.Unlock()
	v.notify()
}

// ZoomAt changes the zoom level by delta while keeping the geographic point
// under the screen position stationary.
func (v *Viewport) ZoomAt(screen geometry.Point2D, delta float64) {
	v.mu.Lock()
	if v.width <= 0 || v.height <= 0 {
		v.zoom = clampZoom(v.zoom + delta)
		v.mu.Unlock()
		v.notify()
		return
	}
	before := v.snapshot()
	anchor := orb.Point{
		before.center[0] + (screen.X-before.halfW)*before.res,
		before.center[1] - (screen.Y-before.halfH)*before.res,
	}
	v.zoom = clampZoom(v.zoom + delta)
	res := resolution(v.zoom)
	v.center = orb.Point{
		anchor[0] - (screen.X-before.halfW)*res,
		anchor[1] + (screen.Y-before.halfH)*res,
	}
	v.mu.Unlock()
	v.notify()
}

func (v *Viewport) notify() {
	v.mu.RLock()
	listeners := append([]func(){}, v.listeners...)
	v.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// resolution returns meters per pixel at the equator for a zoom level.
func resolution(zoom float64) float64 {
	return 2 * math.Pi * orb.EarthRadius / (tileSize * math.Pow(2, zoom))
}

func clampZoom(z float64) float64 {
	return math.Max(minZoom, math.Min(maxZoom, z))
}
