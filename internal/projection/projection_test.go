package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitesketch/internal/geo"
	"sitesketch/pkg/geometry"
)

var edmonton = geo.LatLng{Lat: 53.5461, Lng: -113.4938}

func TestProjectorNotReadyBeforeLayout(t *testing.T) {
	v := NewViewport(edmonton, 18)
	p := NewProjector(v)

	assert.False(t, p.Ready())
	_, ok := p.ToPixel(edmonton)
	assert.False(t, ok)
	_, ok = p.ToGeo(geometry.Point2D{X: 1, Y: 1})
	assert.False(t, ok)

	var nilHost *Projector
	_, ok = nilHost.ToPixel(edmonton)
	assert.False(t, ok)
}

func TestViewportCenterMapsToCanvasCenter(t *testing.T) {
	v := NewViewport(edmonton, 18)
	v.SetSize(800, 600)
	p := NewProjector(v)

	px, ok := p.ToPixel(edmonton)
	require.True(t, ok)
	assert.InDelta(t, 400, px.X, 1e-6)
	assert.InDelta(t, 300, px.Y, 1e-6)
}

func TestViewportRoundTrip(t *testing.T) {
	v := NewViewport(edmonton, 19)
	v.SetSize(1024, 768)
	p := NewProjector(v)

	in := geometry.Point2D{X: 123.5, Y: 700.25}
	ll, ok := p.ToGeo(in)
	require.True(t, ok)
	out, ok := p.ToPixel(ll)
	require.True(t, ok)
	assert.InDelta(t, in.X, out.X, 1e-6)
	assert.InDelta(t, in.Y, out.Y, 1e-6)
}

func TestViewportNorthIsUp(t *testing.T) {
	v := NewViewport(edmonton, 18)
	v.SetSize(800, 600)
	p := NewProjector(v)

	north, ok := p.ToPixel(geo.Offset(edmonton, 10, 0))
	require.True(t, ok)
	east, ok := p.ToPixel(geo.Offset(edmonton, 10, 90))
	require.True(t, ok)

	assert.Less(t, north.Y, 300.0)
	assert.Greater(t, east.X, 400.0)
}

func TestViewportZoomAtKeepsAnchor(t *testing.T) {
	v := NewViewport(edmonton, 16)
	v.SetSize(800, 600)
	p := NewProjector(v)

	anchor := geometry.Point2D{X: 100, Y: 150}
	before, ok := p.ToGeo(anchor)
	require.True(t, ok)

	v.ZoomAt(anchor, 2)
	assert.Equal(t, 18.0, v.Zoom())

	after, ok := p.ToGeo(anchor)
	require.True(t, ok)
	assert.InDelta(t, before.Lat, after.Lat, 1e-9)
	assert.InDelta(t, before.Lng, after.Lng, 1e-9)
}

func TestViewportNotifiesAndPans(t *testing.T) {
	v := NewViewport(edmonton, 18)
	v.SetSize(800, 600)
	calls := 0
	v.OnChange(func() { calls++ })

	p := NewProjector(v)
	before, _ := p.ToPixel(edmonton)
	v.Pan(10, -5)
	after, _ := p.ToPixel(edmonton)

	assert.Equal(t, 1, calls)
	assert.InDelta(t, before.X+10, after.X, 1e-6)
	assert.InDelta(t, before.Y-5, after.Y, 1e-6)

	b := v.Bounds()
	assert.True(t, b.Contains(edmonton.Point()))
}

func TestPathToPixelsAllOrNothing(t *testing.T) {
	v := NewViewport(edmonton, 18)
	p := NewProjector(v)
	_, ok := p.PathToPixels([]geo.LatLng{edmonton})
	assert.False(t, ok)

	v.SetSize(800, 600)
	px, ok := p.PathToPixels([]geo.LatLng{edmonton, geo.Offset(edmonton, 5, 90)})
	require.True(t, ok)
	assert.Len(t, px, 2)

	back, ok := p.PathToGeo(px)
	require.True(t, ok)
	assert.InDelta(t, edmonton.Lat, back[0].Lat, 1e-9)
}
