package sketch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitesketch/internal/geo"
	"sitesketch/pkg/geometry"
)

var origin = geo.LatLng{Lat: 49.2827, Lng: -123.1207}

// flatProjector maps degrees linearly onto pixels.
type flatProjector struct{ ready bool }

const pxPerDegree = 1e5

func (f flatProjector) PathToPixels(path []geo.LatLng) ([]geometry.Point2D, bool) {
	if !f.ready {
		return nil, false
	}
	out := make([]geometry.Point2D, len(path))
	for i, p := range path {
		out[i] = geometry.Point2D{X: p.Lng * pxPerDegree, Y: -p.Lat * pxPerDegree}
	}
	return out, true
}

func (f flatProjector) PathToGeo(px []geometry.Point2D) ([]geo.LatLng, bool) {
	if !f.ready {
		return nil, false
	}
	out := make([]geo.LatLng, len(px))
	for i, p := range px {
		out[i] = geo.LatLng{Lat: -p.Y / pxPerDegree, Lng: p.X / pxPerDegree}
	}
	return out, true
}

func mustLine(t *testing.T, meters float64) *Shape {
	t.Helper()
	sh, err := Build(KindLine, []geo.LatLng{origin, geo.Offset(origin, meters, 90)}, DefaultStyle())
	require.NoError(t, err)
	return sh
}

func squarePath(side float64) []geo.LatLng {
	p1 := geo.Offset(origin, side, 90)
	return []geo.LatLng{origin, p1, geo.Offset(p1, side, 0), geo.Offset(origin, side, 0)}
}

func TestBuildLineMeasuresFeet(t *testing.T) {
	sh := mustLine(t, 100)

	assert.Equal(t, MeasureLength, sh.MeasurementKind)
	assert.InEpsilon(t, 328.08, sh.Measurement, 0.001)
	assert.Equal(t, sh.Path, sh.OriginalPath)
	assert.Equal(t, 1.0, sh.Scale)
	assert.Zero(t, sh.Rotation)
	assert.NotEmpty(t, sh.ID)
	assert.Equal(t, "#ff0000", sh.StrokeColor)
}

func TestBuildRejectsDegenerate(t *testing.T) {
	_, err := Build(KindLine, []geo.LatLng{origin, origin}, DefaultStyle())
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = Build(KindCircle, []geo.LatLng{origin, origin}, DefaultStyle())
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = Build(KindPolygon, squarePath(10)[:2], DefaultStyle())
	assert.ErrorIs(t, err, ErrDegenerate)

	p := squarePath(10)
	_, err = Build(KindPolygon, []geo.LatLng{p[0], p[1], p[1], p[0]}, DefaultStyle())
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = Build(KindFreehand, []geo.LatLng{origin}, DefaultStyle())
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = Build(Kind("spline"), squarePath(10), DefaultStyle())
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestBuildPolygonClosesRing(t *testing.T) {
	sh, err := Build(KindPolygon, squarePath(10), DefaultStyle())
	require.NoError(t, err)

	require.Len(t, sh.Path, 5)
	assert.Equal(t, sh.Path[0], sh.Path[4])
	assert.Equal(t, MeasureArea, sh.MeasurementKind)
	assert.InEpsilon(t, 1076.4, sh.Measurement, 0.01)
}

func TestNewLabel(t *testing.T) {
	txt, err := NewLabel(KindText, origin, "  gate  ", Style{FontSize: 20})
	require.NoError(t, err)
	assert.Equal(t, "gate", txt.Text)
	assert.Equal(t, 20.0, txt.FontSize)
	assert.Equal(t, MeasureNone, txt.MeasurementKind)

	_, err = NewLabel(KindMarker, origin, "   ", DefaultStyle())
	assert.ErrorIs(t, err, ErrEmptyLabel)

	d, err := NewLabel(KindDepthPoint, origin, "18", DefaultStyle())
	require.NoError(t, err)
	assert.Equal(t, 18.0, d.DepthInches)
	assert.Equal(t, "18.0 in", d.Label())

	_, err = NewLabel(KindDepthPoint, origin, "deep", DefaultStyle())
	assert.ErrorIs(t, err, ErrEmptyLabel)
}

func TestApplyTransformIdentityIsBaseline(t *testing.T) {
	sh := mustLine(t, 30)
	sh.Path = []geo.LatLng{origin, origin}

	out, ok := ApplyTransform(sh, flatProjector{ready: false})
	require.True(t, ok)
	assert.Equal(t, sh.OriginalPath, out.Path)
}

func TestApplyTransformScalesAboutCenter(t *testing.T) {
	sh := mustLine(t, 30)
	sh.Scale = 2

	out, ok := ApplyTransform(sh, flatProjector{ready: true})
	require.True(t, ok)
	assert.InEpsilon(t, sh.Measurement*2, out.Measurement, 0.001)
	assert.Equal(t, sh.OriginalPath, out.OriginalPath)

	mid := geo.Center(sh.OriginalPath)
	assert.InDelta(t, mid.Lat, geo.Center(out.Path).Lat, 1e-9)
	assert.InDelta(t, mid.Lng, geo.Center(out.Path).Lng, 1e-9)
}

func TestApplyTransformSkipsWithoutProjection(t *testing.T) {
	sh := mustLine(t, 30)
	sh.Rotation = 45

	out, ok := ApplyTransform(sh, flatProjector{ready: false})
	assert.False(t, ok)
	assert.Same(t, sh, out)
}

func TestCommitResetsTransform(t *testing.T) {
	sh := mustLine(t, 30)
	sh.Scale, sh.Rotation = 1.5, 30
	out, ok := ApplyTransform(sh, flatProjector{ready: true})
	require.True(t, ok)

	out.Commit()
	assert.Equal(t, 1.0, out.Scale)
	assert.Zero(t, out.Rotation)
	assert.Equal(t, out.Path, out.OriginalPath)
}

func TestResizeLine(t *testing.T) {
	sh := mustLine(t, 20/geo.MetersToFeet)
	require.InEpsilon(t, 20, sh.Measurement, 0.001)

	out, err := Resize(sh, 50)
	require.NoError(t, err)
	assert.Equal(t, sh.Path[0], out.Path[0])
	assert.InEpsilon(t, 50, out.Measurement, 0.001)
	assert.Equal(t, out.Path, out.OriginalPath)

	_, err = Resize(sh, 0)
	assert.ErrorIs(t, err, geo.ErrNotResizable)
}

func TestResizePolygon(t *testing.T) {
	sh, err := Build(KindPolygon, squarePath(10), DefaultStyle())
	require.NoError(t, err)

	out, err := Resize(sh, sh.Measurement*2)
	require.NoError(t, err)
	assert.InEpsilon(t, sh.Measurement*2, out.Measurement, 0.01)
	assert.Equal(t, out.Path[0], out.Path[len(out.Path)-1])
}

func TestResizeRejectsNonFiniteTarget(t *testing.T) {
	line := mustLine(t, 30)
	square, err := Build(KindPolygon, squarePath(10), DefaultStyle())
	require.NoError(t, err)

	for _, sh := range []*Shape{line, square} {
		for _, target := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
			out, err := Resize(sh, target)
			assert.ErrorIs(t, err, geo.ErrNotResizable, "%s to %v", sh.Kind, target)
			assert.Nil(t, out)
		}
	}
}

func TestHitTest(t *testing.T) {
	line := &Shape{Kind: KindLine}
	px := []geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}}
	assert.True(t, HitTest(line, px, geometry.Point2D{X: 50, Y: 9}))
	assert.False(t, HitTest(line, px, geometry.Point2D{X: 50, Y: 11}))

	circle := &Shape{Kind: KindCircle}
	assert.True(t, HitTest(circle, []geometry.Point2D{{X: 0, Y: 0}, {X: 30, Y: 0}}, geometry.Point2D{X: 0, Y: 30}))

	marker := &Shape{Kind: KindMarker}
	assert.True(t, HitTest(marker, []geometry.Point2D{{X: 50, Y: 50}}, geometry.Point2D{X: 50, Y: 36}))
	assert.False(t, HitTest(marker, []geometry.Point2D{{X: 50, Y: 50}}, geometry.Point2D{X: 50, Y: 66}))

	text := &Shape{Kind: KindText}
	assert.True(t, HitTest(text, []geometry.Point2D{{X: 5, Y: 5}}, geometry.Point2D{X: 8, Y: 8}))
	assert.False(t, HitTest(text, nil, geometry.Point2D{}))
}

func TestHandleAtAndMoveVertex(t *testing.T) {
	sh, err := Build(KindPolygon, squarePath(10), DefaultStyle())
	require.NoError(t, err)
	px, _ := flatProjector{ready: true}.PathToPixels(sh.Path)

	assert.Equal(t, 0, HandleAt(px, px[0].Add(geometry.Point2D{X: 3, Y: 3})))
	assert.Equal(t, -1, HandleAt(px, px[0].Add(geometry.Point2D{X: 30, Y: 30})))

	moved := geo.Offset(origin, 3, 225)
	out := MoveVertex(sh, 0, moved)
	assert.Equal(t, moved, out.Path[0])
	assert.Equal(t, moved, out.Path[len(out.Path)-1])
	assert.Equal(t, sh.Path[0], origin, "source shape must not change")
	assert.Greater(t, out.Measurement, sh.Measurement)
}

func TestDuplicate(t *testing.T) {
	sh := mustLine(t, 10)
	dup := Duplicate(sh)

	assert.NotEqual(t, sh.ID, dup.ID)
	assert.NotEqual(t, sh.StrokeColor, dup.StrokeColor)
	assert.Equal(t, sh.Path, dup.Path)
	dup.Path[0] = geo.LatLng{}
	assert.Equal(t, origin, sh.Path[0])
}

func TestVolumes(t *testing.T) {
	poly, err := Build(KindPolygon, squarePath(10), DefaultStyle())
	require.NoError(t, err)
	inside := geo.Offset(geo.Offset(origin, 5, 90), 5, 0)
	d1, _ := NewLabel(KindDepthPoint, inside, "12", DefaultStyle())
	d2, _ := NewLabel(KindDepthPoint, geo.Offset(inside, 1, 0), "24", DefaultStyle())
	far, _ := NewLabel(KindDepthPoint, geo.Offset(origin, 100, 270), "100", DefaultStyle())

	vols := Volumes([]*Shape{poly, d1, d2, far})
	require.Contains(t, vols, poly.ID)
	assert.InEpsilon(t, geo.CubicYards(poly.Measurement, 18), vols[poly.ID], 1e-9)
}

func TestStoreOrderingAndNotifications(t *testing.T) {
	s := NewStore()
	calls := 0
	s.OnChange(func() { calls++ })

	a, b, c := mustLine(t, 1), mustLine(t, 2), mustLine(t, 3)
	s.Add(a)
	s.Add(b)
	s.InsertAfter(a.ID, c)
	assert.Equal(t, []*Shape{a, c, b}, s.Shapes())

	before := s.Shapes()
	s.Remove(c.ID)
	assert.Len(t, before, 3, "published slices are never mutated")
	assert.Equal(t, []*Shape{a, b}, s.Shapes())
	assert.False(t, s.Contains(c.ID))

	a2 := a.Clone()
	a2.StrokeColor = "#00ff00"
	assert.Equal(t, 1, s.Update(a2))
	got, ok := s.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, "#00ff00", got.StrokeColor)

	assert.True(t, s.Move(b.ID, 0))
	assert.Equal(t, 0, s.Index(b.ID))
	assert.False(t, s.Move("missing", 0))

	s.Reset(nil)
	assert.Zero(t, s.Len())
	assert.Equal(t, 7, calls)
}
