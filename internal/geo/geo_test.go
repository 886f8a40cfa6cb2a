package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var origin = LatLng{Lat: 53.5461, Lng: -113.4938}

func square(side float64) []LatLng {
	p0 := origin
	p1 := Offset(p0, side, 90)
	p2 := Offset(p1, side, 0)
	p3 := Offset(p0, side, 0)
	return []LatLng{p0, p1, p2, p3, p0}
}

func TestLengthOfHundredMeters(t *testing.T) {
	end := Offset(origin, 100, 37)
	got := Length([]LatLng{origin, end})

	assert.InEpsilon(t, 328.084, got, 0.001)
}

func TestLengthSumsSegments(t *testing.T) {
	a := Offset(origin, 10, 90)
	b := Offset(a, 10, 180)
	got := Length([]LatLng{origin, a, b})

	assert.InEpsilon(t, 20*MetersToFeet, got, 0.001)
	assert.Zero(t, Length([]LatLng{origin}))
}

func TestPolygonAreaOfTenMeterSquare(t *testing.T) {
	got := PolygonArea(square(10))
	assert.InEpsilon(t, 1076.39, got, 0.01)

	open := square(10)[:4]
	assert.InEpsilon(t, got, PolygonArea(open), 1e-9)
}

func TestCircleArea(t *testing.T) {
	edge := Offset(origin, 5, 45)
	assert.InEpsilon(t, 3.14159265*25*SqMetersToSqFeet, CircleArea(origin, edge), 0.001)
}

func TestResizeLineKeepsStartAndBearing(t *testing.T) {
	end := Offset(origin, 20/MetersToFeet, 120)
	path := []LatLng{origin, end}
	require.InEpsilon(t, 20, Length(path), 0.001)

	resized, err := ResizeLine(path, 50)
	require.NoError(t, err)

	assert.Equal(t, origin, resized[0])
	assert.InEpsilon(t, 50, Length(resized), 0.001)
	assert.InDelta(t, Bearing(path[0], path[1]), Bearing(resized[0], resized[1]), 1e-6)
	assert.Equal(t, end, path[1], "input path must not be modified")
}

func TestResizeLineRejectsDegenerate(t *testing.T) {
	_, err := ResizeLine([]LatLng{origin, origin}, 10)
	assert.ErrorIs(t, err, ErrNotResizable)

	_, err = ResizeLine([]LatLng{origin, Offset(origin, 5, 0)}, -1)
	assert.ErrorIs(t, err, ErrNotResizable)
}

func TestResizeArea(t *testing.T) {
	path := square(10)
	current := PolygonArea(path)

	resized, err := ResizeArea(path, current, current*4)
	require.NoError(t, err)
	assert.InEpsilon(t, current*4, PolygonArea(resized), 0.01)

	_, err = ResizeArea(path, 0, 10)
	assert.ErrorIs(t, err, ErrNotResizable)
}

func TestRingContains(t *testing.T) {
	path := square(10)
	inside := Offset(Offset(origin, 5, 90), 5, 0)
	outside := Offset(origin, 50, 270)

	assert.True(t, RingContains(path, inside))
	assert.False(t, RingContains(path, outside))
}

func TestCubicYards(t *testing.T) {
	assert.InDelta(t, 1.0, CubicYards(27, 12), 1e-9)
	assert.Zero(t, CubicYards(100, 0))
}

func TestDistinctCount(t *testing.T) {
	assert.Equal(t, 4, DistinctCount(square(10)))
}
