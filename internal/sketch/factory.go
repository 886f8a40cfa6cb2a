package sketch

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"sitesketch/internal/geo"
	"sitesketch/pkg/colorutil"
)

// Validation errors returned by the factory. Editors discard the gesture on
// any of them.
var (
	ErrDegenerate  = errors.New("sketch: degenerate geometry")
	ErrEmptyLabel  = errors.New("sketch: empty label")
	ErrUnknownKind = errors.New("sketch: unknown shape kind")
)

// Style holds the defaults applied to new shapes.
type Style struct {
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
	FontSize    float64 `json:"fontSize"`
}

// DefaultStyle returns the stock style for new shapes.
func DefaultStyle() Style {
	return Style{
		StrokeColor: colorutil.DefaultStroke,
		StrokeWidth: 5,
		Opacity:     1,
		FontSize:    16,
	}
}

// NewID returns a fresh shape identifier.
func NewID() string {
	return uuid.NewString()
}

func newShape(kind Kind, path []geo.LatLng, style Style) *Shape {
	return &Shape{
		ID:           NewID(),
		Kind:         kind,
		Path:         path,
		OriginalPath: geo.Clone(path),
		Scale:        1,
		StrokeColor:  colorutil.Normalize(style.StrokeColor, colorutil.DefaultStroke),
		StrokeWidth:  style.StrokeWidth,
		Opacity:      style.Opacity,
	}
}

// Build constructs a geometric shape from a completed gesture. Lines and
// circles take exactly two control points, freehand at least two samples,
// and polygons at least three distinct vertices; the polygon ring is closed
// if needed. Shapes that measure zero are rejected with ErrDegenerate.
func Build(kind Kind, path []geo.LatLng, style Style) (*Shape, error) {
	for _, p := range path {
		if !p.IsFinite() {
			return nil, fmt.Errorf("%w: non-finite vertex", ErrDegenerate)
		}
	}

	switch kind {
	case KindLine, KindCircle:
		if len(path) != 2 {
			return nil, fmt.Errorf("%w: %s needs 2 points, got %d", ErrDegenerate, kind, len(path))
		}
	case KindFreehand:
		if len(path) < 2 {
			return nil, fmt.Errorf("%w: freehand needs 2 samples, got %d", ErrDegenerate, len(path))
		}
	case KindPolygon:
		if geo.DistinctCount(path) < 3 {
			return nil, fmt.Errorf("%w: polygon needs 3 distinct vertices", ErrDegenerate)
		}
		path = closeRing(path)
	case KindDepthPoint, KindText, KindMarker:
		return nil, fmt.Errorf("%w: %s is built with NewLabel", ErrUnknownKind, kind)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	sh := newShape(kind, geo.Clone(path), style)
	sh.Recompute()
	if !(sh.Measurement > 0) || math.IsInf(sh.Measurement, 0) {
		return nil, fmt.Errorf("%w: %s measures zero", ErrDegenerate, kind)
	}
	return sh, nil
}

// NewLabel constructs a single point shape. The value is the marker title,
// the text body, or the depth in inches for depth points.
func NewLabel(kind Kind, at geo.LatLng, value string, style Style) (*Shape, error) {
	if !at.IsFinite() {
		return nil, fmt.Errorf("%w: non-finite position", ErrDegenerate)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrEmptyLabel
	}

	sh := newShape(kind, []geo.LatLng{at}, style)
	switch kind {
	case KindText:
		sh.Text = value
		sh.FontSize = style.FontSize
		if !(sh.FontSize > 0) {
			sh.FontSize = DefaultStyle().FontSize
		}
	case KindMarker:
		sh.Title = value
	case KindDepthPoint:
		depth, err := ParseDepth(value)
		if err != nil {
			return nil, err
		}
		sh.DepthInches = depth
	default:
		return nil, fmt.Errorf("%w: %q is not a labeled kind", ErrUnknownKind, kind)
	}
	sh.Recompute()
	return sh, nil
}

// ParseDepth parses a depth in inches. Only positive finite values are accepted.
func ParseDepth(value string) (float64, error) {
	depth, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(depth) || math.IsInf(depth, 0) || depth <= 0 {
		return 0, fmt.Errorf("%w: invalid depth %q", ErrEmptyLabel, value)
	}
	return depth, nil
}

func closeRing(path []geo.LatLng) []geo.LatLng {
	if path[0] == path[len(path)-1] {
		return path
	}
	out := make([]geo.LatLng, 0, len(path)+1)
	out = append(out, path...)
	return append(out, path[0])
}

// Duplicate returns a deep copy of src with a new id and a stroke color that
// differs from the source.
func Duplicate(src *Shape) *Shape {
	c := src.Clone()
	c.ID = NewID()
	c.StrokeColor = colorutil.Distinct(src.StrokeColor)
	return c
}
