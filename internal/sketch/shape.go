// Package sketch provides the shape model, the ordered shape store and the
// factory that validates new shapes.
package sketch

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sitesketch/internal/geo"
)

// Kind identifies the drawing tool a shape was created with.
type Kind string

const (
	KindLine       Kind = "line"
	KindFreehand   Kind = "freehand"
	KindCircle     Kind = "circle"
	KindPolygon    Kind = "polygon"
	KindDepthPoint Kind = "depthPoint"
	KindText       Kind = "text"
	KindMarker     Kind = "marker"
)

// Kinds lists every shape kind.
var Kinds = []Kind{KindLine, KindFreehand, KindCircle, KindPolygon, KindDepthPoint, KindText, KindMarker}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Labeled reports whether the kind is a single point carrying a label or value.
func (k Kind) Labeled() bool {
	return k == KindDepthPoint || k == KindText || k == KindMarker
}

// Transformable reports whether scale and rotation apply to the kind.
func (k Kind) Transformable() bool {
	return k == KindLine || k == KindFreehand || k == KindCircle || k == KindPolygon
}

// MeasurementKind returns what the kind measures.
func (k Kind) MeasurementKind() MeasurementKind {
	switch k {
	case KindLine, KindFreehand:
		return MeasureLength
	case KindPolygon, KindCircle:
		return MeasureArea
	default:
		return MeasureNone
	}
}

// MeasurementKind names the unit family of a shape's measurement.
type MeasurementKind string

const (
	MeasureLength MeasurementKind = "length"
	MeasureArea   MeasurementKind = "area"
	MeasureVolume MeasurementKind = "volume"
	MeasureNone   MeasurementKind = "none"
)

// Unit returns the display unit for the measurement kind.
func (m MeasurementKind) Unit() string {
	switch m {
	case MeasureLength:
		return "ft"
	case MeasureArea:
		return "sq ft"
	case MeasureVolume:
		return "cu yd"
	default:
		return ""
	}
}

// Shape is a single annotation on the sketch. Path is the live geometry;
// OriginalPath is the geometry at Scale 1 and Rotation 0.
// Shapes held by a Store are never modified; edits go through Clone.
type Shape struct {
	ID           string       `json:"id"`
	Kind         Kind         `json:"kind"`
	Path         []geo.LatLng `json:"path"`
	OriginalPath []geo.LatLng `json:"originalPath"`
	Scale        float64      `json:"scale"`
	Rotation     float64      `json:"rotation"` // degrees, clockwise

	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
	FontSize    float64 `json:"fontSize,omitempty"`
	DepthInches float64 `json:"depthInches,omitempty"`
	Title       string  `json:"title,omitempty"`
	Text        string  `json:"text,omitempty"`

	ServiceID   string  `json:"serviceId,omitempty"`
	UnitPrice   float64 `json:"unitPrice,omitempty"`
	Description string  `json:"description,omitempty"`

	Measurement     float64         `json:"measurement"`
	MeasurementKind MeasurementKind `json:"measurementKind"`
}

// Clone returns a deep copy of the shape.
func (s *Shape) Clone() *Shape {
	c := *s
	c.Path = geo.Clone(s.Path)
	c.OriginalPath = geo.Clone(s.OriginalPath)
	return &c
}

// HasTransform reports whether scale or rotation differ from identity.
func (s *Shape) HasTransform() bool {
	return s.Scale != 1 || s.Rotation != 0
}

// Anchor returns the first point of the shape, where labels are drawn.
func (s *Shape) Anchor() (geo.LatLng, bool) {
	if len(s.Path) == 0 {
		return geo.LatLng{}, false
	}
	return s.Path[0], true
}

// Recompute derives Measurement and MeasurementKind from Path.
func (s *Shape) Recompute() {
	s.MeasurementKind = s.Kind.MeasurementKind()
	s.Measurement = Measure(s.Kind, s.Path)
}

// Commit folds the live path into the baseline: OriginalPath becomes Path,
// the transform resets to identity and the measurement is recomputed.
func (s *Shape) Commit() {
	s.OriginalPath = geo.Clone(s.Path)
	s.Scale = 1
	s.Rotation = 0
	s.Recompute()
}

// Label returns the text shown next to the shape in the canvas and list.
func (s *Shape) Label() string {
	switch s.Kind {
	case KindText:
		return s.Text
	case KindMarker:
		return s.Title
	case KindDepthPoint:
		return printer.Sprintf("%.1f in", s.DepthInches)
	}
	return FormatMeasurement(s.Measurement, s.MeasurementKind)
}

var printer = message.NewPrinter(language.English)

// FormatMeasurement formats a value with thousands separators and its unit.
func FormatMeasurement(v float64, kind MeasurementKind) string {
	unit := kind.Unit()
	if unit == "" {
		return ""
	}
	return printer.Sprintf("%.1f %s", v, unit)
}

// Measure computes the measurement of path for a shape kind.
func Measure(kind Kind, path []geo.LatLng) float64 {
	switch kind {
	case KindLine, KindFreehand:
		return geo.Length(path)
	case KindPolygon:
		return geo.PolygonArea(path)
	case KindCircle:
		if len(path) < 2 {
			return 0
		}
		return geo.CircleArea(path[0], path[1])
	default:
		return 0
	}
}

// Volumes returns the excavation volume in cubic yards of every area shape
// that contains at least one depth point, keyed by shape id. The depth used
// is the mean of the contained depth points.
func Volumes(shapes []*Shape) map[string]float64 {
	out := make(map[string]float64)
	for _, s := range shapes {
		if s.Kind != KindPolygon && s.Kind != KindCircle {
			continue
		}
		var sum float64
		var n int
		for _, d := range shapes {
			if d.Kind != KindDepthPoint || len(d.Path) == 0 {
				continue
			}
			if containsPoint(s, d.Path[0]) {
				sum += d.DepthInches
				n++
			}
		}
		if n > 0 {
			out[s.ID] = geo.CubicYards(s.Measurement, sum/float64(n))
		}
	}
	return out
}

func containsPoint(s *Shape, p geo.LatLng) bool {
	switch s.Kind {
	case KindPolygon:
		return geo.RingContains(s.Path, p)
	case KindCircle:
		if len(s.Path) < 2 {
			return false
		}
		return geo.Distance(s.Path[0], p) <= geo.Distance(s.Path[0], s.Path[1])
	}
	return false
}
