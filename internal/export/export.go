// Package export renders sketches for other tools: GeoJSON feature
// collections and flat measurement tables.
package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"sitesketch/internal/geo"
	"sitesketch/internal/persist"
	"sitesketch/internal/sketch"
)

// circleSegments is the number of vertices used to approximate a circle.
const circleSegments = 64

// GeoJSON builds a FeatureCollection with one feature per shape, in stacking
// order. Circles are exported as polygons with their radius in properties.
func GeoJSON(meta persist.Meta, shapes []*sketch.Shape) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{
		"sketchId": meta.ID,
		"title":    meta.Title,
	}
	if meta.RecordID != "" {
		fc.ExtraMembers["recordId"] = meta.RecordID
	}

	volumes := sketch.Volumes(shapes)
	for _, s := range shapes {
		g := geometry(s)
		if g == nil {
			continue
		}
		f := geojson.NewFeature(g)
		f.ID = s.ID
		f.Properties = properties(s)
		if v, ok := volumes[s.ID]; ok {
			f.Properties["volume"] = v
		}
		fc.Append(f)
	}
	return fc
}

func geometry(s *sketch.Shape) orb.Geometry {
	if len(s.Path) == 0 {
		return nil
	}
	switch s.Kind {
	case sketch.KindLine, sketch.KindFreehand:
		ls := make(orb.LineString, len(s.Path))
		for i, p := range s.Path {
			ls[i] = p.Point()
		}
		return ls
	case sketch.KindPolygon:
		r := make(orb.Ring, len(s.Path))
		for i, p := range s.Path {
			r[i] = p.Point()
		}
		if !r.Closed() {
			r = append(r, r[0])
		}
		return orb.Polygon{r}
	case sketch.KindCircle:
		if len(s.Path) < 2 {
			return nil
		}
		return orb.Polygon{circleRing(s.Path[0], geo.Distance(s.Path[0], s.Path[1]))}
	default:
		return s.Path[0].Point()
	}
}

func circleRing(center geo.LatLng, meters float64) orb.Ring {
	r := make(orb.Ring, 0, circleSegments+1)
	for i := 0; i < circleSegments; i++ {
		r = append(r, geo.Offset(center, meters, float64(i)*360/circleSegments).Point())
	}
	return append(r, r[0])
}

func properties(s *sketch.Shape) geojson.Properties {
	p := geojson.Properties{
		"kind":        string(s.Kind),
		"strokeColor": s.StrokeColor,
		"strokeWidth": s.StrokeWidth,
		"opacity":     s.Opacity,
	}
	if s.MeasurementKind != sketch.MeasureNone {
		p["measurement"] = s.Measurement
		p["unit"] = s.MeasurementKind.Unit()
		p["label"] = s.Label()
	}
	if s.Kind == sketch.KindCircle && len(s.Path) >= 2 {
		p["radiusFt"] = geo.Distance(s.Path[0], s.Path[1]) * geo.MetersToFeet
	}
	switch s.Kind {
	case sketch.KindText:
		p["text"] = s.Text
		p["fontSize"] = s.FontSize
	case sketch.KindMarker:
		p["title"] = s.Title
	case sketch.KindDepthPoint:
		p["depthInches"] = s.DepthInches
	}
	if s.ServiceID != "" {
		p["serviceId"] = s.ServiceID
	}
	if s.UnitPrice != 0 {
		p["unitPrice"] = s.UnitPrice
	}
	if s.Description != "" {
		p["description"] = s.Description
	}
	return p
}

// Measurement is one row of the measurement list.
type Measurement struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Label       string  `json:"label"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit,omitempty"`
	Volume      float64 `json:"volume,omitempty"`
	ServiceID   string  `json:"serviceId,omitempty"`
	UnitPrice   float64 `json:"unitPrice,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Measurements lists every shape in stacking order, which is also the
// order shown to the user.
func Measurements(shapes []*sketch.Shape) []Measurement {
	volumes := sketch.Volumes(shapes)
	out := make([]Measurement, 0, len(shapes))
	for _, s := range shapes {
		out = append(out, Measurement{
			ID:          s.ID,
			Kind:        string(s.Kind),
			Label:       s.Label(),
			Value:       s.Measurement,
			Unit:        s.MeasurementKind.Unit(),
			Volume:      volumes[s.ID],
			ServiceID:   s.ServiceID,
			UnitPrice:   s.UnitPrice,
			Description: s.Description,
		})
	}
	return out
}
