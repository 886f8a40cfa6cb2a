// Package persist converts editor state to and from the flat document format
// kept by external stores, and runs the save and load sequences.
package persist

import (
	"time"

	"sitesketch/internal/geo"
	"sitesketch/internal/overlay"
	"sitesketch/internal/pricing"
	"sitesketch/internal/sketch"
)

// FormatVersion is written into every saved document. Version 1 documents
// carry no baseline arrays.
const FormatVersion = 2

// Meta describes the sketch and the business record it belongs to.
type Meta struct {
	ID            string    `json:"id"`
	Title         string    `json:"title,omitempty"`
	ClientName    string    `json:"clientName,omitempty"`
	ClientAddress string    `json:"clientAddress,omitempty"`
	SiteNotes     string    `json:"siteNotes,omitempty"`
	RecordID      string    `json:"recordId,omitempty"`
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`
}

// Document is the persisted form of a sketch. Geometry is stored as parallel
// latitude and longitude arrays.
type Document struct {
	Meta
	Version  int               `json:"version"`
	Shapes   []ShapeRecord     `json:"shapes"`
	Overlay  *OverlayRecord    `json:"overlay,omitempty"`
	Estimate *pricing.Estimate `json:"estimate,omitempty"`
}

// ShapeRecord is one flattened shape.
type ShapeRecord struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Lats         []float64 `json:"lats"`
	Lngs         []float64 `json:"lngs"`
	OriginalLats []float64 `json:"originalLats,omitempty"`
	OriginalLngs []float64 `json:"originalLngs,omitempty"`
	Scale        float64   `json:"scale"`
	Rotation     float64   `json:"rotation"`

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

	Measurement     float64 `json:"measurement"`
	MeasurementKind string  `json:"measurementKind"`
}

// OverlayRecord is the overlay transform plus the URL of its stored image.
type OverlayRecord struct {
	URL      string  `json:"url,omitempty"`
	Format   string  `json:"format,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`

	// pending holds an image that must be uploaded before the record is
	// written.
	pending     []byte
	contentType string
}

// Pending reports whether the record still needs its image uploaded.
func (r *OverlayRecord) Pending() bool {
	return r != nil && r.URL == "" && len(r.pending) > 0
}

// Encode flattens shapes and the overlay into a sanitized document.
func Encode(meta Meta, shapes []*sketch.Shape, ov *overlay.Overlay) *Document {
	doc := &Document{
		Meta:    meta,
		Version: FormatVersion,
		Shapes:  make([]ShapeRecord, 0, len(shapes)),
		Overlay: encodeOverlay(ov),
	}
	for _, s := range shapes {
		doc.Shapes = append(doc.Shapes, encodeShape(s))
	}
	Sanitize(doc)
	return doc
}

func encodeShape(s *sketch.Shape) ShapeRecord {
	lats, lngs := split(s.Path)
	olats, olngs := split(s.OriginalPath)
	return ShapeRecord{
		ID:              s.ID,
		Kind:            string(s.Kind),
		Lats:            lats,
		Lngs:            lngs,
		OriginalLats:    olats,
		OriginalLngs:    olngs,
		Scale:           s.Scale,
		Rotation:        s.Rotation,
		StrokeColor:     s.StrokeColor,
		StrokeWidth:     s.StrokeWidth,
		Opacity:         s.Opacity,
		FontSize:        s.FontSize,
		DepthInches:     s.DepthInches,
		Title:           s.Title,
		Text:            s.Text,
		ServiceID:       s.ServiceID,
		UnitPrice:       s.UnitPrice,
		Description:     s.Description,
		Measurement:     s.Measurement,
		MeasurementKind: string(s.MeasurementKind),
	}
}

// encodeOverlay keeps a stored URL as is and holds a fresh payload for
// upload. An overlay with neither cannot be persisted.
func encodeOverlay(o *overlay.Overlay) *OverlayRecord {
	if o == nil || (!o.IsStored() && !o.NeedsUpload()) {
		return nil
	}
	rec := &OverlayRecord{
		Format:   o.Format,
		X:        o.X,
		Y:        o.Y,
		Width:    o.Width,
		Height:   o.Height,
		Scale:    o.Scale,
		Rotation: o.Rotation,
		Opacity:  o.Opacity,
	}
	if o.IsStored() {
		rec.URL = o.Source
	} else {
		rec.pending = o.Data
		rec.contentType = o.ContentType()
	}
	return rec
}

func split(path []geo.LatLng) (lats, lngs []float64) {
	if len(path) == 0 {
		return nil, nil
	}
	lats = make([]float64, len(path))
	lngs = make([]float64, len(path))
	for i, p := range path {
		lats[i], lngs[i] = p.Lat, p.Lng
	}
	return lats, lngs
}

func join(lats, lngs []float64) []geo.LatLng {
	n := min(len(lats), len(lngs))
	if n == 0 {
		return nil
	}
	out := make([]geo.LatLng, n)
	for i := 0; i < n; i++ {
		out[i] = geo.LatLng{Lat: lats[i], Lng: lngs[i]}
	}
	return out
}

// Decode hydrates shapes and the overlay from a document. The document is
// sanitized first. Shapes with a non-identity transform have their live path
// regenerated through proj when it is ready; otherwise the stored live path
// is kept. Records that cannot form a valid shape are dropped and counted.
func Decode(doc *Document, proj sketch.PathProjector) (shapes []*sketch.Shape, ov *overlay.Overlay, dropped int) {
	Sanitize(doc)
	shapes = make([]*sketch.Shape, 0, len(doc.Shapes))
	for i := range doc.Shapes {
		s, ok := decodeShape(&doc.Shapes[i])
		if !ok {
			dropped++
			continue
		}
		if s.HasTransform() && proj != nil {
			if out, ok := sketch.ApplyTransform(s, proj); ok {
				s = out
			}
		}
		shapes = append(shapes, s)
	}
	return shapes, decodeOverlay(doc.Overlay), dropped
}

func decodeShape(r *ShapeRecord) (*sketch.Shape, bool) {
	s := &sketch.Shape{
		ID:           r.ID,
		Kind:         sketch.Kind(r.Kind),
		Path:         join(r.Lats, r.Lngs),
		OriginalPath: join(r.OriginalLats, r.OriginalLngs),
		Scale:        r.Scale,
		Rotation:     r.Rotation,
		StrokeColor:  r.StrokeColor,
		StrokeWidth:  r.StrokeWidth,
		Opacity:      r.Opacity,
		FontSize:     r.FontSize,
		DepthInches:  r.DepthInches,
		Title:        r.Title,
		Text:         r.Text,
		ServiceID:    r.ServiceID,
		UnitPrice:    r.UnitPrice,
		Description:  r.Description,
	}
	if !validGeometry(s.Kind, s.Path) {
		return nil, false
	}
	if s.Kind == sketch.KindPolygon {
		s.Path = closeRing(s.Path)
		s.OriginalPath = closeRing(s.OriginalPath)
	}
	s.Recompute()
	return s, true
}

func validGeometry(kind sketch.Kind, path []geo.LatLng) bool {
	switch kind {
	case sketch.KindLine, sketch.KindCircle, sketch.KindFreehand:
		return len(path) >= 2
	case sketch.KindPolygon:
		return geo.DistinctCount(path) >= 3
	case sketch.KindDepthPoint, sketch.KindText, sketch.KindMarker:
		return len(path) >= 1
	}
	return false
}

// closeRing repeats the first vertex at the end when the ring is open.
func closeRing(path []geo.LatLng) []geo.LatLng {
	if len(path) == 0 || path[0] == path[len(path)-1] {
		return path
	}
	return append(path, path[0])
}

func decodeOverlay(r *OverlayRecord) *overlay.Overlay {
	if r == nil || r.URL == "" {
		return nil
	}
	return &overlay.Overlay{
		Source:   r.URL,
		Format:   r.Format,
		X:        r.X,
		Y:        r.Y,
		Width:    r.Width,
		Height:   r.Height,
		Scale:    r.Scale,
		Rotation: r.Rotation,
		Opacity:  r.Opacity,
	}
}
