package persist

import (
	"math"
	"strings"

	"sitesketch/internal/metrics"
	"sitesketch/internal/overlay"
	"sitesketch/internal/sketch"
	"sitesketch/pkg/colorutil"
)

// Sanitize replaces every non-finite or out-of-range numeric field of doc
// with a safe default and returns how many fields it changed. Coordinate
// pairs with a non-finite component are removed. Records written before
// baselines were stored get originalPath := path and an identity transform.
func Sanitize(doc *Document) int {
	fixed := 0
	if doc.Version == 0 {
		doc.Version = 1
	}
	def := sketch.DefaultStyle()

	for i := range doc.Shapes {
		r := &doc.Shapes[i]
		if r.ID == "" {
			r.ID = sketch.NewID()
			fixed++
		}
		var n int
		r.Lats, r.Lngs, n = cleanCoords(r.Lats, r.Lngs)
		fixed += n
		r.OriginalLats, r.OriginalLngs, n = cleanCoords(r.OriginalLats, r.OriginalLngs)
		fixed += n

		if len(r.OriginalLats) == 0 {
			r.OriginalLats = append([]float64(nil), r.Lats...)
			r.OriginalLngs = append([]float64(nil), r.Lngs...)
			r.Scale, r.Rotation = 1, 0
		}

		fixed += clamp(&r.Scale, 1, func(v float64) bool { return v > 0 })
		fixed += clamp(&r.Rotation, 0, nil)
		fixed += clamp(&r.StrokeWidth, def.StrokeWidth, func(v float64) bool { return v > 0 })
		fixed += clamp(&r.Opacity, def.Opacity, func(v float64) bool { return v >= 0 && v <= 1 })
		fixed += clamp(&r.FontSize, 0, func(v float64) bool { return v >= 0 })
		fixed += clamp(&r.DepthInches, 0, func(v float64) bool { return v >= 0 })
		fixed += clamp(&r.UnitPrice, 0, nil)
		fixed += clamp(&r.Measurement, 0, nil)

		if c := colorutil.Normalize(r.StrokeColor, def.StrokeColor); c != strings.ToLower(r.StrokeColor) {
			r.StrokeColor = c
			fixed++
		}
		if r.Kind == string(sketch.KindText) && r.FontSize == 0 {
			r.FontSize = def.FontSize
		}
	}

	if o := doc.Overlay; o != nil {
		fixed += clamp(&o.X, 0, nil)
		fixed += clamp(&o.Y, 0, nil)
		fixed += clamp(&o.Width, 0, func(v float64) bool { return v >= 0 })
		fixed += clamp(&o.Height, 0, func(v float64) bool { return v >= 0 })
		fixed += clamp(&o.Scale, 1, func(v float64) bool { return v > 0 })
		fixed += clamp(&o.Rotation, 0, nil)
		fixed += clamp(&o.Opacity, overlay.DefaultOpacity, func(v float64) bool { return v >= 0 && v <= 1 })
	}

	if fixed > 0 {
		metrics.SanitizedFieldsTotal.Add(float64(fixed))
	}
	return fixed
}

// clamp replaces *v with def when it is not finite or fails ok.
func clamp(v *float64, def float64, ok func(float64) bool) int {
	if math.IsNaN(*v) || math.IsInf(*v, 0) || (ok != nil && !ok(*v)) {
		*v = def
		return 1
	}
	return 0
}

// cleanCoords truncates parallel arrays to the same length and removes pairs
// that are not finite or outside the valid latitude and longitude range.
func cleanCoords(lats, lngs []float64) ([]float64, []float64, int) {
	fixed := 0
	if len(lats) != len(lngs) {
		n := min(len(lats), len(lngs))
		fixed += max(len(lats), len(lngs)) - n
		lats, lngs = lats[:n], lngs[:n]
	}
	outLats := lats[:0:0]
	outLngs := lngs[:0:0]
	for i := range lats {
		lat, lng := lats[i], lngs[i]
		if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) ||
			math.Abs(lat) > 90 || math.Abs(lng) > 180 {
			fixed++
			continue
		}
		outLats = append(outLats, lat)
		outLngs = append(outLngs, lng)
	}
	if fixed == 0 {
		return lats, lngs, 0
	}
	return outLats, outLngs, fixed
}
