package editor

import (
	"errors"
	"fmt"
	"math"

	"sitesketch/internal/overlay"
	"sitesketch/internal/sketch"
	"sitesketch/pkg/colorutil"
)

// ErrUnknownShape is returned by edits addressed to a missing shape.
var ErrUnknownShape = errors.New("editor: unknown shape")

// Delete removes the selected shapes and returns how many were removed.
func (s *Session) Delete() int {
	if len(s.selection) == 0 {
		return 0
	}
	n := s.store.Remove(s.selection...)
	if n > 0 {
		s.commit()
	}
	return n
}

// Duplicate copies every selected shape directly above its original and
// selects the copies. It returns the new ids.
func (s *Session) Duplicate() []string {
	var ids []string
	for _, sh := range s.selectedShapes() {
		dup := sketch.Duplicate(sh)
		s.store.InsertAfter(sh.ID, dup)
		ids = append(ids, dup.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	s.setSelection(ids)
	s.commit()
	return ids
}

// PreviewTransform sets scale and rotation (degrees) on the selected shapes
// and regenerates their live paths without recording history. It reports
// false if the projection was unavailable for any shape.
func (s *Session) PreviewTransform(scale, rotation float64) bool {
	if !(scale > 0) || math.IsInf(scale, 0) || math.IsNaN(rotation) || math.IsInf(rotation, 0) {
		return false
	}
	ok := true
	var updated []*sketch.Shape
	for _, sh := range s.selectedShapes() {
		if !sh.Kind.Transformable() {
			continue
		}
		next := sh.Clone()
		next.Scale, next.Rotation = scale, rotation
		out, applied := sketch.ApplyTransform(next, s.proj)
		if !applied {
			ok = false
			continue
		}
		updated = append(updated, out)
	}
	s.store.Update(updated...)
	return ok
}

// CommitTransform records the current scale and rotation in history. It is
// called when the user releases the transform control.
func (s *Session) CommitTransform() {
	s.commit()
}

// ResizeTo rewrites a shape's geometry so it measures value, in feet or
// square feet.
func (s *Session) ResizeTo(id string, value float64) error {
	sh, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownShape, id)
	}
	out, err := sketch.Resize(sh, value)
	if err != nil {
		return err
	}
	s.store.Update(out)
	s.commit()
	return nil
}

// StylePatch lists style fields to change. Nil fields are left alone.
type StylePatch struct {
	StrokeColor *string
	StrokeWidth *float64
	Opacity     *float64
	FontSize    *float64
}

// ApplyStyle changes style fields of the selected shapes. Stroke width does
// not apply to labeled shapes and font size only applies to text.
func (s *Session) ApplyStyle(p StylePatch) {
	var updated []*sketch.Shape
	for _, sh := range s.selectedShapes() {
		next := sh.Clone()
		if p.StrokeColor != nil {
			next.StrokeColor = colorutil.Normalize(*p.StrokeColor, next.StrokeColor)
		}
		if p.StrokeWidth != nil && positive(*p.StrokeWidth) && !sh.Kind.Labeled() {
			next.StrokeWidth = *p.StrokeWidth
		}
		if p.Opacity != nil && *p.Opacity >= 0 && *p.Opacity <= 1 {
			next.Opacity = *p.Opacity
		}
		if p.FontSize != nil && positive(*p.FontSize) && sh.Kind == sketch.KindText {
			next.FontSize = *p.FontSize
		}
		updated = append(updated, next)
	}
	if s.store.Update(updated...) > 0 {
		s.commit()
	}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// SetBusiness attaches pricing metadata to a shape.
func (s *Session) SetBusiness(id, serviceID string, unitPrice float64, description string) error {
	sh, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownShape, id)
	}
	if math.IsNaN(unitPrice) || math.IsInf(unitPrice, 0) {
		unitPrice = 0
	}
	next := sh.Clone()
	next.ServiceID, next.UnitPrice, next.Description = serviceID, unitPrice, description
	s.store.Update(next)
	s.commit()
	return nil
}

// SetDepth changes the depth of a depth point.
func (s *Session) SetDepth(id, value string) error {
	sh, ok := s.store.Get(id)
	if !ok || sh.Kind != sketch.KindDepthPoint {
		return fmt.Errorf("%w: %s", ErrUnknownShape, id)
	}
	depth, err := sketch.ParseDepth(value)
	if err != nil {
		return err
	}
	next := sh.Clone()
	next.DepthInches = depth
	s.store.Update(next)
	s.commit()
	return nil
}

// MoveShape changes a shape's position in the list, which is also its
// stacking order.
func (s *Session) MoveShape(id string, index int) bool {
	if !s.store.Move(id, index) {
		return false
	}
	s.commit()
	return true
}

// ClearAll removes every shape.
func (s *Session) ClearAll() {
	if s.store.Len() == 0 {
		return
	}
	s.store.Reset(nil)
	s.commit()
}

// Overlay returns a copy of the overlay image, or nil.
func (s *Session) Overlay() *overlay.Overlay {
	return s.overlay.Clone()
}

// SetOverlay places an image fitted to the canvas, replacing any previous one.
func (s *Session) SetOverlay(o *overlay.Overlay, canvasW, canvasH float64) {
	o = o.Clone()
	o.FitTo(canvasW, canvasH)
	s.overlay = o
	s.Emit(EventOverlayChanged, s.Overlay())
}

// AdjustOverlay sets the overlay's scale, rotation (degrees) and opacity.
// Scale is applied about the image center.
func (s *Session) AdjustOverlay(scale, rotation, opacity float64) {
	if s.overlay == nil || !(scale > 0) || opacity < 0 || opacity > 1 {
		return
	}
	c := s.overlay.Rect().Center()
	s.overlay.Scale = scale
	s.overlay.X = c.X - s.overlay.Width*scale/2
	s.overlay.Y = c.Y - s.overlay.Height*scale/2
	s.overlay.Rotation = rotation
	s.overlay.Opacity = opacity
	s.Emit(EventOverlayChanged, s.Overlay())
}

// MarkOverlayStored records the URL an uploaded overlay was stored at.
func (s *Session) MarkOverlayStored(url string) {
	if s.overlay == nil {
		return
	}
	s.overlay.MarkStored(url)
	s.Emit(EventOverlayChanged, s.Overlay())
}

// RemoveOverlay drops the overlay image.
func (s *Session) RemoveOverlay() {
	if s.overlay == nil {
		return
	}
	s.overlay = nil
	s.Emit(EventOverlayChanged, nil)
}
