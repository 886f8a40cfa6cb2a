package editor

import (
	"sitesketch/internal/overlay"
	"sitesketch/internal/sketch"
	"sitesketch/pkg/geometry"
)

// Renderer draws one frame. The session calls it back to front.
type Renderer interface {
	DrawOverlay(o *overlay.Overlay)
	DrawShape(s *sketch.Shape, pixels []geometry.Point2D, selected bool)
	// DrawHandles draws vertex handles of the single selected shape.
	DrawHandles(pixels []geometry.Point2D)
	// DrawPreview draws a shape still being drawn, ending at the pointer.
	DrawPreview(kind sketch.Kind, pixels []geometry.Point2D)
}

// Render draws the current state without modifying it. Shapes that cannot
// be projected this frame are skipped; the count is returned.
func (s *Session) Render(r Renderer) (skipped int) {
	if s.overlay != nil {
		r.DrawOverlay(s.overlay.Clone())
	}

	single := ""
	if len(s.selection) == 1 {
		single = s.selection[0]
	}
	for _, sh := range s.store.Shapes() {
		px, ok := s.proj.PathToPixels(sh.Path)
		if !ok {
			skipped++
			continue
		}
		r.DrawShape(sh, px, s.IsSelected(sh.ID))
		if sh.ID == single {
			r.DrawHandles(px)
		}
	}

	if kind, px, ok := s.preview(); ok {
		r.DrawPreview(kind, px)
	}
	return skipped
}

func (s *Session) preview() (sketch.Kind, []geometry.Point2D, bool) {
	switch {
	case len(s.polygon) > 0:
		px, ok := s.proj.PathToPixels(s.polygon)
		if !ok {
			return "", nil, false
		}
		return sketch.KindPolygon, append(px, s.cursor), true
	case s.gesture.mode == gestureDrawing:
		px, ok := s.proj.PathToPixels(s.gesture.points)
		if !ok {
			return "", nil, false
		}
		if s.gesture.kind != sketch.KindFreehand {
			px = append(px[:1], s.cursor)
		}
		return s.gesture.kind, px, true
	}
	return "", nil, false
}
