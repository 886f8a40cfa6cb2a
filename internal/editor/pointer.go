package editor

import (
	"sitesketch/internal/geo"
	"sitesketch/internal/sketch"
	"sitesketch/pkg/geometry"
)

type gestureMode int

const (
	gestureIdle gestureMode = iota
	gestureDragShapes
	gestureDragHandle
	gestureDragOverlay
	gestureDrawing
)

// gesture is the state of one pointer press. Pixel positions recorded here
// are only valid until the pointer is released.
type gesture struct {
	mode  gestureMode
	start geometry.Point2D
	last  geometry.Point2D
	moved bool

	// gestureDragShapes
	startPixels map[string][]geometry.Point2D

	// gestureDragHandle
	handleID    string
	handleIndex int

	// gestureDragOverlay
	grabOffset geometry.Point2D

	// gestureDrawing
	kind   sketch.Kind
	points []geo.LatLng
}

// Modifiers carries the keyboard state of a pointer event.
type Modifiers struct {
	// Toggle is the multi-select modifier, usually shift.
	Toggle bool
}

// PointerDown handles a press at canvas pixel p.
func (s *Session) PointerDown(p geometry.Point2D, mods Modifiers) {
	s.cursor = p
	switch s.tool {
	case ToolPan:
		return
	case ToolSelect:
		s.beginSelect(p, mods)
		return
	}

	kind, ok := s.tool.Kind()
	if !ok {
		return
	}
	switch {
	case kind == sketch.KindPolygon:
		s.addPolygonVertex(p)
	case kind.Labeled():
		s.promptLabel(kind, p)
	default:
		start, ok := s.proj.ToGeo(p)
		if !ok {
			return
		}
		s.gesture = gesture{mode: gestureDrawing, kind: kind, start: p, last: p, points: []geo.LatLng{start}}
	}
}

// PointerMove handles pointer motion at canvas pixel p.
func (s *Session) PointerMove(p geometry.Point2D) {
	s.cursor = p
	g := &s.gesture
	g.last = p
	if p != g.start {
		g.moved = true
	}

	switch g.mode {
	case gestureDragShapes:
		s.dragShapes(p.Sub(g.start))
	case gestureDragHandle:
		s.dragHandle(p)
	case gestureDragOverlay:
		if s.overlay != nil {
			s.overlay.MoveTo(p.Sub(g.grabOffset))
			s.Emit(EventOverlayChanged, s.Overlay())
		}
	case gestureDrawing:
		if g.kind == sketch.KindFreehand {
			if ll, ok := s.proj.ToGeo(p); ok && ll != g.points[len(g.points)-1] {
				g.points = append(g.points, ll)
			}
		}
	}
}

// PointerUp handles a release at canvas pixel p.
func (s *Session) PointerUp(p geometry.Point2D) {
	g := s.gesture
	s.gesture = gesture{}

	switch g.mode {
	case gestureDragShapes:
		if g.moved {
			s.commitShapes(s.selection)
		}
	case gestureDragHandle:
		if g.moved {
			s.commitShapes([]string{g.handleID})
		}
	case gestureDrawing:
		s.finishDrawing(g, p)
	}
}

// DoubleClick edits the label of the topmost text or marker under p.
func (s *Session) DoubleClick(p geometry.Point2D) {
	shapes := s.store.Shapes()
	for i := len(shapes) - 1; i >= 0; i-- {
		sh := shapes[i]
		if sh.Kind != sketch.KindText && sh.Kind != sketch.KindMarker {
			continue
		}
		px, ok := s.proj.PathToPixels(sh.Path)
		if !ok || !sketch.HitTest(sh, px, p) {
			continue
		}
		s.editLabel(sh)
		return
	}
}

func (s *Session) beginSelect(p geometry.Point2D, mods Modifiers) {
	// Vertex handles of a single selected shape win over everything.
	if len(s.selection) == 1 {
		if sh, ok := s.store.Get(s.selection[0]); ok {
			if px, ok := s.proj.PathToPixels(sh.Path); ok {
				if i := sketch.HandleAt(px, p); i >= 0 {
					s.gesture = gesture{mode: gestureDragHandle, start: p, last: p, handleID: sh.ID, handleIndex: i}
					return
				}
			}
		}
	}

	if id := s.hitShape(p); id != "" {
		switch {
		case mods.Toggle:
			s.toggleSelection(id)
		case !s.IsSelected(id):
			s.setSelection([]string{id})
		}
		s.beginShapeDrag(p)
		return
	}

	if s.overlay != nil && s.overlay.Contains(p) {
		s.gesture = gesture{
			mode:       gestureDragOverlay,
			start:      p,
			last:       p,
			grabOffset: p.Sub(geometry.Point2D{X: s.overlay.X, Y: s.overlay.Y}),
		}
		return
	}

	if !mods.Toggle {
		s.ClearSelection()
	}
}

// hitShape returns the id of the topmost shape under p.
func (s *Session) hitShape(p geometry.Point2D) string {
	shapes := s.store.Shapes()
	for i := len(shapes) - 1; i >= 0; i-- {
		px, ok := s.proj.PathToPixels(shapes[i].Path)
		if ok && sketch.HitTest(shapes[i], px, p) {
			return shapes[i].ID
		}
	}
	return ""
}

func (s *Session) beginShapeDrag(p geometry.Point2D) {
	startPixels := make(map[string][]geometry.Point2D, len(s.selection))
	for _, sh := range s.selectedShapes() {
		if px, ok := s.proj.PathToPixels(sh.Path); ok {
			startPixels[sh.ID] = px
		}
	}
	s.gesture = gesture{mode: gestureDragShapes, start: p, last: p, startPixels: startPixels}
}

func (s *Session) dragShapes(delta geometry.Point2D) {
	moved := make([]*sketch.Shape, 0, len(s.gesture.startPixels))
	for id, start := range s.gesture.startPixels {
		sh, ok := s.store.Get(id)
		if !ok {
			continue
		}
		shifted := make([]geometry.Point2D, len(start))
		for i, px := range start {
			shifted[i] = px.Add(delta)
		}
		path, ok := s.proj.PathToGeo(shifted)
		if !ok {
			continue
		}
		next := sh.Clone()
		next.Path = path
		next.Recompute()
		moved = append(moved, next)
	}
	s.store.Update(moved...)
}

func (s *Session) dragHandle(p geometry.Point2D) {
	sh, ok := s.store.Get(s.gesture.handleID)
	if !ok {
		return
	}
	ll, ok := s.proj.ToGeo(p)
	if !ok {
		return
	}
	s.store.Update(sketch.MoveVertex(sh, s.gesture.handleIndex, ll))
}

// commitShapes folds the live path of each shape into its baseline and
// records one history entry.
func (s *Session) commitShapes(ids []string) {
	updated := make([]*sketch.Shape, 0, len(ids))
	for _, id := range ids {
		sh, ok := s.store.Get(id)
		if !ok {
			continue
		}
		next := sh.Clone()
		next.Commit()
		updated = append(updated, next)
	}
	s.store.Update(updated...)
	s.commit()
}

func (s *Session) finishDrawing(g gesture, p geometry.Point2D) {
	points := g.points
	switch g.kind {
	case sketch.KindLine, sketch.KindCircle:
		end, ok := s.proj.ToGeo(p)
		if !ok {
			return
		}
		points = []geo.LatLng{points[0], end}
	case sketch.KindFreehand:
		if end, ok := s.proj.ToGeo(p); ok && end != points[len(points)-1] {
			points = append(points, end)
		}
	}
	s.addShape(sketch.Build(g.kind, points, s.style))
}

// addShape stores a factory result, or drops the gesture on error.
func (s *Session) addShape(sh *sketch.Shape, err error) {
	if err != nil {
		s.log.Debug("discarding gesture", "err", err)
		return
	}
	s.store.Add(sh)
	s.commit()
}

func (s *Session) addPolygonVertex(p geometry.Point2D) {
	ll, ok := s.proj.ToGeo(p)
	if !ok {
		return
	}
	if len(s.polygon) >= 3 {
		if first, ok := s.proj.ToPixel(s.polygon[0]); ok && p.Distance(first) < sketch.CloseTolerance {
			s.FinishPolygon()
			return
		}
	}
	s.polygon = append(s.polygon, ll)
}

// FinishPolygon closes the polygon in progress and stores it if valid.
func (s *Session) FinishPolygon() {
	vertices := s.polygon
	s.polygon = nil
	if len(vertices) == 0 {
		return
	}
	s.addShape(sketch.Build(sketch.KindPolygon, vertices, s.style))
}

// Drawing reports whether a shape is being drawn.
func (s *Session) Drawing() bool {
	return len(s.polygon) > 0 || s.gesture.mode == gestureDrawing
}

func (s *Session) cancelDrawing() bool {
	if !s.Drawing() {
		return false
	}
	s.polygon = nil
	if s.gesture.mode == gestureDrawing {
		s.gesture = gesture{}
	}
	return true
}

func (s *Session) promptLabel(kind sketch.Kind, p geometry.Point2D) {
	at, ok := s.proj.ToGeo(p)
	if !ok {
		return
	}
	prompt := labelPrompts[kind]
	gen := s.prompts
	s.prompter.PromptText(prompt[0], prompt[1], func(text string, ok bool) {
		if !ok || gen != s.prompts {
			return
		}
		s.addShape(sketch.NewLabel(kind, at, text, s.style))
	})
}

func (s *Session) editLabel(sh *sketch.Shape) {
	current := sh.Text
	message := "Edit text:"
	if sh.Kind == sketch.KindMarker {
		current = sh.Title
		message = "Edit marker title:"
	}
	id, gen := sh.ID, s.prompts
	s.prompter.PromptText(message, current, func(text string, ok bool) {
		if !ok || gen != s.prompts {
			return
		}
		latest, found := s.store.Get(id)
		if !found {
			return
		}
		edited, err := sketch.NewLabel(latest.Kind, latest.Path[0], text, s.style)
		if err != nil {
			s.log.Debug("discarding label edit", "id", id, "err", err)
			return
		}
		next := latest.Clone()
		next.Text, next.Title = edited.Text, edited.Title
		s.store.Update(next)
		s.commit()
	})
}
