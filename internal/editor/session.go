// Package editor provides the sketch editing session: tools, selection,
// pointer gestures, transforms and undo/redo over one shape store.
package editor

import (
	"log/slog"

	"sitesketch/internal/geo"
	"sitesketch/internal/history"
	"sitesketch/internal/logger"
	"sitesketch/internal/overlay"
	"sitesketch/internal/sketch"
	"sitesketch/pkg/geometry"
)

// Projector converts between geographic and canvas coordinates. Every method
// reports false while the map has no projection.
type Projector interface {
	ToPixel(p geo.LatLng) (geometry.Point2D, bool)
	ToGeo(p geometry.Point2D) (geo.LatLng, bool)
	sketch.PathProjector
}

// Prompter asks the user for a line of text without blocking. The reply is
// invoked later on the session's goroutine, with ok false on cancel.
type Prompter interface {
	PromptText(message, defaultValue string, reply func(text string, ok bool))
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(message, defaultValue string, reply func(text string, ok bool))

// PromptText calls f.
func (f PromptFunc) PromptText(message, defaultValue string, reply func(string, bool)) {
	f(message, defaultValue, reply)
}

// Session is one editor instance. All methods must be called from a single
// goroutine; Store().Shapes() may be read from anywhere.
type Session struct {
	proj     Projector
	prompter Prompter
	store    *sketch.Store
	history  *history.Manager
	log      *slog.Logger
	style    sketch.Style

	tool       Tool
	selection  []string
	gesture    gesture
	cursor     geometry.Point2D
	polygon    []geo.LatLng
	overlay    *overlay.Overlay
	generation uint64
	prompts    uint64

	listeners    map[EventType][]EventListener
	anyListeners []func(EventType)
}

// Option configures a Session.
type Option func(*Session)

// WithPrompter sets the label prompt used by marker, text and depth tools.
func WithPrompter(p Prompter) Option {
	return func(s *Session) { s.prompter = p }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithStyle sets the style of newly drawn shapes.
func WithStyle(st sketch.Style) Option {
	return func(s *Session) { s.style = st }
}

// WithHistory replaces the default unlimited history.
func WithHistory(h *history.Manager) Option {
	return func(s *Session) { s.history = h }
}

// New creates a session with an empty store. The initial empty state is the
// first history entry.
func New(proj Projector, opts ...Option) *Session {
	s := &Session{
		proj:      proj,
		store:     sketch.NewStore(),
		history:   history.New(),
		style:     sketch.DefaultStyle(),
		tool:      ToolSelect,
		listeners: make(map[EventType][]EventListener),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.L()
	}
	if s.prompter == nil {
		s.prompter = PromptFunc(func(_, _ string, reply func(string, bool)) { reply("", false) })
	}

	s.store.OnChange(s.onStoreChange)
	s.commit()
	return s
}

// Store returns the session's shape store.
func (s *Session) Store() *sketch.Store {
	return s.store
}

// Shapes returns the current shape list, back to front.
func (s *Session) Shapes() []*sketch.Shape {
	return s.store.Shapes()
}

// Style returns the style applied to new shapes.
func (s *Session) Style() sketch.Style {
	return s.style
}

// SetStyle changes the style applied to new shapes.
func (s *Session) SetStyle(st sketch.Style) {
	s.style = st
}

// Tool returns the active tool.
func (s *Session) Tool() Tool {
	return s.tool
}

// SetTool switches tools, abandoning any drawing in progress.
func (s *Session) SetTool(t Tool) {
	if !t.Valid() || t == s.tool {
		return
	}
	s.cancelDrawing()
	s.prompts++
	s.tool = t
	s.Emit(EventToolChanged, t)
}

// Selection returns the selected shape ids in selection order.
func (s *Session) Selection() []string {
	return append([]string(nil), s.selection...)
}

// IsSelected reports whether id is selected.
func (s *Session) IsSelected(id string) bool {
	for _, sel := range s.selection {
		if sel == id {
			return true
		}
	}
	return false
}

// Select replaces the selection. Unknown ids are dropped.
func (s *Session) Select(ids ...string) {
	s.setSelection(ids)
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection() {
	s.setSelection(nil)
}

func (s *Session) setSelection(ids []string) {
	next := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] && s.store.Contains(id) {
			next = append(next, id)
			seen[id] = true
		}
	}
	if equalIDs(next, s.selection) {
		return
	}
	s.selection = next
	s.Emit(EventSelectionChanged, s.Selection())
}

func (s *Session) toggleSelection(id string) {
	if s.IsSelected(id) {
		next := make([]string, 0, len(s.selection))
		for _, sel := range s.selection {
			if sel != id {
				next = append(next, sel)
			}
		}
		s.setSelection(next)
		return
	}
	s.setSelection(append(s.Selection(), id))
}

func (s *Session) selectedShapes() []*sketch.Shape {
	out := make([]*sketch.Shape, 0, len(s.selection))
	for _, id := range s.selection {
		if sh, ok := s.store.Get(id); ok {
			out = append(out, sh)
		}
	}
	return out
}

// onStoreChange keeps the selection limited to shapes that still exist.
func (s *Session) onStoreChange() {
	s.Emit(EventShapesChanged, nil)
	if len(s.selection) == 0 {
		return
	}
	s.setSelection(s.selection)
}

// commit snapshots the store into history.
func (s *Session) commit() {
	added, err := s.history.Push(s.store.Shapes())
	if err != nil {
		s.log.Error("history snapshot failed", "err", err)
		return
	}
	if added {
		s.Emit(EventHistoryChanged, s.history.Cursor())
	}
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool {
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool {
	return s.history.CanRedo()
}

// Undo restores the previous history entry and clears the selection.
func (s *Session) Undo() bool {
	shapes, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.restore(shapes)
	return true
}

// Redo restores the next history entry and clears the selection.
func (s *Session) Redo() bool {
	shapes, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.restore(shapes)
	return true
}

func (s *Session) restore(shapes []*sketch.Shape) {
	s.gesture = gesture{}
	s.polygon = nil
	s.selection = nil
	s.store.Reset(shapes)
	s.Emit(EventSelectionChanged, []string{})
	s.Emit(EventHistoryChanged, s.history.Cursor())
}

// Snapshot is a consistent copy of what a save persists.
type Snapshot struct {
	Shapes  []*sketch.Shape
	Overlay *overlay.Overlay
}

// Snapshot captures the current shapes and overlay.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{Shapes: s.store.Shapes(), Overlay: s.overlay.Clone()}
}

// BeginLoad starts loading a document and returns a token for Hydrate. A
// later BeginLoad makes earlier tokens stale.
func (s *Session) BeginLoad() uint64 {
	s.prompts++
	s.generation++
	return s.generation
}

// Hydrate replaces the session contents with loaded shapes. It returns false
// and changes nothing when token is stale.
func (s *Session) Hydrate(token uint64, shapes []*sketch.Shape, ov *overlay.Overlay) bool {
	if token != s.generation {
		s.log.Debug("discarding stale load", "token", token, "current", s.generation)
		return false
	}
	s.gesture = gesture{}
	s.polygon = nil
	s.selection = nil
	s.overlay = ov
	s.history.Clear()
	s.store.Reset(shapes)
	s.commit()
	s.Emit(EventOverlayChanged, s.Overlay())
	s.Emit(EventLoaded, len(shapes))
	return true
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
