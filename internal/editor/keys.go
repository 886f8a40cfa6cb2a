package editor

import (
	"strings"
)

// Key is a keyboard event. Name is the key value as reported by the host,
// such as "z", "Delete", "Escape" or " ".
type Key struct {
	Name  string
	Ctrl  bool // ctrl, or cmd on macOS
	Shift bool
}

var toolKeys = map[string]Tool{
	"s": ToolSelect,
	"v": ToolSelect,
	"h": ToolPan,
	" ": ToolPan,
	"p": ToolPolygon,
	"l": ToolLine,
	"c": ToolCircle,
	"f": ToolFreehand,
	"t": ToolText,
	"m": ToolMarker,
	"d": ToolDepthPoint,
}

// KeyDown applies a keyboard shortcut and reports whether it was handled.
// Hosts must not forward keys typed into text fields.
func (s *Session) KeyDown(k Key) bool {
	name := strings.ToLower(k.Name)

	if k.Ctrl {
		switch {
		case name == "z" && k.Shift, name == "y":
			s.Redo()
			return true
		case name == "z":
			s.Undo()
			return true
		}
		return false
	}

	switch name {
	case "delete", "backspace":
		return s.Delete() > 0
	case "escape":
		switch {
		case s.cancelDrawing():
		case len(s.selection) > 0:
			s.ClearSelection()
		default:
			s.SetTool(ToolSelect)
		}
		return true
	case "enter":
		if len(s.polygon) > 0 {
			s.FinishPolygon()
			return true
		}
		return false
	}

	if t, ok := toolKeys[name]; ok {
		s.SetTool(t)
		return true
	}
	return false
}
