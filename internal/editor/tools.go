package editor

import (
	"sitesketch/internal/sketch"
)

// Tool is the active pointer mode.
type Tool string

const (
	ToolSelect     Tool = "select"
	ToolPan        Tool = "pan"
	ToolLine       Tool = Tool(sketch.KindLine)
	ToolFreehand   Tool = Tool(sketch.KindFreehand)
	ToolCircle     Tool = Tool(sketch.KindCircle)
	ToolPolygon    Tool = Tool(sketch.KindPolygon)
	ToolDepthPoint Tool = Tool(sketch.KindDepthPoint)
	ToolText       Tool = Tool(sketch.KindText)
	ToolMarker     Tool = Tool(sketch.KindMarker)
)

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	return t == ToolSelect || t == ToolPan || sketch.Kind(t).Valid()
}

// Kind returns the shape kind a drawing tool creates.
func (t Tool) Kind() (sketch.Kind, bool) {
	k := sketch.Kind(t)
	return k, k.Valid()
}

// prompts for labeled tools: message and default value.
var labelPrompts = map[sketch.Kind][2]string{
	sketch.KindMarker:     {"Enter a title for this marker:", "Marker"},
	sketch.KindText:       {"Enter text:", ""},
	sketch.KindDepthPoint: {"Enter depth in inches:", ""},
}
