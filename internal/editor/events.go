package editor

// EventType identifies different session events.
type EventType int

const (
	EventShapesChanged EventType = iota
	EventSelectionChanged
	EventToolChanged
	EventHistoryChanged
	EventOverlayChanged
	EventLoaded
)

func (e EventType) String() string {
	switch e {
	case EventShapesChanged:
		return "shapes"
	case EventSelectionChanged:
		return "selection"
	case EventToolChanged:
		return "tool"
	case EventHistoryChanged:
		return "history"
	case EventOverlayChanged:
		return "overlay"
	case EventLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.listeners[event] = append(s.listeners[event], listener)
}

// OnChange registers fn for every event type, for panels that simply redraw.
func (s *Session) OnChange(fn func(EventType)) {
	s.anyListeners = append(s.anyListeners, fn)
}

// Emit sends an event to all registered listeners.
func (s *Session) Emit(event EventType, data interface{}) {
	for _, listener := range s.listeners[event] {
		listener(data)
	}
	for _, fn := range s.anyListeners {
		fn(event)
	}
}
