// Package history implements snapshot-based undo and redo over a shape list.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"

	"sitesketch/internal/sketch"
)

// Manager holds serialized shape lists and a cursor at the current entry.
// Adjacent entries never serialize identically.
type Manager struct {
	entries [][]byte
	cursor  int
	limit   int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimit keeps at most n entries, dropping the oldest. Zero means unlimited.
func WithLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.limit = n
		}
	}
}

// New creates an empty manager.
func New(opts ...Option) *Manager {
	m := &Manager{cursor: -1}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Push records shapes as the newest entry. Nothing is recorded when the
// snapshot equals the current entry; otherwise the redo tail is discarded.
// It reports whether an entry was added.
func (m *Manager) Push(shapes []*sketch.Shape) (bool, error) {
	data, err := json.Marshal(shapes)
	if err != nil {
		return false, fmt.Errorf("history: encode snapshot: %w", err)
	}
	if m.cursor >= 0 && bytes.Equal(m.entries[m.cursor], data) {
		return false, nil
	}

	m.entries = append(m.entries[:m.cursor+1], data)
	if m.limit > 0 && len(m.entries) > m.limit {
		drop := len(m.entries) - m.limit
		m.entries = append([][]byte(nil), m.entries[drop:]...)
	}
	m.cursor = len(m.entries) - 1
	return true, nil
}

// CanUndo reports whether an earlier entry exists.
func (m *Manager) CanUndo() bool {
	return m.cursor > 0
}

// CanRedo reports whether a later entry exists.
func (m *Manager) CanRedo() bool {
	return m.cursor >= 0 && m.cursor < len(m.entries)-1
}

// Undo moves the cursor back and returns a fresh copy of that entry.
func (m *Manager) Undo() ([]*sketch.Shape, bool) {
	if !m.CanUndo() {
		return nil, false
	}
	shapes, err := decode(m.entries[m.cursor-1])
	if err != nil {
		return nil, false
	}
	m.cursor--
	return shapes, true
}

// Redo moves the cursor forward and returns a fresh copy of that entry.
func (m *Manager) Redo() ([]*sketch.Shape, bool) {
	if !m.CanRedo() {
		return nil, false
	}
	shapes, err := decode(m.entries[m.cursor+1])
	if err != nil {
		return nil, false
	}
	m.cursor++
	return shapes, true
}

// Len returns the number of entries.
func (m *Manager) Len() int {
	return len(m.entries)
}

// Cursor returns the index of the current entry, or -1 when empty.
func (m *Manager) Cursor() int {
	return m.cursor
}

// Clear drops every entry.
func (m *Manager) Clear() {
	m.entries = nil
	m.cursor = -1
}

func decode(data []byte) ([]*sketch.Shape, error) {
	var shapes []*sketch.Shape
	if err := json.Unmarshal(data, &shapes); err != nil {
		return nil, fmt.Errorf("history: decode snapshot: %w", err)
	}
	if shapes == nil {
		shapes = []*sketch.Shape{}
	}
	return shapes, nil
}
