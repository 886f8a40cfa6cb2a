package history

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitesketch/internal/geo"
	"sitesketch/internal/sketch"
)

func line(t *testing.T, meters float64) *sketch.Shape {
	t.Helper()
	start := geo.LatLng{Lat: 45.5, Lng: -73.56}
	sh, err := sketch.Build(sketch.KindLine, []geo.LatLng{start, geo.Offset(start, meters, 10)}, sketch.DefaultStyle())
	require.NoError(t, err)
	return sh
}

func encode(t *testing.T, shapes []*sketch.Shape) string {
	t.Helper()
	data, err := json.Marshal(shapes)
	require.NoError(t, err)
	return string(data)
}

func TestPushSkipsDuplicates(t *testing.T) {
	m := New()
	a := line(t, 5)

	added, err := m.Push(nil)
	require.NoError(t, err)
	assert.True(t, added)

	added, _ = m.Push(nil)
	assert.False(t, added)

	m.Push([]*sketch.Shape{a})
	m.Push([]*sketch.Shape{a})
	m.Push([]*sketch.Shape{a.Clone()})
	assert.Equal(t, 2, m.Len())

	for i := 1; i < len(m.entries); i++ {
		assert.NotEqual(t, m.entries[i-1], m.entries[i])
	}
}

func TestUndoRedoAreInverse(t *testing.T) {
	m := New()
	a, b := line(t, 5), line(t, 7)

	before := []*sketch.Shape{a}
	after := []*sketch.Shape{a, b}
	m.Push(before)
	m.Push(after)

	undone, ok := m.Undo()
	require.True(t, ok)
	assert.Equal(t, encode(t, before), encode(t, undone))

	redone, ok := m.Redo()
	require.True(t, ok)
	assert.Equal(t, encode(t, after), encode(t, redone))

	_, ok = m.Redo()
	assert.False(t, ok)
}

func TestUndoReturnsFreshCopies(t *testing.T) {
	m := New()
	a := line(t, 5)
	m.Push([]*sketch.Shape{a})
	m.Push(nil)

	got, ok := m.Undo()
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.NotSame(t, a, got[0])
	assert.Equal(t, a.ID, got[0].ID)
}

func TestPushTruncatesRedoTail(t *testing.T) {
	m := New()
	a, b, c := line(t, 1), line(t, 2), line(t, 3)
	m.Push([]*sketch.Shape{a})
	m.Push([]*sketch.Shape{a, b})
	m.Undo()

	m.Push([]*sketch.Shape{a, c})
	assert.False(t, m.CanRedo())
	assert.Equal(t, 2, m.Len())

	got, ok := m.Undo()
	require.True(t, ok)
	assert.Equal(t, encode(t, []*sketch.Shape{a}), encode(t, got))
	assert.False(t, m.CanUndo())
}

func TestUndoRequiresEarlierEntry(t *testing.T) {
	m := New()
	_, ok := m.Undo()
	assert.False(t, ok)

	m.Push(nil)
	_, ok = m.Undo()
	assert.False(t, ok)
	assert.Equal(t, 0, m.Cursor())
}

func TestLimitDropsOldest(t *testing.T) {
	m := New(WithLimit(3))
	for i := 1; i <= 5; i++ {
		m.Push([]*sketch.Shape{line(t, float64(i))})
	}
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 2, m.Cursor())

	m.Undo()
	m.Undo()
	assert.False(t, m.CanUndo())

	m.Clear()
	assert.Zero(t, m.Len())
	assert.Equal(t, -1, m.Cursor())
}
