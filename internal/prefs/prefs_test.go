package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitesketch/internal/sketch"
)

func TestStyleDefaultsWhenMissing(t *testing.T) {
	p := LoadFile(filepath.Join(t.TempDir(), "none.json"))
	assert.Equal(t, sketch.DefaultStyle(), p.Style())
}

func TestStyleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", prefsFile)
	p := LoadFile(path)
	p.SetStyle(sketch.Style{StrokeColor: "#00ff00", StrokeWidth: 3, Opacity: 0.5, FontSize: 20})
	p.SetString(KeyLastSketchID, "abc")
	p.SetBool(KeyShowOverlay, false)
	require.NoError(t, p.Save())

	q := LoadFile(path)
	assert.Equal(t, sketch.Style{StrokeColor: "#00ff00", StrokeWidth: 3, Opacity: 0.5, FontSize: 20}, q.Style())
	assert.Equal(t, "abc", q.String(KeyLastSketchID))
	assert.False(t, q.Bool(KeyShowOverlay, true))
}

func TestStyleRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	body := `{"style.strokeColor":"purple","style.strokeWidth":-2,"style.opacity":4,"style.fontSize":"big"}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	assert.Equal(t, sketch.DefaultStyle(), LoadFile(path).Style())
}

func TestCorruptFileYieldsEmptyPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := LoadFile(path)
	assert.Equal(t, 7.5, p.FloatWithFallback("x", 7.5))
	assert.Equal(t, path, p.Path())
}
