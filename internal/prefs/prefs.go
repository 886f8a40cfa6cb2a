// Package prefs keeps per-user editor preferences in a JSON file.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"sitesketch/internal/sketch"
	"sitesketch/pkg/colorutil"
)

const prefsFile = "preferences.json"

// Preference keys.
const (
	KeyStrokeColor  = "style.strokeColor"
	KeyStrokeWidth  = "style.strokeWidth"
	KeyOpacity      = "style.opacity"
	KeyFontSize     = "style.fontSize"
	KeyLastSketchID = "session.lastSketch"
	KeyShowOverlay  = "view.overlay"
)

// Prefs is a key-value map persisted as JSON.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// Load reads preferences from the sitesketch directory under the user
// config dir. A missing or unreadable file yields empty preferences.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFile(filepath.Join(configDir, "sitesketch", prefsFile))
}

// LoadFile reads preferences from path.
func LoadFile(path string) *Prefs {
	p := &Prefs{values: make(map[string]interface{}), path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Path returns the backing file.
func (p *Prefs) Path() string {
	return p.path
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// Style returns the style for new shapes, falling back to the defaults for
// unset or invalid values.
func (p *Prefs) Style() sketch.Style {
	def := sketch.DefaultStyle()
	st := sketch.Style{
		StrokeColor: colorutil.Normalize(p.String(KeyStrokeColor), def.StrokeColor),
		StrokeWidth: p.FloatWithFallback(KeyStrokeWidth, def.StrokeWidth),
		Opacity:     p.FloatWithFallback(KeyOpacity, def.Opacity),
		FontSize:    p.FloatWithFallback(KeyFontSize, def.FontSize),
	}
	if !(st.StrokeWidth > 0) {
		st.StrokeWidth = def.StrokeWidth
	}
	if !(st.Opacity >= 0 && st.Opacity <= 1) {
		st.Opacity = def.Opacity
	}
	if !(st.FontSize > 0) {
		st.FontSize = def.FontSize
	}
	return st
}

// SetStyle records st as the style for new shapes.
func (p *Prefs) SetStyle(st sketch.Style) {
	p.SetString(KeyStrokeColor, st.StrokeColor)
	p.SetFloat(KeyStrokeWidth, st.StrokeWidth)
	p.SetFloat(KeyOpacity, st.Opacity)
	p.SetFloat(KeyFontSize, st.FontSize)
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if n, ok := p.values[key].(float64); ok {
		return n
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, _ := p.values[key].(string)
	return s
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if b, ok := p.values[key].(bool); ok {
		return b
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}
