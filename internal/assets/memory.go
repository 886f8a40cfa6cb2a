package assets

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore keeps assets in process. URLs use the https scheme so stored
// overlays are recognised as already uploaded.
type MemoryStore struct {
	mu      sync.RWMutex
	base    string
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
}

// NewMemoryStore returns an empty store whose URLs start with base, or with
// https://assets.invalid/ when base is empty.
func NewMemoryStore(base string) *MemoryStore {
	if base == "" {
		base = "https://assets.invalid/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &MemoryStore{base: base, objects: make(map[string]memObject)}
}

// UploadAsset copies data under key.
func (m *MemoryStore) UploadAsset(_ context.Context, key string, data []byte, contentType string) (string, error) {
	u := m.base + escapeKey(key)
	m.mu.Lock()
	m.objects[u] = memObject{data: append([]byte(nil), data...), contentType: contentType}
	m.mu.Unlock()
	return u, nil
}

// FetchAsset returns a copy of the stored bytes.
func (m *MemoryStore) FetchAsset(_ context.Context, url string) ([]byte, error) {
	m.mu.RLock()
	obj, ok := m.objects[url]
	m.mu.RUnlock()
	if !ok {
		if !strings.HasPrefix(url, m.base) {
			return nil, fmt.Errorf("%w: %s", ErrForeignURL, url)
		}
		return nil, fmt.Errorf("assets: no object at %s", url)
	}
	return append([]byte(nil), obj.data...), nil
}

// ContentType returns the content type recorded for url.
func (m *MemoryStore) ContentType(url string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[url].contentType
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
