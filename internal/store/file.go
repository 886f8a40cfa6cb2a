package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sitesketch/internal/persist"
	"sitesketch/internal/pricing"
)

// sketchExt is the extension of sketch files.
const sketchExt = ".sketch.json"

// FileStore keeps one indented JSON file per sketch in a directory.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sketch dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid sketch id %q", id)
	}
	return filepath.Join(s.dir, id+sketchExt), nil
}

// SaveSketch writes the document, dropping any previous estimate.
func (s *FileStore) SaveSketch(_ context.Context, doc *persist.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *doc
	c.Estimate = nil
	return s.write(&c)
}

// LoadSketch returns the sketch with id, or persist.ErrNotFound.
func (s *FileStore) LoadSketch(_ context.Context, id string) (*persist.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(id)
}

// SaveEstimate stores the pricing result inside the sketch file.
func (s *FileStore) SaveEstimate(_ context.Context, id string, est *pricing.Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(id)
	if err != nil {
		return err
	}
	doc.Estimate = est
	return s.write(doc)
}

func (s *FileStore) read(id string) (*persist.Document, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read sketch: %w", err)
	}
	return unmarshalDocument(data)
}

// write replaces the file through a rename so readers never see a partial
// document.
func (s *FileStore) write(doc *persist.Document) error {
	path, err := s.path(doc.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sketch: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write sketch: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write sketch: %w", err)
	}
	return nil
}

// IDs lists the stored sketch ids in directory order.
func (s *FileStore) IDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list sketches: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if name := e.Name(); !e.IsDir() && strings.HasSuffix(name, sketchExt) {
			ids = append(ids, strings.TrimSuffix(name, sketchExt))
		}
	}
	return ids, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
