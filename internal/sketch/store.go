package sketch

import (
	"sync"
	"sync/atomic"
)

// Store is the ordered shape collection of one editing session. Order is
// z-order, back to front. Every mutation publishes a new slice, so a reader
// on another goroutine sees either the old or the new list in full.
// Mutations must come from a single goroutine.
type Store struct {
	shapes atomic.Pointer[[]*Shape]

	mu        sync.Mutex
	listeners []func()
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{}
	empty := []*Shape{}
	s.shapes.Store(&empty)
	return s
}

// Shapes returns the current list. The slice and its shapes must be treated
// as read-only.
func (s *Store) Shapes() []*Shape {
	return *s.shapes.Load()
}

// Len returns the number of shapes.
func (s *Store) Len() int {
	return len(s.Shapes())
}

// Get returns the shape with the given id.
func (s *Store) Get(id string) (*Shape, bool) {
	if i := s.Index(id); i >= 0 {
		return s.Shapes()[i], true
	}
	return nil, false
}

// Index returns the position of id, or -1.
func (s *Store) Index(id string) int {
	for i, sh := range s.Shapes() {
		if sh.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether a shape with id exists.
func (s *Store) Contains(id string) bool {
	return s.Index(id) >= 0
}

// OnChange registers fn to run after every mutation.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) publish(next []*Shape) {
	s.shapes.Store(&next)

	s.mu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (s *Store) copyList(extra int) []*Shape {
	cur := s.Shapes()
	next := make([]*Shape, len(cur), len(cur)+extra)
	copy(next, cur)
	return next
}

// Add appends a shape on top of the others.
func (s *Store) Add(sh *Shape) {
	s.publish(append(s.copyList(1), sh))
}

// InsertAfter places sh directly above the shape with id afterID, or on top
// if afterID is unknown.
func (s *Store) InsertAfter(afterID string, sh *Shape) {
	i := s.Index(afterID)
	next := s.copyList(1)
	if i < 0 {
		s.publish(append(next, sh))
		return
	}
	next = append(next, nil)
	copy(next[i+2:], next[i+1:])
	next[i+1] = sh
	s.publish(next)
}

// Update replaces shapes by id. Unknown ids are ignored. It reports how many
// shapes were replaced.
func (s *Store) Update(shapes ...*Shape) int {
	if len(shapes) == 0 {
		return 0
	}
	byID := make(map[string]*Shape, len(shapes))
	for _, sh := range shapes {
		byID[sh.ID] = sh
	}
	next := s.copyList(0)
	n := 0
	for i, cur := range next {
		if repl, ok := byID[cur.ID]; ok {
			next[i] = repl
			n++
		}
	}
	if n > 0 {
		s.publish(next)
	}
	return n
}

// Remove deletes shapes by id and reports how many were removed.
func (s *Store) Remove(ids ...string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	cur := s.Shapes()
	next := make([]*Shape, 0, len(cur))
	for _, sh := range cur {
		if _, ok := drop[sh.ID]; !ok {
			next = append(next, sh)
		}
	}
	if len(next) == len(cur) {
		return 0
	}
	s.publish(next)
	return len(cur) - len(next)
}

// Move changes the position of a shape in the list.
func (s *Store) Move(id string, index int) bool {
	from := s.Index(id)
	if from < 0 {
		return false
	}
	next := s.copyList(0)
	if index < 0 {
		index = 0
	}
	if index >= len(next) {
		index = len(next) - 1
	}
	if index == from {
		return false
	}
	sh := next[from]
	next = append(next[:from], next[from+1:]...)
	next = append(next[:index], append([]*Shape{sh}, next[index:]...)...)
	s.publish(next)
	return true
}

// Reset replaces the whole list.
func (s *Store) Reset(shapes []*Shape) {
	next := make([]*Shape, len(shapes))
	copy(next, shapes)
	s.publish(next)
}
