package ingredients

import "sync"

// Set is an ordered collection of ingredient names. Membership is exact
// string match and case sensitive, so "Tomato" and "tomato" are two distinct
// entries. Iteration order is insertion order.
type Set struct {
	mu    sync.RWMutex
	items []string
	index map[string]struct{}
}

// NewSet creates an empty ingredient set.
func NewSet() *Set {
	return &Set{index: make(map[string]struct{})}
}

// Add appends a name unless it is already present or empty. Returns true if
// the set grew. The name is stored exactly as given, trimming is the
// caller's concern.
func (s *Set) Add(name string) bool {
	if name == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[name]; exists {
		return false
	}
	s.index[name] = struct{}{}
	s.items = append(s.items, name)
	return true
}

// Remove deletes a name by exact match. Returns true if it was present.
func (s *Set) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[name]; !exists {
		return false
	}
	delete(s.index, name)
	for i, item := range s.items {
		if item == name {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

// Merge unions detected names into the set, keeping existing entries in place
// and appending unseen ones in the order given. Existing entries are never
// reordered or removed, detections only grow the set. Returns the number of
// names actually added.
func (s *Set) Merge(names []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, exists := s.index[name]; exists {
			continue
		}
		s.index[name] = struct{}{}
		s.items = append(s.items, name)
		added++
	}
	return added
}

// Contains reports whether a name is present, by exact match.
func (s *Set) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.index[name]
	return exists
}

// Items returns a copy of the names in insertion order.
func (s *Set) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of names in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear empties the set.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.index = make(map[string]struct{})
}
