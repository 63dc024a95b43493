package uploader

import "sync"

// InFlightSet tracks source paths currently owned by an active processor.
// It is the only state shared between the watch loop and processor
// goroutines; the mutex prevents double-dispatch races between the polling
// watcher and a slow-finishing processor. The set is scoped to one watch
// session, never process-wide.
type InFlightSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewInFlightSet creates an empty set.
func NewInFlightSet() *InFlightSet {
	return &InFlightSet{paths: make(map[string]struct{})}
}

// TryAdd claims path for a processor. It returns false when the path is
// already in flight.
func (s *InFlightSet) TryAdd(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.paths[path]; ok {
		return false
	}
	s.paths[path] = struct{}{}
	return true
}

// Remove releases path. Removing an unclaimed path is a no-op.
func (s *InFlightSet) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.paths, path)
}

// Contains reports whether path is currently claimed.
func (s *InFlightSet) Contains(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paths[path]
	return ok
}

// Len returns the number of claimed paths.
func (s *InFlightSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}
