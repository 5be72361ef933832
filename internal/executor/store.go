package executor

import (
	"sync"
)

// store is the task record store (§4.1). Allocation is single-writer (only
// the dispatcher); the store lock otherwise coordinates publication of newly
// spawned records against dispatcher lookups by ID.
type store struct {
	mu       sync.Mutex
	capacity int
	nextID   int
	tasks    map[int]*task
}

// newStore creates an empty store with the given capacity.
func newStore(capacity int) *store {
	return &store{
		capacity: capacity,
		tasks:    make(map[int]*task, capacity),
	}
}

// allocate reserves the next dense task ID. Returns false if the store's
// capacity has been exhausted.
func (s *store) allocate() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextID >= s.capacity {
		return 0, false
	}
	id := s.nextID
	s.nextID++
	return id, true
}

// publish registers t in the store under t.id. Called once, after t has been
// fully initialised, so that any lookup observing t sees a complete record.
func (s *store) publish(t *task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.id] = t
}

// record returns the task registered under id, and whether it exists.
func (s *store) record(id int) (*task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// all returns a snapshot slice of every task ever published, in no
// particular order. Used by shutdown to iterate every task regardless of
// liveness.
func (s *store) all() []*task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out
}
