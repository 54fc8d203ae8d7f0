// Package notify fans a results-available event out to subscribers.
package notify

import "sync"

type Subscribers struct {
	mu   sync.Mutex
	fns  map[int]func()
	next int
}

func New() *Subscribers {
	return &Subscribers{fns: map[int]func(){}}
}

// Add registers fn and returns a func that removes it again.
func (s *Subscribers) Add(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *Subscribers) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

// Fire calls every subscriber outside the lock, so a subscriber
// may unsubscribe from inside its callback.
func (s *Subscribers) Fire() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
