package memory

import (
	"context"
	"sort"
	"sync"

	"patchdesk/internal/audit"
)

// Store is the in-memory audit sink. Entries are retained in insertion order
// so timestamp ties keep their arrival order on read.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event.Clone())
	return nil
}

func (s *Store) List(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Clone())
	}
	// Stable sort preserves insertion order for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Len reports the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
