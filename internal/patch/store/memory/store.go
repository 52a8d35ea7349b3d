package memory

import (
	"context"
	"sort"
	"sync"

	"patchdesk/internal/patch/models"
	"patchdesk/pkg/platform/sentinel"
)

// Store is the in-memory patch request store. All reads and writes deep-copy
// so callers can never mutate stored state (the evidence bundle and preflight
// context are immutable by contract).
type Store struct {
	mu       sync.RWMutex
	requests map[string]*models.PatchRequest
}

func New() *Store {
	return &Store{requests: make(map[string]*models.PatchRequest)}
}

func (s *Store) Save(_ context.Context, req *models.PatchRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.RequestID] = req.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*models.PatchRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return req.Clone(), nil
}

func (s *Store) List(_ context.Context) ([]*models.PatchRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.PatchRequest, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, req.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].RequestID < out[j].RequestID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
