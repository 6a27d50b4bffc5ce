package dossier

import (
	"context"
	"sync"

	"custodia/pkg/platform/sentinel"
)

// InMemoryStore keeps dossiers in an append-only slice; the slice index is
// the dossier id.
type InMemoryStore struct {
	mu       sync.RWMutex
	dossiers []Dossier
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(_ context.Context, d Dossier) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = uint64(len(s.dossiers))
	s.dossiers = append(s.dossiers, d)
	return d.ID, nil
}

func (s *InMemoryStore) Get(_ context.Context, id uint64) (Dossier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id >= uint64(len(s.dossiers)) {
		return Dossier{}, sentinel.ErrNotFound
	}
	return s.dossiers[id], nil
}

func (s *InMemoryStore) Exists(_ context.Context, id uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return id < uint64(len(s.dossiers)), nil
}

func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.dossiers)), nil
}
