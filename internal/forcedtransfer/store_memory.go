package forcedtransfer

import (
	"context"
	"sync"

	"custodia/pkg/platform/sentinel"
)

// InMemoryStore keeps requests in an append-only slice (the index is the
// request id) plus a set of consumed proof ids.
type InMemoryStore struct {
	mu         sync.RWMutex
	requests   []Request
	usedProofs map[uint64]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{usedProofs: make(map[uint64]struct{})}
}

func (s *InMemoryStore) Create(_ context.Context, req Request) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Check-then-set under one lock: proof consumption and request creation
	// are a single atomic step.
	if _, used := s.usedProofs[req.ProofID]; used {
		return 0, sentinel.ErrAlreadyUsed
	}
	s.usedProofs[req.ProofID] = struct{}{}
	req.ID = uint64(len(s.requests))
	s.requests = append(s.requests, req)
	return req.ID, nil
}

func (s *InMemoryStore) Get(_ context.Context, id uint64) (Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id >= uint64(len(s.requests)) {
		return Request{}, sentinel.ErrNotFound
	}
	return s.requests[id], nil
}

func (s *InMemoryStore) Update(_ context.Context, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID >= uint64(len(s.requests)) {
		return sentinel.ErrNotFound
	}
	s.requests[req.ID] = req
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.requests)), nil
}

func (s *InMemoryStore) IsProofUsed(_ context.Context, proofID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, used := s.usedProofs[proofID]
	return used, nil
}
