package ledger

import (
	"context"
	"sync"

	"custodia/pkg/platform/sentinel"
)

// InMemoryStore keeps ledger state in process memory behind a single mutex,
// giving every operation the all-or-nothing semantics the coordinator relies
// on.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
	state    State
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[string]Account)}
}

func (s *InMemoryStore) GetAccount(_ context.Context, holder string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct := s.accounts[holder]
	acct.Holder = holder
	return acct, nil
}

func (s *InMemoryStore) SetAllowed(_ context.Context, holder string, allowed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[holder]
	acct.Holder = holder
	acct.Allowed = allowed
	s.accounts[holder] = acct
	return nil
}

func (s *InMemoryStore) SetFrozen(_ context.Context, holder string, frozen int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[holder]
	acct.Holder = holder
	acct.Frozen = frozen
	s.accounts[holder] = acct
	return nil
}

func (s *InMemoryStore) Mint(_ context.Context, to string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[to]
	acct.Holder = to
	acct.Balance += amount
	s.accounts[to] = acct
	s.state.TotalSupply += amount
	return nil
}

func (s *InMemoryStore) Burn(_ context.Context, from string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[from]
	if acct.Balance < amount {
		return sentinel.ErrInvalidState
	}
	acct.Holder = from
	acct.Balance -= amount
	s.accounts[from] = acct
	s.state.TotalSupply -= amount
	return nil
}

func (s *InMemoryStore) Move(_ context.Context, from, to string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.accounts[from]
	if src.Balance < amount {
		return sentinel.ErrInvalidState
	}
	dst := s.accounts[to]
	src.Holder = from
	dst.Holder = to
	src.Balance -= amount
	dst.Balance += amount
	s.accounts[from] = src
	s.accounts[to] = dst
	return nil
}

func (s *InMemoryStore) GetState(_ context.Context) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

func (s *InMemoryStore) SetPaused(_ context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Paused = paused
	return nil
}
