package authority

import (
	"context"
	"sync"

	"custodia/pkg/platform/sentinel"
)

// InMemoryStore keeps role grants in process memory. Suitable for tests and
// single-node development.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[Role]map[string]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{grants: make(map[Role]map[string]struct{})}
}

func (s *InMemoryStore) Grant(_ context.Context, role Role, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[role] == nil {
		s.grants[role] = make(map[string]struct{})
	}
	s.grants[role][actor] = struct{}{}
	return nil
}

func (s *InMemoryStore) Revoke(_ context.Context, role Role, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[role][actor]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.grants[role], actor)
	return nil
}

func (s *InMemoryStore) HasRole(_ context.Context, role Role, actor string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[role][actor]
	return ok, nil
}

func (s *InMemoryStore) RolesOf(_ context.Context, actor string) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var roles []Role
	for _, role := range []Role{RoleTreasuryController, RoleAuditor, RoleOrgAdmin, RoleProtocolAdmin} {
		if _, ok := s.grants[role][actor]; ok {
			roles = append(roles, role)
		}
	}
	return roles, nil
}
