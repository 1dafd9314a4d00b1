package memory

import (
	"context"
	"strings"
	"sync"
)

// RoleStore is an in-process user id → role table. Users with no assignment
// resolve to the fallback role, which is empty unless configured.
type RoleStore struct {
	mu       sync.RWMutex
	roles    map[string]string
	fallback string
}

func NewRoleStore(fallback string) *RoleStore {
	return &RoleStore{
		roles:    make(map[string]string),
		fallback: strings.TrimSpace(fallback),
	}
}

func (s *RoleStore) RoleFor(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if role, ok := s.roles[userID]; ok {
		return role, nil
	}
	return s.fallback, nil
}

func (s *RoleStore) Assign(_ context.Context, userID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[userID] = role
	return nil
}
