package memory

import (
	"context"
	"sync"

	"github.com/expensehub/gateway/internal/core/domain"
)

// IdentityStore keeps credentials in a map keyed by userName. The write lock
// spans the existence check and the insert, which is what makes
// InsertIfAbsent race-free.
type IdentityStore struct {
	mu    sync.RWMutex
	users map[string]domain.Credential
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{users: make(map[string]domain.Credential)}
}

func (s *IdentityStore) FindByUserName(_ context.Context, userName string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.users[userName]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &cred, nil
}

func (s *IdentityStore) InsertIfAbsent(_ context.Context, cred *domain.Credential) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[cred.UserName]; exists {
		return nil, domain.ErrUserExists
	}
	s.users[cred.UserName] = *cred
	out := *cred
	return &out, nil
}

func (s *IdentityStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]domain.Credential)
	return nil
}
