package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/expensehub/gateway/internal/core/domain"
)

func TestIdentityStore_InsertAndFind(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()

	in := &domain.Credential{ID: "1", UserName: "a@b.com", PasswordHash: "h"}
	if _, err := s.InsertIfAbsent(ctx, in); err != nil {
		t.Fatalf("InsertIfAbsent returned error: %v", err)
	}

	// Mutating the caller's value must not leak into the store.
	in.PasswordHash = "changed"

	got, err := s.FindByUserName(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("FindByUserName returned error: %v", err)
	}
	if got.PasswordHash != "h" {
		t.Fatalf("store returned aliased credential: %+v", got)
	}

	if _, err := s.FindByUserName(ctx, "A@B.COM"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("lookup must be exact, got %v", err)
	}
}

func TestIdentityStore_DuplicateLeavesOriginal(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()

	if _, err := s.InsertIfAbsent(ctx, &domain.Credential{ID: "1", UserName: "a@b.com", PasswordHash: "first"}); err != nil {
		t.Fatalf("InsertIfAbsent returned error: %v", err)
	}
	_, err := s.InsertIfAbsent(ctx, &domain.Credential{ID: "2", UserName: "a@b.com", PasswordHash: "second"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	got, _ := s.FindByUserName(ctx, "a@b.com")
	if got.ID != "1" || got.PasswordHash != "first" {
		t.Fatalf("original record replaced: %+v", got)
	}
}

func TestIdentityStore_ConcurrentInsert(t *testing.T) {
	s := NewIdentityStore()
	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.InsertIfAbsent(context.Background(), &domain.Credential{UserName: "same@b.com"}); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 1 {
		t.Fatalf("expected exactly one successful insert, got %d", ok.Load())
	}
}

func TestIdentityStore_Clear(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()
	_, _ = s.InsertIfAbsent(ctx, &domain.Credential{UserName: "a@b.com"})

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, err := s.FindByUserName(ctx, "a@b.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected empty store, got %v", err)
	}
}

func TestRoleStore(t *testing.T) {
	ctx := context.Background()

	t.Run("no fallback", func(t *testing.T) {
		s := NewRoleStore("")
		role, err := s.RoleFor(ctx, "missing")
		if err != nil || role != "" {
			t.Fatalf("expected empty role and nil error, got %q, %v", role, err)
		}
	})

	t.Run("fallback and assignment", func(t *testing.T) {
		s := NewRoleStore(" viewer ")
		if role, _ := s.RoleFor(ctx, "u1"); role != domain.RoleViewer {
			t.Fatalf("expected fallback viewer, got %q", role)
		}
		if err := s.Assign(ctx, "u1", domain.RoleAdmin); err != nil {
			t.Fatalf("Assign returned error: %v", err)
		}
		if role, _ := s.RoleFor(ctx, "u1"); role != domain.RoleAdmin {
			t.Fatalf("expected admin, got %q", role)
		}
	})
}
