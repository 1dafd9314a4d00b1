package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/expensehub/gateway/internal/core/domain"
	"github.com/expensehub/gateway/internal/core/ports"
)

// AuthService implements login, registration and the maintenance routes.
type AuthService struct {
	store    ports.IdentityStore
	roles    ports.RoleResolver
	tokens   ports.TokenIssuer
	audit    ports.AuditRecorder
	hashCost int
	now      func() time.Time
	seed     *seedAccount
}

type seedAccount struct {
	input    ports.RegisterInput
	role     string
	assigner ports.RoleAssigner
}

type AuthOption func(*AuthService)

func WithAudit(rec ports.AuditRecorder) AuthOption {
	return func(s *AuthService) { s.audit = rec }
}

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) { s.hashCost = cost }
}

// WithSeed configures an account that EnsureSeed creates and Clean restores.
func WithSeed(input ports.RegisterInput, role string, assigner ports.RoleAssigner) AuthOption {
	return func(s *AuthService) {
		s.seed = &seedAccount{input: input, role: role, assigner: assigner}
	}
}

func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(store ports.IdentityStore, roles ports.RoleResolver, tokens ports.TokenIssuer, opts ...AuthOption) *AuthService {
	s := &AuthService{
		store:    store,
		roles:    roles,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Login(ctx context.Context, userName, password string) (*ports.LoginResult, error) {
	log := zerolog.Ctx(ctx)

	if userName == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	cred, err := s.store.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Warn().Str("user_name", userName).Msg("login rejected: unknown user")
			s.record(ctx, domain.AuditLogin, userName, false, "unknown user")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		log.Warn().Str("user_name", userName).Msg("login rejected: password mismatch")
		s.record(ctx, domain.AuditLogin, userName, false, "password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	role, err := s.roles.RoleFor(ctx, cred.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve role: %w", err)
	}

	token, claims, err := s.tokens.Issue(cred, role)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_name", userName).Str("role", role).Msg("user logged in")
	s.record(ctx, domain.AuditLogin, userName, true, "")
	return &ports.LoginResult{Token: token, Claims: claims}, nil
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.Credential, error) {
	if input.UserName == "" || input.Password == "" {
		return nil, domain.NewValidationError("userName and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cred := &domain.Credential{
		ID:           uuid.NewString(),
		UserName:     input.UserName,
		PasswordHash: string(hash),
		Phone:        input.Phone,
		Age:          input.Age,
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.store.InsertIfAbsent(ctx, cred)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			zerolog.Ctx(ctx).Warn().Str("user_name", input.UserName).Msg("register rejected: duplicate user")
			s.record(ctx, domain.AuditRegister, input.UserName, false, "duplicate user")
			return nil, err
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	s.record(ctx, domain.AuditRegister, input.UserName, true, "")
	return created, nil
}

// ForgotPassword accepts any non-empty userName without touching the store,
// so the answer never reveals whether an account exists. No reset flow is
// wired.
func (s *AuthService) ForgotPassword(ctx context.Context, userName string) error {
	if userName == "" {
		return domain.ErrMissingUserName
	}
	zerolog.Ctx(ctx).Info().Str("user_name", userName).Msg("password reset requested")
	s.record(ctx, domain.AuditForgotPassword, userName, true, "")
	return nil
}

// Clean wipes the identity store and re-creates the seeded account, if any.
func (s *AuthService) Clean(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	zerolog.Ctx(ctx).Warn().Msg("identity store cleared")
	s.record(ctx, domain.AuditClean, "", true, "")
	return s.EnsureSeed(ctx)
}

// EnsureSeed applies the account configured with WithSeed. It is a no-op
// when none was configured.
func (s *AuthService) EnsureSeed(ctx context.Context) error {
	if s.seed == nil {
		return nil
	}
	return s.Seed(ctx, s.seed.input, s.seed.role, s.seed.assigner)
}

// Seed registers input if needed and assigns role to the resulting account.
// An existing account keeps its password; only the role is (re)assigned.
func (s *AuthService) Seed(ctx context.Context, input ports.RegisterInput, role string, assigner ports.RoleAssigner) error {
	cred, err := s.Register(ctx, input)
	if errors.Is(err, domain.ErrUserExists) {
		cred, err = s.store.FindByUserName(ctx, input.UserName)
	}
	if err != nil {
		return fmt.Errorf("seed %s: %w", input.UserName, err)
	}
	if err := assigner.Assign(ctx, cred.ID, role); err != nil {
		return fmt.Errorf("seed %s role: %w", input.UserName, err)
	}
	return nil
}

func (s *AuthService) record(ctx context.Context, action domain.AuditAction, userName string, ok bool, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuditEvent{
		Action:    action,
		UserName:  userName,
		RequestID: domain.RequestIDFrom(ctx),
		Success:   ok,
		Reason:    reason,
		At:        s.now().UTC(),
	})
}
