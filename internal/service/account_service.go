package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/GandharvMahajan/AutoExamChecker/internal/config"
	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/rs/zerolog"
)

// Account errors.
var (
	ErrAccountNotFound = errors.New("user not found")
	ErrEmailTaken      = errors.New("user already exists")
	ErrAdminExists     = errors.New("an admin account already exists")
	ErrInvalidAdminKey = errors.New("invalid admin setup key")
	ErrSelfDemotion    = errors.New("admins cannot remove their own admin access")
)

// AccountService handles registration, login and admin account management.
type AccountService struct {
	store repository.Store
	auth  *AuthService
	cfg   *config.Config
	log   zerolog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(store repository.Store, auth *AuthService, cfg *config.Config, log zerolog.Logger) *AccountService {
	return &AccountService{
		store: store,
		auth:  auth,
		cfg:   cfg,
		log:   log.With().Str("component", "account_service").Logger(),
	}
}

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a non-admin account with an empty ledger and signs a token for it.
func (s *AccountService) Register(ctx context.Context, req model.RegisterRequest) (*model.Account, string, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	a := &model.Account{
		Name:         strings.TrimSpace(req.Name),
		Email:        NormalizeEmail(req.Email),
		PasswordHash: hash,
	}
	if err := s.store.Accounts().Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create account: %w", err)
	}

	token, err := s.auth.GenerateToken(a)
	if err != nil {
		return nil, "", err
	}

	s.log.Info().Int("account_id", a.ID).Msg("Account registered")
	return a, token, nil
}

// Login verifies credentials. Unknown emails and wrong passwords fail identically.
func (s *AccountService) Login(ctx context.Context, req model.LoginRequest) (*model.Account, string, error) {
	a, err := s.store.Accounts().GetByEmail(ctx, NormalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("get account: %w", err)
	}

	if err := s.auth.CheckPassword(a.PasswordHash, req.Password); err != nil {
		return nil, "", err
	}

	token, err := s.auth.GenerateToken(a)
	if err != nil {
		return nil, "", err
	}
	return a, token, nil
}

// Get retrieves an account.
func (s *AccountService) Get(ctx context.Context, id int) (*model.Account, error) {
	a, err := s.store.Accounts().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return a, err
}

// SetupFirstAdmin promotes an existing account when no admin exists yet.
func (s *AccountService) SetupFirstAdmin(ctx context.Context, req model.SetupFirstAdminRequest) (*model.Account, error) {
	if subtle.ConstantTimeCompare([]byte(req.AdminKey), []byte(s.cfg.AdminSetupKey)) != 1 {
		return nil, ErrInvalidAdminKey
	}

	exists, err := s.store.Accounts().AnyAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("check admins: %w", err)
	}
	if exists {
		return nil, ErrAdminExists
	}

	a, err := s.store.Accounts().GetByEmail(ctx, NormalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	a, err = s.store.Accounts().SetAdmin(ctx, a.ID, true)
	if err != nil {
		return nil, fmt.Errorf("promote account: %w", err)
	}

	s.log.Info().Int("account_id", a.ID).Msg("First admin configured")
	return a, nil
}

// CreateAdmin creates an admin account, or promotes the account that already
// owns the email. The password is only used for a new account.
func (s *AccountService) CreateAdmin(ctx context.Context, name, email, password string) (*model.Account, bool, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	a := &model.Account{
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		IsAdmin:      true,
	}
	err = s.store.Accounts().Create(ctx, a)
	if err == nil {
		return a, true, nil
	}
	if !errors.Is(err, repository.ErrEmailTaken) {
		return nil, false, fmt.Errorf("create admin: %w", err)
	}

	existing, err := s.store.Accounts().GetByEmail(ctx, a.Email)
	if err != nil {
		return nil, false, fmt.Errorf("get account: %w", err)
	}
	promoted, err := s.store.Accounts().SetAdmin(ctx, existing.ID, true)
	if err != nil {
		return nil, false, fmt.Errorf("promote account: %w", err)
	}
	return promoted, false, nil
}

// List returns every account, newest first.
func (s *AccountService) List(ctx context.Context) ([]model.Account, error) {
	return s.store.Accounts().List(ctx)
}

// Detail returns an account with its attempt counters.
func (s *AccountService) Detail(ctx context.Context, id int) (*model.AccountDetail, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	started, completed, err := s.store.Sessions().CountByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	return &model.AccountDetail{
		Account:        *a,
		TestsStarted:   started,
		TestsCompleted: completed,
	}, nil
}

// ToggleAdmin flips the admin flag of target. An admin cannot demote themself.
func (s *AccountService) ToggleAdmin(ctx context.Context, actorID, targetID int) (*model.Account, error) {
	a, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if a.IsAdmin && actorID == targetID {
		return nil, ErrSelfDemotion
	}

	a, err = s.store.Accounts().SetAdmin(ctx, targetID, !a.IsAdmin)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set admin: %w", err)
	}

	s.log.Info().
		Int("actor_id", actorID).
		Int("account_id", targetID).
		Bool("is_admin", a.IsAdmin).
		Msg("Admin flag toggled")
	return a, nil
}
