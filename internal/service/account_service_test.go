package service

import (
	"context"
	"errors"
	"testing"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/rs/zerolog"
)

func newAccountService(t *testing.T) (*AccountService, *AuthService) {
	t.Helper()
	cfg := testConfig(t)
	auth := NewAuthService(cfg)
	return NewAccountService(testStore(t), auth, cfg, zerolog.Nop()), auth
}

func TestRegisterAndLogin(t *testing.T) {
	svc, auth := newAccountService(t)
	ctx := context.Background()

	a, token, err := svc.Register(ctx, model.RegisterRequest{Name: " Asha ", Email: "Asha@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if a.Email != "asha@example.com" || a.Name != "Asha" || a.IsAdmin || a.AvailableCredits() != 0 {
		t.Errorf("account = %+v", a)
	}
	claims, err := auth.ValidateToken(token)
	if err != nil || claims.AccountID != a.ID {
		t.Fatalf("token claims = %+v, err = %v", claims, err)
	}

	_, _, err = svc.Register(ctx, model.RegisterRequest{Name: "Dup", Email: "ASHA@example.com", Password: "secret1"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate register err = %v, want ErrEmailTaken", err)
	}

	if _, _, err := svc.Login(ctx, model.LoginRequest{Email: "asha@EXAMPLE.com", Password: "secret1"}); err != nil {
		t.Errorf("login: %v", err)
	}
	if _, _, err := svc.Login(ctx, model.LoginRequest{Email: "asha@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, _, err := svc.Login(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	cfg := testConfig(t)
	other := *cfg
	other.JWTSecret = "another-secret"

	token, err := NewAuthService(&other).GenerateToken(&model.Account{ID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewAuthService(cfg).ValidateToken(token); err == nil {
		t.Error("token signed with another secret was accepted")
	}
}

func TestSetupFirstAdmin(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	a, _, err := svc.Register(ctx, model.RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Register(ctx, model.RegisterRequest{Name: "B", Email: "b@example.com", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SetupFirstAdmin(ctx, model.SetupFirstAdminRequest{Email: "a@example.com", AdminKey: "wrong"}); !errors.Is(err, ErrInvalidAdminKey) {
		t.Errorf("wrong key err = %v", err)
	}
	if _, err := svc.SetupFirstAdmin(ctx, model.SetupFirstAdminRequest{Email: "ghost@example.com", AdminKey: "setup-key"}); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("unknown email err = %v", err)
	}

	admin, err := svc.SetupFirstAdmin(ctx, model.SetupFirstAdminRequest{Email: "a@example.com", AdminKey: "setup-key"})
	if err != nil {
		t.Fatalf("SetupFirstAdmin: %v", err)
	}
	if admin.ID != a.ID || !admin.IsAdmin {
		t.Errorf("admin = %+v", admin)
	}

	if _, err := svc.SetupFirstAdmin(ctx, model.SetupFirstAdminRequest{Email: "b@example.com", AdminKey: "setup-key"}); !errors.Is(err, ErrAdminExists) {
		t.Errorf("second setup err = %v, want ErrAdminExists", err)
	}
}

func TestToggleAdmin(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	admin, created, err := svc.CreateAdmin(ctx, "Root", "root@example.com", "secret1")
	if err != nil || !created {
		t.Fatalf("CreateAdmin = %v, %v", created, err)
	}
	user, _, err := svc.Register(ctx, model.RegisterRequest{Name: "U", Email: "u@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ToggleAdmin(ctx, admin.ID, admin.ID); !errors.Is(err, ErrSelfDemotion) {
		t.Errorf("self demotion err = %v", err)
	}

	promoted, err := svc.ToggleAdmin(ctx, admin.ID, user.ID)
	if err != nil || !promoted.IsAdmin {
		t.Fatalf("promote = %+v, %v", promoted, err)
	}
	demoted, err := svc.ToggleAdmin(ctx, admin.ID, user.ID)
	if err != nil || demoted.IsAdmin {
		t.Fatalf("demote = %+v, %v", demoted, err)
	}

	if _, err := svc.ToggleAdmin(ctx, admin.ID, 999); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("unknown target err = %v", err)
	}
}

func TestCreateAdminPromotesExisting(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, model.RegisterRequest{Name: "U", Email: "u@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	a, created, err := svc.CreateAdmin(ctx, "Other Name", "U@example.com", "another1")
	if err != nil {
		t.Fatal(err)
	}
	if created || a.ID != user.ID || !a.IsAdmin {
		t.Errorf("CreateAdmin = %+v, created = %v", a, created)
	}
	if _, _, err := svc.Login(ctx, model.LoginRequest{Email: "u@example.com", Password: "secret1"}); err != nil {
		t.Errorf("existing password no longer works: %v", err)
	}
}

func TestLedgerCorrect(t *testing.T) {
	store := testStore(t)
	ledger := NewLedgerService(store, zerolog.Nop())
	ctx := context.Background()
	a := seedAccount(t, store, "a@example.com", 0)

	if _, err := ledger.Increment(ctx, a.ID, 0); !errors.Is(err, model.ErrInvalidCreditAmount) {
		t.Errorf("Increment(0) err = %v", err)
	}
	got, err := ledger.Increment(ctx, a.ID, 3)
	if err != nil || got.Available != 3 {
		t.Fatalf("Increment(3) = %+v, %v", got, err)
	}

	e := seedExam(t, store, "A", 60)
	if _, err := store.Sessions().CreateWithCredit(ctx, a.ID, e.ID, testNow()); err != nil {
		t.Fatal(err)
	}

	if _, err := ledger.Correct(ctx, 1, a.ID, 0); !errors.Is(err, model.ErrCreditsBelowUsed) {
		t.Errorf("Correct below used err = %v", err)
	}
	corrected, err := ledger.Correct(ctx, 1, a.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if corrected.Ledger() != (model.Ledger{Purchased: 1, Used: 1, Available: 0}) {
		t.Errorf("ledger = %+v", corrected.Ledger())
	}
	if _, err := ledger.Available(ctx, 999); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Available(unknown) err = %v", err)
	}
}
