package repository

import (
	"context"
	"errors"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, name, email, password_hash, credits_purchased, credits_used, is_admin, created_at, updated_at`

// AccountRepositoryPG handles account data access.
type AccountRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAccountRepositoryPG creates a new AccountRepositoryPG.
func NewAccountRepositoryPG(pool *pgxpool.Pool) *AccountRepositoryPG {
	return &AccountRepositoryPG{pool: pool}
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	a := &model.Account{}
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreditsPurchased, &a.CreditsUsed, &a.IsAdmin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func collectAccounts(rows pgx.Rows) ([]model.Account, error) {
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreditsPurchased, &a.CreditsUsed, &a.IsAdmin, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetByID retrieves an account by ID.
func (r *AccountRepositoryPG) GetByID(ctx context.Context, id int) (*model.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// GetByEmail retrieves an account by its normalized email.
func (r *AccountRepositoryPG) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
}

// Create inserts a new account.
func (r *AccountRepositoryPG) Create(ctx context.Context, a *model.Account) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (name, email, password_hash, credits_purchased, credits_used, is_admin)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		a.Name, a.Email, a.PasswordHash, a.CreditsPurchased, a.CreditsUsed, a.IsAdmin,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if pgErrCode(err) == pgUniqueViolation {
		return ErrEmailTaken
	}
	return err
}

// List retrieves all accounts, newest first.
func (r *AccountRepositoryPG) List(ctx context.Context) ([]model.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

// AnyAdmin reports whether at least one admin account exists.
func (r *AccountRepositoryPG) AnyAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE is_admin)`).Scan(&exists)
	return exists, err
}

// SetAdmin updates the admin flag.
func (r *AccountRepositoryPG) SetAdmin(ctx context.Context, id int, isAdmin bool) (*model.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`UPDATE accounts SET is_admin = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+accountColumns, id, isAdmin))
}

// AddCredits increments credits_purchased.
func (r *AccountRepositoryPG) AddCredits(ctx context.Context, id, n int) (*model.Account, error) {
	if n <= 0 {
		return nil, model.ErrInvalidCreditAmount
	}
	return scanAccount(r.pool.QueryRow(ctx,
		`UPDATE accounts SET credits_purchased = credits_purchased + $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+accountColumns, id, n))
}

// CorrectCredits overwrites credits_purchased. The guard runs in the same
// statement so a concurrent start cannot slip under it.
func (r *AccountRepositoryPG) CorrectCredits(ctx context.Context, id, purchased int) (*model.Account, error) {
	if purchased < 0 {
		return nil, model.ErrInvalidCreditAmount
	}
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`UPDATE accounts SET credits_purchased = $2, updated_at = NOW()
		 WHERE id = $1 AND credits_used <= $2
		 RETURNING `+accountColumns, id, purchased))
	if !errors.Is(err, ErrNotFound) {
		return a, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, model.ErrCreditsBelowUsed
}

// RecordPurchase inserts the purchase row and credits the account in one transaction.
func (r *AccountRepositoryPG) RecordPurchase(ctx context.Context, p *model.CreditPurchase) (*model.Account, error) {
	if p.Credits <= 0 {
		return nil, model.ErrInvalidCreditAmount
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO credit_purchases (account_id, checkout_session_id, plan, credits, amount_minor, currency)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (checkout_session_id) DO NOTHING
		 RETURNING id, created_at`,
		p.AccountID, p.CheckoutSessionID, p.Plan, p.Credits, p.AmountMinor, p.Currency,
	).Scan(&p.ID, &p.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrPurchaseRecorded
	case pgErrCode(err) == pgForeignKeyViolation:
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}

	a, err := scanAccount(tx.QueryRow(ctx,
		`UPDATE accounts SET credits_purchased = credits_purchased + $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+accountColumns, p.AccountID, p.Credits))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}
