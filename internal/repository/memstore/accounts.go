package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/dgraph-io/badger/v4"
)

// accountRecord is the stored form of an account. model.Account hides the
// password hash from JSON, so the record spells every field out.
type accountRecord struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"passwordHash"`
	CreditsPurchased int       `json:"creditsPurchased"`
	CreditsUsed      int       `json:"creditsUsed"`
	IsAdmin          bool      `json:"isAdmin"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toRecord(a *model.Account) accountRecord {
	return accountRecord{
		ID:               a.ID,
		Name:             a.Name,
		Email:            a.Email,
		PasswordHash:     a.PasswordHash,
		CreditsPurchased: a.CreditsPurchased,
		CreditsUsed:      a.CreditsUsed,
		IsAdmin:          a.IsAdmin,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (r accountRecord) account() *model.Account {
	return &model.Account{
		ID:               r.ID,
		Name:             r.Name,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		CreditsPurchased: r.CreditsPurchased,
		CreditsUsed:      r.CreditsUsed,
		IsAdmin:          r.IsAdmin,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func loadAccount(txn *badger.Txn, id int) (*model.Account, error) {
	var rec accountRecord
	if err := getJSON(txn, accountKey(id), &rec); err != nil {
		return nil, err
	}
	return rec.account(), nil
}

func saveAccount(txn *badger.Txn, a *model.Account) error {
	return putJSON(txn, accountKey(a.ID), toRecord(a))
}

func listAccounts(txn *badger.Txn) ([]model.Account, error) {
	accounts := []model.Account{}
	err := scanPrefix(txn, "account:", func(val []byte) error {
		var rec accountRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return err
		}
		accounts = append(accounts, *rec.account())
		return nil
	})
	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
		}
		return accounts[i].ID > accounts[j].ID
	})
	return accounts, err
}

type accountRepo struct {
	s *Store
}

func (r *accountRepo) GetByID(ctx context.Context, id int) (*model.Account, error) {
	var a *model.Account
	err := r.s.view(ctx, func(txn *badger.Txn) error {
		var err error
		a, err = loadAccount(txn, id)
		return err
	})
	return a, err
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a *model.Account
	err := r.s.view(ctx, func(txn *badger.Txn) error {
		var id int
		if err := getJSON(txn, accountEmailKey(email), &id); err != nil {
			return err
		}
		var err error
		a, err = loadAccount(txn, id)
		return err
	})
	return a, err
}

func (r *accountRepo) Create(ctx context.Context, a *model.Account) error {
	return r.s.update(ctx, func(txn *badger.Txn) error {
		var existing int
		switch err := getJSON(txn, accountEmailKey(a.Email), &existing); err {
		case nil:
			return repository.ErrEmailTaken
		case repository.ErrNotFound:
		default:
			return err
		}

		id, err := nextID(txn, "account")
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		a.ID, a.CreatedAt, a.UpdatedAt = id, now, now
		if err := putJSON(txn, accountEmailKey(a.Email), id); err != nil {
			return err
		}
		return saveAccount(txn, a)
	})
}

func (r *accountRepo) List(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := r.s.view(ctx, func(txn *badger.Txn) error {
		var err error
		accounts, err = listAccounts(txn)
		return err
	})
	return accounts, err
}

func (r *accountRepo) AnyAdmin(ctx context.Context) (bool, error) {
	accounts, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	for _, a := range accounts {
		if a.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}

// mutate loads an account, applies fn and stores the result in one transaction.
func (r *accountRepo) mutate(ctx context.Context, id int, fn func(a *model.Account) error) (*model.Account, error) {
	var out *model.Account
	err := r.s.update(ctx, func(txn *badger.Txn) error {
		a, err := loadAccount(txn, id)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
		a.UpdatedAt = time.Now().UTC()
		out = a
		return saveAccount(txn, a)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *accountRepo) SetAdmin(ctx context.Context, id int, isAdmin bool) (*model.Account, error) {
	return r.mutate(ctx, id, func(a *model.Account) error {
		a.IsAdmin = isAdmin
		return nil
	})
}

func (r *accountRepo) AddCredits(ctx context.Context, id, n int) (*model.Account, error) {
	if n <= 0 {
		return nil, model.ErrInvalidCreditAmount
	}
	return r.mutate(ctx, id, func(a *model.Account) error {
		return a.AddCredits(n)
	})
}

func (r *accountRepo) CorrectCredits(ctx context.Context, id, purchased int) (*model.Account, error) {
	return r.mutate(ctx, id, func(a *model.Account) error {
		return a.CorrectPurchased(purchased)
	})
}

func (r *accountRepo) RecordPurchase(ctx context.Context, p *model.CreditPurchase) (*model.Account, error) {
	if p.Credits <= 0 {
		return nil, model.ErrInvalidCreditAmount
	}
	var out *model.Account
	err := r.s.update(ctx, func(txn *badger.Txn) error {
		var existing model.CreditPurchase
		switch err := getJSON(txn, purchaseKey(p.CheckoutSessionID), &existing); err {
		case nil:
			return repository.ErrPurchaseRecorded
		case repository.ErrNotFound:
		default:
			return err
		}

		a, err := loadAccount(txn, p.AccountID)
		if err != nil {
			return err
		}
		if err := a.AddCredits(p.Credits); err != nil {
			return err
		}
		id, err := nextID(txn, "purchase")
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		p.ID, p.CreatedAt = id, now
		a.UpdatedAt = now
		if err := putJSON(txn, purchaseKey(p.CheckoutSessionID), p); err != nil {
			return err
		}
		out = a
		return saveAccount(txn, a)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
