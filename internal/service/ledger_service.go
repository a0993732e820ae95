package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/rs/zerolog"
)

// LedgerService reads and adjusts account credits. Consumption is not
// exposed here: it only happens inside session creation.
type LedgerService struct {
	store repository.Store
	log   zerolog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(store repository.Store, log zerolog.Logger) *LedgerService {
	return &LedgerService{
		store: store,
		log:   log.With().Str("component", "ledger_service").Logger(),
	}
}

// Available returns the account's purchased, used and available credits.
func (s *LedgerService) Available(ctx context.Context, accountID int) (model.Ledger, error) {
	a, err := s.store.Accounts().GetByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Ledger{}, ErrAccountNotFound
	}
	if err != nil {
		return model.Ledger{}, fmt.Errorf("get account: %w", err)
	}
	return a.Ledger(), nil
}

// Increment adds amount purchased credits.
func (s *LedgerService) Increment(ctx context.Context, accountID, amount int) (model.Ledger, error) {
	a, err := s.store.Accounts().AddCredits(ctx, accountID, amount)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Ledger{}, ErrAccountNotFound
	}
	if err != nil {
		return model.Ledger{}, err
	}

	s.log.Info().Int("account_id", accountID).Int("amount", amount).Msg("Credits added")
	return a.Ledger(), nil
}

// Correct overwrites the purchased counter. It never drops below used credits.
func (s *LedgerService) Correct(ctx context.Context, actorID, accountID, purchased int) (*model.Account, error) {
	a, err := s.store.Accounts().CorrectCredits(ctx, accountID, purchased)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("actor_id", actorID).
		Int("account_id", accountID).
		Int("credits_purchased", purchased).
		Msg("Credits corrected")
	return a, nil
}
