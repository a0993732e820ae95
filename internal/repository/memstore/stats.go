package memstore

import (
	"context"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/dgraph-io/badger/v4"
)

type statsRepo struct {
	s *Store
}

func (r *statsRepo) Summary(ctx context.Context, newSince time.Time) (*model.Stats, error) {
	st := &model.Stats{}
	err := r.s.view(ctx, func(txn *badger.Txn) error {
		accounts, err := listAccounts(txn)
		if err != nil {
			return err
		}
		st.TotalUsers = len(accounts)
		for _, a := range accounts {
			if !a.CreatedAt.Before(newSince) {
				st.NewUsers++
			}
		}

		sessions, err := listSessions(txn, "session:")
		if err != nil {
			return err
		}
		st.TestsStarted = len(sessions)
		for _, s := range sessions {
			if s.IsCompleted() {
				st.TestsCompleted++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if st.TotalTests, err = r.s.exams.Count(ctx); err != nil {
		return nil, err
	}
	st.CompletionRate = repository.CompletionRate(st.TestsStarted, st.TestsCompleted)
	return st, nil
}

func (r *statsRepo) RecentAccounts(ctx context.Context, limit int) ([]model.Account, error) {
	accounts, err := r.s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

func (r *statsRepo) RecentAttempts(ctx context.Context, limit int) ([]model.Attempt, error) {
	attempts := []model.Attempt{}
	err := r.s.view(ctx, func(txn *badger.Txn) error {
		sessions, err := listSessions(txn, "session:")
		if err != nil {
			return err
		}
		if len(sessions) > limit {
			sessions = sessions[:limit]
		}
		for _, s := range sessions {
			at := model.Attempt{
				ID:          s.ID,
				StartedAt:   s.StartedAt,
				CompletedAt: s.CompletedAt,
				Score:       s.Score,
			}
			if a, err := loadAccount(txn, s.AccountID); err == nil {
				at.User = model.AttemptUser{ID: a.ID, Name: a.Name}
			}
			if e, err := loadExam(txn, s.ExamID); err == nil {
				at.Test = model.AttemptTest{ID: e.ID, Title: e.Title, PassingMarks: e.PassingMarks}
			}
			attempts = append(attempts, at)
		}
		return nil
	})
	return attempts, err
}
