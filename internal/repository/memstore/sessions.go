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

func loadSession(txn *badger.Txn, accountID, examID int) (*model.Session, error) {
	s := &model.Session{}
	if err := getJSON(txn, sessionKey(accountID, examID), s); err != nil {
		return nil, err
	}
	return s, nil
}

// loadOpenSession returns the pair's session only while it is not Completed.
func loadOpenSession(txn *badger.Txn, accountID, examID int) (*model.Session, error) {
	s, err := loadSession(txn, accountID, examID)
	if err != nil {
		return nil, err
	}
	if s.IsCompleted() {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func listSessions(txn *badger.Txn, prefix string) ([]model.Session, error) {
	sessions := []model.Session{}
	err := scanPrefix(txn, prefix, func(val []byte) error {
		var s model.Session
		if err := json.Unmarshal(val, &s); err != nil {
			return err
		}
		sessions = append(sessions, s)
		return nil
	})
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.After(sessions[j].StartedAt)
		}
		return sessions[i].ID > sessions[j].ID
	})
	return sessions, err
}

type sessionRepo struct {
	s *Store
}

func (r *sessionRepo) Get(ctx context.Context, accountID, examID int) (*model.Session, error) {
	var s *model.Session
	err := r.s.view(ctx, func(txn *badger.Txn) error {
		var err error
		s, err = loadSession(txn, accountID, examID)
		return err
	})
	return s, err
}

func (r *sessionRepo) ListByAccount(ctx context.Context, accountID int) ([]model.Session, error) {
	var sessions []model.Session
	err := r.s.view(ctx, func(txn *badger.Txn) error {
		var err error
		sessions, err = listSessions(txn, sessionAccountPrefix(accountID))
		return err
	})
	return sessions, err
}

// CreateWithCredit reads the pair and the account and writes both in one
// serializable transaction. A concurrent start on the same account makes
// one commit fail with a conflict, and the replay sees the other's writes.
func (r *sessionRepo) CreateWithCredit(ctx context.Context, accountID, examID int, startedAt time.Time) (*model.Session, error) {
	var out *model.Session
	err := r.s.update(ctx, func(txn *badger.Txn) error {
		switch _, err := loadSession(txn, accountID, examID); err {
		case nil:
			return repository.ErrSessionExists
		case repository.ErrNotFound:
		default:
			return err
		}
		if _, err := loadExam(txn, examID); err != nil {
			return err
		}

		a, err := loadAccount(txn, accountID)
		if err != nil {
			return err
		}
		if err := a.ConsumeCredit(); err != nil {
			return err
		}
		a.UpdatedAt = time.Now().UTC()

		id, err := nextID(txn, "session")
		if err != nil {
			return err
		}
		s := &model.Session{
			ID:        id,
			AccountID: accountID,
			ExamID:    examID,
			Status:    model.SessionStatusInProgress,
			StartedAt: startedAt,
		}
		if err := putJSON(txn, sessionKey(accountID, examID), s); err != nil {
			return err
		}
		out = s
		return saveAccount(txn, a)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mutateOpen applies fn to the pair's open session and stores the result.
func (r *sessionRepo) mutateOpen(ctx context.Context, accountID, examID int, fn func(s *model.Session)) (*model.Session, error) {
	var out *model.Session
	err := r.s.update(ctx, func(txn *badger.Txn) error {
		s, err := loadOpenSession(txn, accountID, examID)
		if err != nil {
			return err
		}
		fn(s)
		out = s
		return putJSON(txn, sessionKey(accountID, examID), s)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) Restart(ctx context.Context, accountID, examID int, startedAt time.Time) (*model.Session, error) {
	return r.mutateOpen(ctx, accountID, examID, func(s *model.Session) {
		s.Status = model.SessionStatusInProgress
		s.StartedAt = startedAt
		s.CompletedAt = nil
		s.Score = nil
	})
}

func (r *sessionRepo) SetAnswer(ctx context.Context, accountID, examID int, url string) (*string, error) {
	var prev *string
	_, err := r.mutateOpen(ctx, accountID, examID, func(s *model.Session) {
		prev = s.AnswerPDFURL
		s.AnswerPDFURL = &url
	})
	if err != nil {
		return nil, err
	}
	return prev, nil
}

func (r *sessionRepo) Complete(ctx context.Context, accountID, examID int, completedAt time.Time) (*model.Session, error) {
	return r.mutateOpen(ctx, accountID, examID, func(s *model.Session) {
		s.Status = model.SessionStatusCompleted
		s.CompletedAt = &completedAt
	})
}

func (r *sessionRepo) CountByAccount(ctx context.Context, accountID int) (started, completed int, err error) {
	sessions, err := r.ListByAccount(ctx, accountID)
	if err != nil {
		return 0, 0, err
	}
	for _, s := range sessions {
		if s.IsCompleted() {
			completed++
		}
	}
	return len(sessions), completed, nil
}
