package repository

import (
	"context"
	"errors"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, account_id, exam_id, status, started_at, completed_at, score, answer_pdf_url`

// SessionRepositoryPG handles session data access.
type SessionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSessionRepositoryPG creates a new SessionRepositoryPG.
func NewSessionRepositoryPG(pool *pgxpool.Pool) *SessionRepositoryPG {
	return &SessionRepositoryPG{pool: pool}
}

func scanSession(row pgx.Row) (*model.Session, error) {
	s := &model.Session{}
	err := row.Scan(&s.ID, &s.AccountID, &s.ExamID, &s.Status, &s.StartedAt, &s.CompletedAt, &s.Score, &s.AnswerPDFURL)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// Get retrieves the session for an account-exam pair.
func (r *SessionRepositoryPG) Get(ctx context.Context, accountID, examID int) (*model.Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE account_id = $1 AND exam_id = $2`,
		accountID, examID))
}

// ListByAccount retrieves all sessions of an account.
func (r *SessionRepositoryPG) ListByAccount(ctx context.Context, accountID int) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE account_id = $1 ORDER BY started_at DESC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.AccountID, &s.ExamID, &s.Status, &s.StartedAt, &s.CompletedAt, &s.Score, &s.AnswerPDFURL); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// CreateWithCredit inserts the session and consumes one credit in one transaction.
func (r *SessionRepositoryPG) CreateWithCredit(ctx context.Context, accountID, examID int, startedAt time.Time) (*model.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	s, err := scanSession(tx.QueryRow(ctx,
		`INSERT INTO sessions (account_id, exam_id, status, started_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (account_id, exam_id) DO NOTHING
		 RETURNING `+sessionColumns,
		accountID, examID, model.SessionStatusInProgress, startedAt))
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, ErrSessionExists
	case pgErrCode(err) == pgForeignKeyViolation:
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET credits_used = credits_used + 1, updated_at = NOW()
		 WHERE id = $1 AND credits_used < credits_purchased`, accountID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, model.ErrInsufficientCredit
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Restart refreshes an open session's start time and clears its outcome.
func (r *SessionRepositoryPG) Restart(ctx context.Context, accountID, examID int, startedAt time.Time) (*model.Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`UPDATE sessions
		 SET status = $3, started_at = $4, completed_at = NULL, score = NULL
		 WHERE account_id = $1 AND exam_id = $2 AND status <> $5
		 RETURNING `+sessionColumns,
		accountID, examID, model.SessionStatusInProgress, startedAt, model.SessionStatusCompleted))
}

// SetAnswer swaps the answer reference of an open session, returning the replaced value.
func (r *SessionRepositoryPG) SetAnswer(ctx context.Context, accountID, examID int, url string) (*string, error) {
	var prev *string
	err := r.pool.QueryRow(ctx,
		`UPDATE sessions s
		 SET answer_pdf_url = $3
		 FROM (SELECT id, answer_pdf_url FROM sessions
		       WHERE account_id = $1 AND exam_id = $2 AND status <> $4 FOR UPDATE) old
		 WHERE s.id = old.id
		 RETURNING old.answer_pdf_url`,
		accountID, examID, url, model.SessionStatusCompleted,
	).Scan(&prev)
	if err != nil {
		return nil, notFound(err)
	}
	return prev, nil
}

// Complete marks an open session as completed.
func (r *SessionRepositoryPG) Complete(ctx context.Context, accountID, examID int, completedAt time.Time) (*model.Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`UPDATE sessions
		 SET status = $3, completed_at = $4
		 WHERE account_id = $1 AND exam_id = $2 AND status <> $3
		 RETURNING `+sessionColumns,
		accountID, examID, model.SessionStatusCompleted, completedAt))
}

// CountByAccount returns how many sessions an account started and completed.
func (r *SessionRepositoryPG) CountByAccount(ctx context.Context, accountID int) (started, completed int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $2)
		 FROM sessions WHERE account_id = $1`,
		accountID, model.SessionStatusCompleted,
	).Scan(&started, &completed)
	return
}
