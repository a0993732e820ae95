package repository

import (
	"context"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepositoryPG handles admin dashboard data access.
type StatsRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewStatsRepositoryPG creates a new StatsRepositoryPG.
func NewStatsRepositoryPG(pool *pgxpool.Pool) *StatsRepositoryPG {
	return &StatsRepositoryPG{pool: pool}
}

// Summary retrieves the high-level counters for the dashboard.
func (r *StatsRepositoryPG) Summary(ctx context.Context, newSince time.Time) (*model.Stats, error) {
	s := &model.Stats{}
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM accounts WHERE created_at >= $1),
			(SELECT COUNT(*) FROM exam_definitions),
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM sessions WHERE status = $2)`,
		newSince, model.SessionStatusCompleted,
	).Scan(&s.TotalUsers, &s.NewUsers, &s.TotalTests, &s.TestsStarted, &s.TestsCompleted)
	if err != nil {
		return nil, err
	}
	s.CompletionRate = CompletionRate(s.TestsStarted, s.TestsCompleted)
	return s, nil
}

// RecentAccounts retrieves the newest accounts.
func (r *StatsRepositoryPG) RecentAccounts(ctx context.Context, limit int) ([]model.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

// RecentAttempts retrieves the latest sessions joined with account and exam.
func (r *StatsRepositoryPG) RecentAttempts(ctx context.Context, limit int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.started_at, s.completed_at, s.score, a.id, a.name, e.id, e.title, e.passing_marks
		 FROM sessions s
		 JOIN accounts a ON a.id = s.account_id
		 JOIN exam_definitions e ON e.id = s.exam_id
		 ORDER BY s.started_at DESC, s.id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []model.Attempt{}
	for rows.Next() {
		var at model.Attempt
		if err := rows.Scan(&at.ID, &at.StartedAt, &at.CompletedAt, &at.Score,
			&at.User.ID, &at.User.Name, &at.Test.ID, &at.Test.Title, &at.Test.PassingMarks); err != nil {
			return nil, err
		}
		attempts = append(attempts, at)
	}
	return attempts, rows.Err()
}
