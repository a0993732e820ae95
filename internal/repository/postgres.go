package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool     *pgxpool.Pool
	accounts *AccountRepositoryPG
	exams    *ExamRepositoryPG
	sessions *SessionRepositoryPG
	stats    *StatsRepositoryPG
}

// NewPostgresStore wires every repository to the shared pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:     pool,
		accounts: NewAccountRepositoryPG(pool),
		exams:    NewExamRepositoryPG(pool),
		sessions: NewSessionRepositoryPG(pool),
		stats:    NewStatsRepositoryPG(pool),
	}
}

func (s *PostgresStore) Accounts() AccountRepository { return s.accounts }
func (s *PostgresStore) Exams() ExamRepository       { return s.exams }
func (s *PostgresStore) Sessions() SessionRepository { return s.sessions }
func (s *PostgresStore) Stats() StatsRepository      { return s.stats }
func (s *PostgresStore) Mode() string                { return ModePostgres }

// Ping checks database reachability.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// notFound maps pgx.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
