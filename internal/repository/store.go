package repository

import (
	"context"
	"errors"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
)

// Storage errors shared by every Store implementation.
var (
	ErrNotFound         = errors.New("record not found")
	ErrEmailTaken       = errors.New("an account with this email already exists")
	ErrSessionExists    = errors.New("session already exists for this account and exam")
	ErrExamInUse        = errors.New("exam is referenced by sessions")
	ErrPurchaseRecorded = errors.New("checkout session already fulfilled")
)

// Store modes reported by Store.Mode.
const (
	ModePostgres = "postgres"
	ModeMemory   = "memory"
)

// AccountRepository persists accounts and their credit ledger.
type AccountRepository interface {
	GetByID(ctx context.Context, id int) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	Create(ctx context.Context, a *model.Account) error
	List(ctx context.Context) ([]model.Account, error)
	AnyAdmin(ctx context.Context) (bool, error)
	SetAdmin(ctx context.Context, id int, isAdmin bool) (*model.Account, error)
	// AddCredits increments credits_purchased by n.
	AddCredits(ctx context.Context, id, n int) (*model.Account, error)
	// CorrectCredits overwrites credits_purchased, refusing values below credits_used.
	CorrectCredits(ctx context.Context, id, purchased int) (*model.Account, error)
	// RecordPurchase stores p and credits the account in one unit. A repeated
	// checkout session id returns ErrPurchaseRecorded and changes nothing.
	RecordPurchase(ctx context.Context, p *model.CreditPurchase) (*model.Account, error)
}

// ExamRepository persists the exam catalog.
type ExamRepository interface {
	GetByID(ctx context.Context, id int) (*model.Exam, error)
	// List returns exams newest first. classLevel 0 disables the filter.
	List(ctx context.Context, classLevel int) ([]model.Exam, error)
	Create(ctx context.Context, e *model.Exam) error
	Update(ctx context.Context, e *model.Exam) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
	// SetQuestionPaper replaces the paper reference and returns the previous one.
	SetQuestionPaper(ctx context.Context, id int, url string) (*string, error)
}

// SessionRepository persists attempts. Every mutation that requires an open
// session matches only rows whose status is not Completed and reports
// ErrNotFound otherwise.
type SessionRepository interface {
	Get(ctx context.Context, accountID, examID int) (*model.Session, error)
	ListByAccount(ctx context.Context, accountID int) ([]model.Session, error)
	// CreateWithCredit inserts an InProgress session and consumes one credit
	// atomically. It returns ErrSessionExists when the pair is already taken
	// and model.ErrInsufficientCredit when the ledger is exhausted.
	CreateWithCredit(ctx context.Context, accountID, examID int, startedAt time.Time) (*model.Session, error)
	Restart(ctx context.Context, accountID, examID int, startedAt time.Time) (*model.Session, error)
	// SetAnswer replaces the answer reference and returns the previous one.
	SetAnswer(ctx context.Context, accountID, examID int, url string) (*string, error)
	Complete(ctx context.Context, accountID, examID int, completedAt time.Time) (*model.Session, error)
	CountByAccount(ctx context.Context, accountID int) (started, completed int, err error)
}

// StatsRepository aggregates dashboard data.
type StatsRepository interface {
	Summary(ctx context.Context, newSince time.Time) (*model.Stats, error)
	RecentAccounts(ctx context.Context, limit int) ([]model.Account, error)
	RecentAttempts(ctx context.Context, limit int) ([]model.Attempt, error)
}

// Store is the storage access object handed to services.
type Store interface {
	Accounts() AccountRepository
	Exams() ExamRepository
	Sessions() SessionRepository
	Stats() StatsRepository
	Ping(ctx context.Context) error
	Mode() string
	Close() error
}

// CompletionRate returns completed/started as a rounded percentage.
func CompletionRate(started, completed int) int {
	if started == 0 {
		return 0
	}
	return (completed*100 + started/2) / started
}
