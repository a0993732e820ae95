package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/rs/zerolog"
)

// Session lifecycle errors.
var (
	ErrExamNotFound       = errors.New("test not found")
	ErrSessionNotFound    = errors.New("test session not found or already completed")
	ErrTestCompleted      = errors.New("test already completed")
	ErrInsufficientCredit = errors.New("no tests available, please purchase more tests")
)

// startAttempts bounds how often Start re-reads after losing a race with a
// concurrent start or submit on the same pair.
const startAttempts = 3

// SessionService orchestrates session start, answer upload and submit
// against the ledger and the catalog.
type SessionService struct {
	store repository.Store
	media *MediaService
	now   func() time.Time
	log   zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(store repository.Store, media *MediaService, log zerolog.Logger) *SessionService {
	return &SessionService{
		store: store,
		media: media,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log.With().Str("component", "session_service").Logger(),
	}
}

func (s *SessionService) getExam(ctx context.Context, examID int) (*model.Exam, error) {
	exam, err := s.store.Exams().GetByID(ctx, examID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// Start begins or resumes an attempt. The first start of a pair consumes one
// credit in the same transaction that creates the session; a restart only
// refreshes the start time. Completed attempts cannot be restarted.
func (s *SessionService) Start(ctx context.Context, accountID, examID int) (*model.StartedTest, *model.Session, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, nil, err
	}

	sessions := s.store.Sessions()
	for attempt := 0; attempt < startAttempts; attempt++ {
		now := s.now()

		existing, err := sessions.Get(ctx, accountID, examID)
		switch {
		case err == nil:
			if existing.IsCompleted() {
				return nil, nil, ErrTestCompleted
			}
			sess, err := sessions.Restart(ctx, accountID, examID, now)
			if errors.Is(err, repository.ErrNotFound) {
				// Submitted in between; the next read reports it.
				continue
			}
			if err != nil {
				return nil, nil, fmt.Errorf("restart session: %w", err)
			}
			s.log.Debug().Int("account_id", accountID).Int("exam_id", examID).Msg("Session restarted")
			return startedTest(exam, sess), sess, nil

		case errors.Is(err, repository.ErrNotFound):
			sess, err := sessions.CreateWithCredit(ctx, accountID, examID, now)
			switch {
			case errors.Is(err, repository.ErrSessionExists):
				continue
			case errors.Is(err, model.ErrInsufficientCredit):
				return nil, nil, ErrInsufficientCredit
			case errors.Is(err, repository.ErrNotFound):
				return nil, nil, ErrAccountNotFound
			case err != nil:
				return nil, nil, fmt.Errorf("create session: %w", err)
			}
			s.log.Info().Int("account_id", accountID).Int("exam_id", examID).Msg("Session started, credit consumed")
			return startedTest(exam, sess), sess, nil

		default:
			return nil, nil, fmt.Errorf("get session: %w", err)
		}
	}

	return nil, nil, fmt.Errorf("start session: gave up after %d attempts", startAttempts)
}

func startedTest(exam *model.Exam, sess *model.Session) *model.StartedTest {
	return &model.StartedTest{
		ID:           exam.ID,
		Title:        exam.Title,
		Subject:      exam.Subject,
		Description:  exam.Description,
		TotalMarks:   exam.TotalMarks,
		PassingMarks: exam.PassingMarks,
		Duration:     exam.DurationMinutes,
		PDFURL:       exam.QuestionPaperURL,
		StartTime:    sess.StartedAt,
	}
}

// UploadAnswer stores the PDF and points the open session at it. The
// previously referenced file, if any, is discarded. Last write wins.
func (s *SessionService) UploadAnswer(ctx context.Context, accountID, examID int, file multipart.File, header *multipart.FileHeader) (string, error) {
	sess, err := s.store.Sessions().Get(ctx, accountID, examID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && sess.IsCompleted()) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}

	url, err := s.media.SavePDF(UploadKindAnswer, file, header)
	if err != nil {
		return "", err
	}

	prev, err := s.store.Sessions().SetAnswer(ctx, accountID, examID, url)
	if err != nil {
		s.media.Release(ctx, &url)
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("set answer: %w", err)
	}
	s.media.Release(ctx, prev)

	return url, nil
}

// Submit completes an open session. Score stays unset.
func (s *SessionService) Submit(ctx context.Context, accountID, examID int) (*model.Session, error) {
	sess, err := s.store.Sessions().Complete(ctx, accountID, examID, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	s.log.Info().Int("account_id", accountID).Int("exam_id", examID).Msg("Session submitted")
	return sess, nil
}

// ListForAccount annotates every catalog exam with the account's attempt and
// returns the ledger alongside.
func (s *SessionService) ListForAccount(ctx context.Context, accountID int) ([]model.AccountTest, model.Ledger, error) {
	a, err := s.store.Accounts().GetByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.Ledger{}, ErrAccountNotFound
	}
	if err != nil {
		return nil, model.Ledger{}, fmt.Errorf("get account: %w", err)
	}

	exams, err := s.store.Exams().List(ctx, 0)
	if err != nil {
		return nil, model.Ledger{}, fmt.Errorf("list exams: %w", err)
	}
	sessions, err := s.store.Sessions().ListByAccount(ctx, accountID)
	if err != nil {
		return nil, model.Ledger{}, fmt.Errorf("list sessions: %w", err)
	}

	byExam := make(map[int]*model.Session, len(sessions))
	for i := range sessions {
		byExam[sessions[i].ExamID] = &sessions[i]
	}

	tests := make([]model.AccountTest, 0, len(exams))
	for _, e := range exams {
		t := model.AccountTest{
			ID:           e.ID,
			Title:        e.Title,
			Subject:      e.Subject,
			ClassLevel:   e.ClassLevel,
			Description:  e.Description,
			TotalMarks:   e.TotalMarks,
			PassingMarks: e.PassingMarks,
			Duration:     e.DurationMinutes,
			Status:       model.SessionStatusNotStarted,
		}
		if sess, ok := byExam[e.ID]; ok {
			started := sess.StartedAt
			t.Status = sess.Status
			t.Score = sess.Score
			t.StartedAt = &started
			t.CompletedAt = sess.CompletedAt
		}
		tests = append(tests, t)
	}

	return tests, a.Ledger(), nil
}

// State reports the timer view of an attempt. Completed attempts report
// zero remaining time.
func (s *SessionService) State(ctx context.Context, accountID, examID int) (*model.SessionState, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.Sessions().Get(ctx, accountID, examID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	remaining := sess.Remaining(exam.Duration(), s.now())
	if sess.IsCompleted() {
		remaining = 0
	}

	return &model.SessionState{
		TestID:           examID,
		Status:           sess.Status,
		StartedAt:        sess.StartedAt,
		EndsAt:           sess.StartedAt.Add(exam.Duration()),
		RemainingSeconds: int64(remaining / time.Second),
		Expired:          remaining == 0,
		AnswerPDFURL:     sess.AnswerPDFURL,
	}, nil
}
