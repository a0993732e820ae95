package model

import "time"

// SessionStatus enumerates attempt states. NotStarted is never stored; it is
// the absence of a session row.
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "NotStarted"
	SessionStatusInProgress SessionStatus = "InProgress"
	SessionStatusCompleted  SessionStatus = "Completed"
)

// Session is one account's attempt at one exam.
type Session struct {
	ID           int           `json:"id"`
	AccountID    int           `json:"userId"`
	ExamID       int           `json:"testId"`
	Status       SessionStatus `json:"status"`
	StartedAt    time.Time     `json:"startedAt"`
	CompletedAt  *time.Time    `json:"completedAt"`
	Score        *float64      `json:"score"`
	AnswerPDFURL *string       `json:"answerPdfUrl"`
}

// IsCompleted reports whether the attempt has been submitted.
func (s *Session) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}

// Remaining returns the time left before the attempt's deadline, floored at zero.
func (s *Session) Remaining(allotted time.Duration, now time.Time) time.Duration {
	left := s.StartedAt.Add(allotted).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// StartedTest is the exam metadata returned when a session starts.
type StartedTest struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Subject      string    `json:"subject"`
	Description  *string   `json:"description"`
	TotalMarks   int       `json:"totalMarks"`
	PassingMarks int       `json:"passingMarks"`
	Duration     int       `json:"duration"`
	PDFURL       *string   `json:"pdfUrl"`
	StartTime    time.Time `json:"startTime"`
}

// AccountTest is one catalog exam annotated with the account's attempt.
type AccountTest struct {
	ID           int           `json:"id"`
	Title        string        `json:"title"`
	Subject      string        `json:"subject"`
	ClassLevel   int           `json:"classLevel"`
	Description  *string       `json:"description"`
	TotalMarks   int           `json:"totalMarks"`
	PassingMarks int           `json:"passingMarks"`
	Duration     int           `json:"duration"`
	Status       SessionStatus `json:"status"`
	Score        *float64      `json:"score"`
	StartedAt    *time.Time    `json:"startedAt"`
	CompletedAt  *time.Time    `json:"completedAt"`
}

// SessionState is the timer view of an in-progress attempt.
type SessionState struct {
	TestID           int           `json:"testId"`
	Status           SessionStatus `json:"status"`
	StartedAt        time.Time     `json:"startedAt"`
	EndsAt           time.Time     `json:"endsAt"`
	RemainingSeconds int64         `json:"remainingSeconds"`
	Expired          bool          `json:"expired"`
	AnswerPDFURL     *string       `json:"answerPdfUrl"`
}
