package model

import "time"

// Stats are the admin dashboard counters.
type Stats struct {
	TotalUsers     int `json:"totalUsers"`
	NewUsers       int `json:"newUsers"`
	TotalTests     int `json:"totalTests"`
	TestsStarted   int `json:"testsStarted"`
	TestsCompleted int `json:"testsCompleted"`
	CompletionRate int `json:"completionRate"`
}

// AttemptUser identifies the account behind an attempt.
type AttemptUser struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// AttemptTest identifies the exam behind an attempt.
type AttemptTest struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	PassingMarks int    `json:"passingMarks"`
}

// Attempt is a session row joined with its account and exam.
type Attempt struct {
	ID          int         `json:"id"`
	StartedAt   time.Time   `json:"startedAt"`
	CompletedAt *time.Time  `json:"completedAt"`
	Score       *float64    `json:"score"`
	User        AttemptUser `json:"user"`
	Test        AttemptTest `json:"test"`
}
