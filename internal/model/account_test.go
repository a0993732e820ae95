package model

import (
	"errors"
	"testing"
	"time"
)

func TestAccountConsumeCredit(t *testing.T) {
	a := &Account{CreditsPurchased: 2}

	for i := 0; i < 2; i++ {
		if err := a.ConsumeCredit(); err != nil {
			t.Fatalf("consume %d: %v", i+1, err)
		}
	}
	if err := a.ConsumeCredit(); !errors.Is(err, ErrInsufficientCredit) {
		t.Fatalf("expected ErrInsufficientCredit, got %v", err)
	}

	want := Ledger{Purchased: 2, Used: 2, Available: 0}
	if got := a.Ledger(); got != want {
		t.Errorf("ledger = %+v, want %+v", got, want)
	}
}

func TestAccountAddCredits(t *testing.T) {
	a := &Account{CreditsPurchased: 1, CreditsUsed: 1}

	if err := a.AddCredits(0); !errors.Is(err, ErrInvalidCreditAmount) {
		t.Errorf("AddCredits(0) = %v, want ErrInvalidCreditAmount", err)
	}
	if err := a.AddCredits(3); err != nil {
		t.Fatalf("AddCredits(3): %v", err)
	}
	if got := a.AvailableCredits(); got != 3 {
		t.Errorf("available = %d, want 3", got)
	}
}

func TestAccountCorrectPurchased(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr error
	}{
		{"below used", 1, ErrCreditsBelowUsed},
		{"negative", -1, ErrInvalidCreditAmount},
		{"equal to used", 2, nil},
		{"raise", 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{CreditsPurchased: 5, CreditsUsed: 2}
			err := a.CorrectPurchased(tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && a.CreditsPurchased != tt.value {
				t.Errorf("purchased = %d, want %d", a.CreditsPurchased, tt.value)
			}
			if err != nil && a.CreditsPurchased != 5 {
				t.Errorf("rejected correction changed purchased to %d", a.CreditsPurchased)
			}
		})
	}
}

func TestSessionRemaining(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{StartedAt: start}

	if got := s.Remaining(time.Hour, start.Add(20*time.Minute)); got != 40*time.Minute {
		t.Errorf("remaining = %v, want 40m", got)
	}
	if got := s.Remaining(time.Hour, start.Add(2*time.Hour)); got != 0 {
		t.Errorf("remaining after deadline = %v, want 0", got)
	}
}

func TestExamRequestApply(t *testing.T) {
	blank := ""
	req := ExamRequest{
		Title:        "Physics",
		Subject:      "Science",
		ClassLevel:   10,
		Description:  &blank,
		TotalMarks:   80,
		PassingMarks: 27,
		Duration:     180,
	}

	var e Exam
	req.Apply(&e)

	if e.Description != nil {
		t.Errorf("blank description stored as %q, want nil", *e.Description)
	}
	if e.Duration() != 3*time.Hour {
		t.Errorf("duration = %v, want 3h", e.Duration())
	}

	s := e.Summary()
	if s.Title != "Physics" || s.TotalMarks != 80 || s.Duration != 180 {
		t.Errorf("summary = %+v", s)
	}
}
