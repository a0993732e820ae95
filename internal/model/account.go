package model

import (
	"errors"
	"time"
)

// Ledger errors.
var (
	ErrInsufficientCredit  = errors.New("no test credits available")
	ErrInvalidCreditAmount = errors.New("credit amount must be positive")
	ErrCreditsBelowUsed    = errors.New("purchased credits cannot drop below used credits")
)

// Account represents a registered user and the credit ledger attached to it.
type Account struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	CreditsPurchased int       `json:"testsPurchased"`
	CreditsUsed      int       `json:"testsUsed"`
	IsAdmin          bool      `json:"isAdmin"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Ledger is the purchased/used credit view of an account.
type Ledger struct {
	Purchased int `json:"testsPurchased"`
	Used      int `json:"testsUsed"`
	Available int `json:"availableTests"`
}

// AvailableCredits is purchased minus used. It is never stored.
func (a *Account) AvailableCredits() int {
	return a.CreditsPurchased - a.CreditsUsed
}

// Ledger returns the credit counters of the account.
func (a *Account) Ledger() Ledger {
	return Ledger{
		Purchased: a.CreditsPurchased,
		Used:      a.CreditsUsed,
		Available: a.AvailableCredits(),
	}
}

// ConsumeCredit spends one credit, refusing when none are left.
func (a *Account) ConsumeCredit() error {
	if a.AvailableCredits() <= 0 {
		return ErrInsufficientCredit
	}
	a.CreditsUsed++
	return nil
}

// AddCredits credits a purchase of n tests.
func (a *Account) AddCredits(n int) error {
	if n <= 0 {
		return ErrInvalidCreditAmount
	}
	a.CreditsPurchased += n
	return nil
}

// CorrectPurchased overwrites the purchased counter (administrative correction).
func (a *Account) CorrectPurchased(n int) error {
	if n < 0 {
		return ErrInvalidCreditAmount
	}
	if n < a.CreditsUsed {
		return ErrCreditsBelowUsed
	}
	a.CreditsPurchased = n
	return nil
}

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginRequest is the payload for account authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// SetupFirstAdminRequest promotes an existing account while no admin exists.
type SetupFirstAdminRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	AdminKey string `json:"adminKey" binding:"required"`
}

// CorrectCreditsRequest is the admin payload for a ledger correction.
type CorrectCreditsRequest struct {
	CreditsPurchased *int `json:"testsPurchased" binding:"required,min=0"`
}

// AccountDetail adds attempt counters to an account for the admin view.
type AccountDetail struct {
	Account
	TestsStarted   int `json:"testsStarted"`
	TestsCompleted int `json:"testsCompleted"`
}
