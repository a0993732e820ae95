package model

import "time"

// CreditPurchase records one fulfilled checkout. CheckoutSessionID is unique,
// which makes fulfilment idempotent across webhook retries.
type CreditPurchase struct {
	ID                int       `json:"id"`
	AccountID         int       `json:"userId"`
	CheckoutSessionID string    `json:"checkoutSessionId"`
	Plan              string    `json:"plan"`
	Credits           int       `json:"credits"`
	AmountMinor       int64     `json:"amountMinor"`
	Currency          string    `json:"currency"`
	CreatedAt         time.Time `json:"createdAt"`
}

// CheckoutRequest is the payload for starting a Stripe Checkout.
type CheckoutRequest struct {
	Plan string `json:"plan" binding:"required,oneof=1 3 6"`
}
