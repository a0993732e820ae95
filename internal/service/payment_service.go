package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GandharvMahajan/AutoExamChecker/internal/config"
	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/notify"
	"github.com/GandharvMahajan/AutoExamChecker/internal/payment"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/rs/zerolog"
)

// Payment errors.
var (
	ErrInvalidPlan         = errors.New("plan must be either 1, 3, or 6")
	ErrPaymentFailed       = errors.New("payment provider request failed")
	ErrPaymentNotCompleted = errors.New("payment has not been completed")
	ErrCheckoutMismatch    = errors.New("checkout session belongs to another user")
	ErrInvalidWebhook      = errors.New("invalid webhook payload")
)

// CheckoutGateway is the payment provider.
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, p payment.CheckoutParams) (*payment.Checkout, error)
	GetCheckout(ctx context.Context, id string) (*payment.Checkout, error)
	ParseWebhook(payload []byte, signature string) (*payment.Event, error)
}

// ReceiptSender delivers purchase receipts.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, r notify.Receipt) error
}

// PaymentService opens checkouts and turns paid checkouts into credits.
type PaymentService struct {
	store   repository.Store
	gateway CheckoutGateway
	mailer  ReceiptSender
	cfg     *config.Config
	log     zerolog.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(store repository.Store, gateway CheckoutGateway, mailer ReceiptSender, cfg *config.Config, log zerolog.Logger) *PaymentService {
	return &PaymentService{
		store:   store,
		gateway: gateway,
		mailer:  mailer,
		cfg:     cfg,
		log:     log.With().Str("component", "payment_service").Logger(),
	}
}

// CreateCheckout opens a Stripe Checkout for the plan on behalf of the account.
func (s *PaymentService) CreateCheckout(ctx context.Context, accountID int, planID string) (*payment.Checkout, error) {
	plan, ok := payment.LookupPlan(planID)
	if !ok {
		return nil, ErrInvalidPlan
	}

	a, err := s.store.Accounts().GetByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	c, err := s.gateway.CreateCheckout(ctx, payment.CheckoutParams{
		AccountID:  a.ID,
		Email:      a.Email,
		Plan:       plan,
		SuccessURL: fmt.Sprintf("%s/payment-success?session_id={CHECKOUT_SESSION_ID}&plan=%s", s.cfg.FrontendURL, plan.ID),
		CancelURL:  s.cfg.FrontendURL + "/pricing",
	})
	if err != nil {
		s.log.Error().Err(err).Int("account_id", accountID).Str("plan", plan.ID).Msg("Checkout creation failed")
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	s.log.Info().Int("account_id", accountID).Str("plan", plan.ID).Str("checkout_id", c.ID).Msg("Checkout created")
	return c, nil
}

// HandleWebhook verifies and applies a provider event. Events other than a
// completed checkout are acknowledged without effect.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}

	s.log.Info().Str("event_id", ev.ID).Str("type", ev.Type).Msg("Webhook received")
	if ev.Type != payment.EventCheckoutCompleted || ev.Checkout == nil {
		return nil
	}

	if _, _, err := s.fulfil(ctx, ev.Checkout); err != nil {
		if errors.Is(err, ErrInvalidWebhook) || errors.Is(err, ErrAccountNotFound) {
			s.log.Warn().Err(err).Str("checkout_id", ev.Checkout.ID).Msg("Checkout not fulfilled")
			return nil
		}
		return err
	}
	return nil
}

// ConfirmCheckout verifies with the provider that the caller's checkout is
// paid and fulfils it. Fulfilment is idempotent, so this and the webhook can
// both run for the same checkout.
func (s *PaymentService) ConfirmCheckout(ctx context.Context, accountID int, checkoutID string) (model.Ledger, bool, error) {
	c, err := s.gateway.GetCheckout(ctx, checkoutID)
	if err != nil {
		return model.Ledger{}, false, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if c.AccountID != accountID {
		return model.Ledger{}, false, ErrCheckoutMismatch
	}
	if !c.Paid {
		return model.Ledger{}, false, ErrPaymentNotCompleted
	}

	a, credited, err := s.fulfil(ctx, c)
	if err != nil {
		return model.Ledger{}, false, err
	}
	return a.Ledger(), credited, nil
}

// fulfil credits a paid checkout exactly once. The second return reports
// whether this call applied the credit.
func (s *PaymentService) fulfil(ctx context.Context, c *payment.Checkout) (*model.Account, bool, error) {
	plan, ok := payment.LookupPlan(c.PlanID)
	if !ok || c.AccountID <= 0 {
		return nil, false, fmt.Errorf("%w: missing user or plan metadata", ErrInvalidWebhook)
	}

	purchase := &model.CreditPurchase{
		AccountID:         c.AccountID,
		CheckoutSessionID: c.ID,
		Plan:              plan.ID,
		Credits:           plan.Credits,
		AmountMinor:       c.AmountTotal,
		Currency:          c.Currency,
	}
	if purchase.AmountMinor == 0 {
		purchase.AmountMinor = plan.Amount
	}
	if purchase.Currency == "" {
		purchase.Currency = plan.Currency
	}

	a, err := s.store.Accounts().RecordPurchase(ctx, purchase)
	switch {
	case errors.Is(err, repository.ErrPurchaseRecorded):
		a, err := s.store.Accounts().GetByID(ctx, c.AccountID)
		if err != nil {
			return nil, false, fmt.Errorf("get account: %w", err)
		}
		return a, false, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, false, ErrAccountNotFound
	case err != nil:
		return nil, false, fmt.Errorf("record purchase: %w", err)
	}

	s.log.Info().
		Int("account_id", a.ID).
		Str("checkout_id", c.ID).
		Int("credits", plan.Credits).
		Msg("Credits purchased")

	receipt := notify.Receipt{
		ToEmail:   a.Email,
		ToName:    a.Name,
		PlanName:  plan.Name,
		Credits:   plan.Credits,
		Amount:    plan.DisplayPrice(),
		Currency:  strings.ToUpper(plan.Currency),
		Available: a.AvailableCredits(),
	}
	if err := s.mailer.SendReceipt(ctx, receipt); err != nil {
		s.log.Warn().Err(err).Int("account_id", a.ID).Msg("Receipt email failed")
	}

	return a, true, nil
}
