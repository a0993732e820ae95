package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Gateway errors.
var (
	ErrNotConfigured    = errors.New("payment provider is not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// EventCheckoutCompleted is the only webhook event that credits an account.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutParams describes one checkout to open.
type CheckoutParams struct {
	AccountID  int
	Email      string
	Plan       Plan
	SuccessURL string
	CancelURL  string
}

// Checkout is the provider-neutral view of a checkout session.
type Checkout struct {
	ID          string
	URL         string
	Paid        bool
	AccountID   int
	PlanID      string
	AmountTotal int64
	Currency    string
	Email       string
}

// Event is a verified webhook event.
type Event struct {
	ID       string
	Type     string
	Checkout *Checkout
}

// StripeGateway talks to Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway creates a gateway. An empty secret key yields a gateway
// whose calls fail with ErrNotConfigured.
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	g := &StripeGateway{webhookSecret: webhookSecret}
	if secretKey != "" {
		g.api = client.New(secretKey, nil)
	}
	return g
}

// CreateCheckout opens a one-off card payment for the plan.
func (g *StripeGateway) CreateCheckout(ctx context.Context, p CheckoutParams) (*Checkout, error) {
	if g.api == nil {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(p.Plan.Currency),
				UnitAmount: stripe.Int64(p.Plan.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(p.Plan.Name),
					Description: stripe.String(p.Plan.Description),
				},
			},
		}},
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(strconv.Itoa(p.AccountID)),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Description: stripe.String("AutoExamChecker - " + p.Plan.Name),
		},
	}
	if p.Email != "" {
		params.CustomerEmail = stripe.String(p.Email)
	}
	params.Context = ctx
	params.AddMetadata("userId", strconv.Itoa(p.AccountID))
	params.AddMetadata("plan", p.Plan.ID)

	cs, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return toCheckout(cs), nil
}

// GetCheckout retrieves a checkout session by id.
func (g *StripeGateway) GetCheckout(ctx context.Context, id string) (*Checkout, error) {
	if g.api == nil {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	cs, err := g.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return toCheckout(cs), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, ErrNotConfigured
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if out.Type == EventCheckoutCompleted {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Checkout = toCheckout(&cs)
	}
	return out, nil
}

func toCheckout(cs *stripe.CheckoutSession) *Checkout {
	c := &Checkout{
		ID:          cs.ID,
		URL:         cs.URL,
		Paid:        cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		PlanID:      cs.Metadata["plan"],
		AmountTotal: cs.AmountTotal,
		Currency:    string(cs.Currency),
		Email:       cs.CustomerEmail,
	}
	if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
		c.Email = cs.CustomerDetails.Email
	}
	if id, err := strconv.Atoi(cs.Metadata["userId"]); err == nil {
		c.AccountID = id
	}
	return c
}
