package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/GandharvMahajan/AutoExamChecker/internal/notify"
	"github.com/GandharvMahajan/AutoExamChecker/internal/payment"
	"github.com/rs/zerolog"
)

// fakeGateway serves canned checkouts and events.
type fakeGateway struct {
	checkouts map[string]*payment.Checkout
	event     *payment.Event
	params    []payment.CheckoutParams
	failNew   bool
}

func (g *fakeGateway) CreateCheckout(_ context.Context, p payment.CheckoutParams) (*payment.Checkout, error) {
	if g.failNew {
		return nil, errors.New("stripe down")
	}
	g.params = append(g.params, p)
	return &payment.Checkout{ID: "cs_new", URL: "https://checkout.stripe.test/cs_new"}, nil
}

func (g *fakeGateway) GetCheckout(_ context.Context, id string) (*payment.Checkout, error) {
	c, ok := g.checkouts[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return c, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	if signature != "valid" {
		return nil, payment.ErrInvalidSignature
	}
	return g.event, nil
}

type recordingMailer struct {
	mu       sync.Mutex
	receipts []notify.Receipt
}

func (m *recordingMailer) SendReceipt(_ context.Context, r notify.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, r)
	return nil
}

func TestCreateCheckout(t *testing.T) {
	store := testStore(t)
	gw := &fakeGateway{}
	svc := NewPaymentService(store, gw, &recordingMailer{}, testConfig(t), zerolog.Nop())
	ctx := context.Background()
	a := seedAccount(t, store, "buyer@example.com", 0)

	if _, err := svc.CreateCheckout(ctx, a.ID, "2"); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("plan 2 err = %v, want ErrInvalidPlan", err)
	}

	c, err := svc.CreateCheckout(ctx, a.ID, "3")
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if c.ID != "cs_new" || len(gw.params) != 1 {
		t.Fatalf("checkout = %+v, params = %+v", c, gw.params)
	}
	p := gw.params[0]
	if p.AccountID != a.ID || p.Plan.ID != "3" || p.Email != "buyer@example.com" {
		t.Errorf("params = %+v", p)
	}

	gw.failNew = true
	if _, err := svc.CreateCheckout(ctx, a.ID, "1"); !errors.Is(err, ErrPaymentFailed) {
		t.Errorf("provider failure err = %v, want ErrPaymentFailed", err)
	}
}

func TestWebhookAndConfirmCreditOnce(t *testing.T) {
	store := testStore(t)
	a := seedAccount(t, store, "buyer@example.com", 0)
	paid := &payment.Checkout{ID: "cs_paid", Paid: true, AccountID: a.ID, PlanID: "3", AmountTotal: 207400, Currency: "inr"}
	gw := &fakeGateway{
		checkouts: map[string]*payment.Checkout{paid.ID: paid},
		event:     &payment.Event{ID: "evt_1", Type: payment.EventCheckoutCompleted, Checkout: paid},
	}
	mailer := &recordingMailer{}
	svc := NewPaymentService(store, gw, mailer, testConfig(t), zerolog.Nop())
	ctx := context.Background()

	if err := svc.HandleWebhook(ctx, []byte("{}"), "forged"); !errors.Is(err, ErrInvalidWebhook) {
		t.Fatalf("bad signature err = %v, want ErrInvalidWebhook", err)
	}

	// Stripe retries webhooks; both deliveries must credit once.
	for i := 0; i < 2; i++ {
		if err := svc.HandleWebhook(ctx, []byte("{}"), "valid"); err != nil {
			t.Fatalf("webhook delivery %d: %v", i+1, err)
		}
	}

	ledger, credited, err := svc.ConfirmCheckout(ctx, a.ID, paid.ID)
	if err != nil {
		t.Fatalf("ConfirmCheckout: %v", err)
	}
	if credited {
		t.Error("confirm credited a checkout the webhook already fulfilled")
	}
	if ledger.Purchased != 3 || ledger.Available != 3 {
		t.Errorf("ledger = %+v, want 3 purchased", ledger)
	}
	if len(mailer.receipts) != 1 || mailer.receipts[0].Credits != 3 || mailer.receipts[0].Currency != "INR" {
		t.Errorf("receipts = %+v", mailer.receipts)
	}
}

func TestConfirmCheckoutChecks(t *testing.T) {
	store := testStore(t)
	owner := seedAccount(t, store, "owner@example.com", 0)
	other := seedAccount(t, store, "other@example.com", 0)
	gw := &fakeGateway{checkouts: map[string]*payment.Checkout{
		"cs_unpaid": {ID: "cs_unpaid", Paid: false, AccountID: owner.ID, PlanID: "1"},
		"cs_paid":   {ID: "cs_paid", Paid: true, AccountID: owner.ID, PlanID: "1"},
	}}
	svc := NewPaymentService(store, gw, &recordingMailer{}, testConfig(t), zerolog.Nop())
	ctx := context.Background()

	if _, _, err := svc.ConfirmCheckout(ctx, owner.ID, "cs_unpaid"); !errors.Is(err, ErrPaymentNotCompleted) {
		t.Errorf("unpaid err = %v", err)
	}
	if _, _, err := svc.ConfirmCheckout(ctx, other.ID, "cs_paid"); !errors.Is(err, ErrCheckoutMismatch) {
		t.Errorf("foreign checkout err = %v", err)
	}
	if _, _, err := svc.ConfirmCheckout(ctx, owner.ID, "cs_missing"); !errors.Is(err, ErrPaymentFailed) {
		t.Errorf("missing checkout err = %v", err)
	}

	ledger, credited, err := svc.ConfirmCheckout(ctx, owner.ID, "cs_paid")
	if err != nil || !credited || ledger.Purchased != 1 {
		t.Errorf("confirm = %+v, %v, %v", ledger, credited, err)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	store := testStore(t)
	gw := &fakeGateway{event: &payment.Event{ID: "evt_2", Type: "payment_intent.created"}}
	svc := NewPaymentService(store, gw, &recordingMailer{}, testConfig(t), zerolog.Nop())

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "valid"); err != nil {
		t.Errorf("other event err = %v", err)
	}
}
