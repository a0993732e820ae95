package payment

import (
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedPayload(t *testing.T, payload string) *webhook.SignedPayload {
	t.Helper()
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testWebhookSecret,
	})
}

func TestParseWebhookCheckoutCompleted(t *testing.T) {
	g := NewStripeGateway("", testWebhookSecret)
	sp := signedPayload(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"payment_status": "paid",
			"amount_total": 207400,
			"currency": "inr",
			"customer_details": {"email": "buyer@example.com"},
			"metadata": {"userId": "7", "plan": "3"}
		}}
	}`)

	ev, err := g.ParseWebhook(sp.Payload, sp.Header)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.Type != EventCheckoutCompleted || ev.Checkout == nil {
		t.Fatalf("event = %+v", ev)
	}

	c := ev.Checkout
	if c.ID != "cs_test_1" || !c.Paid || c.AccountID != 7 || c.PlanID != "3" {
		t.Errorf("checkout = %+v", c)
	}
	if c.AmountTotal != 207400 || c.Currency != "inr" || c.Email != "buyer@example.com" {
		t.Errorf("checkout amounts/email = %+v", c)
	}
}

func TestParseWebhookOtherEvent(t *testing.T) {
	g := NewStripeGateway("", testWebhookSecret)
	sp := signedPayload(t, `{"id":"evt_2","object":"event","type":"payment_intent.created","data":{"object":{}}}`)

	ev, err := g.ParseWebhook(sp.Payload, sp.Header)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.Checkout != nil {
		t.Errorf("unexpected checkout on %s", ev.Type)
	}
}

func TestParseWebhookBadSignature(t *testing.T) {
	g := NewStripeGateway("", testWebhookSecret)
	sp := signedPayload(t, `{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	_, err := g.ParseWebhook(sp.Payload, "t=1,v1=deadbeef")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("err = %v, want ErrInvalidSignature", err)
	}
}
