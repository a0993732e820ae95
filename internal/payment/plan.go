// Package payment defines the credit plans and the Stripe Checkout gateway.
package payment

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Plan is a purchasable bundle of exam credits. Amount is in minor units.
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Credits     int    `json:"credits"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// DisplayPrice renders Amount in major units, e.g. "829.00".
func (p Plan) DisplayPrice() string {
	return decimal.New(p.Amount, -2).StringFixed(2)
}

var plans = map[string]Plan{
	"1": {ID: "1", Name: "Basic Plan", Description: "1 Test Paper Analysis", Credits: 1, Amount: 82900, Currency: "inr"},
	"3": {ID: "3", Name: "Standard Plan", Description: "3 Test Paper Analyses", Credits: 3, Amount: 207400, Currency: "inr"},
	"6": {ID: "6", Name: "Premium Plan", Description: "6 Test Paper Analyses", Credits: 6, Amount: 331800, Currency: "inr"},
}

// LookupPlan returns the plan with the given id.
func LookupPlan(id string) (Plan, bool) {
	p, ok := plans[id]
	return p, ok
}

// Plans returns every plan ordered by credit count.
func Plans() []Plan {
	out := make([]Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Credits < out[j].Credits })
	return out
}
