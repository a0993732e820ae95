package handler

import (
	"io"
	"net/http"

	"github.com/GandharvMahajan/AutoExamChecker/internal/middleware"
	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/payment"
	"github.com/GandharvMahajan/AutoExamChecker/internal/response"
	"github.com/GandharvMahajan/AutoExamChecker/internal/service"
	"github.com/GandharvMahajan/AutoExamChecker/internal/validator"
	"github.com/gin-gonic/gin"
)

// maxWebhookBytes matches Stripe's own payload ceiling.
const maxWebhookBytes = 65536

// PaymentHandler handles plan listing, checkout and fulfilment endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
	ledger   *service.LedgerService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService, ledger *service.LedgerService) *PaymentHandler {
	return &PaymentHandler{payments: payments, ledger: ledger}
}

type planView struct {
	payment.Plan
	Price string `json:"price"`
}

// Plans godoc
// GET /api/v1/payment/plans
func (h *PaymentHandler) Plans(c *gin.Context) {
	plans := payment.Plans()
	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, planView{Plan: p, Price: p.DisplayPrice()})
	}
	response.Success(c, http.StatusOK, gin.H{"plans": views})
}

// CreateCheckoutSession godoc
// POST /api/v1/payment/create-checkout-session
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req model.CheckoutRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	checkout, err := h.payments.CreateCheckout(c.Request.Context(), middleware.AccountID(c), req.Plan)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"checkoutUrl": checkout.URL, "sessionId": checkout.ID})
}

// Webhook godoc
// POST /api/v1/payment/webhook
// Reads the raw body; the Stripe-Signature header is verified against it.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"received": true})
}

// PaymentSuccess godoc
// GET /api/v1/payment/payment-success?session_id=
// Confirms a paid checkout with Stripe and credits it if the webhook has not.
func (h *PaymentHandler) PaymentSuccess(c *gin.Context) {
	checkoutID := c.Query("session_id")
	if checkoutID == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"session_id": "session_id is required"})
		return
	}

	ledger, credited, err := h.payments.ConfirmCheckout(c.Request.Context(), middleware.AccountID(c), checkoutID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"credited":       credited,
		"testsPurchased": ledger.Purchased,
		"testsUsed":      ledger.Used,
		"availableTests": ledger.Available,
	})
}

// Credits godoc
// GET /api/v1/payment/user/credits
func (h *PaymentHandler) Credits(c *gin.Context) {
	ledger, err := h.ledger.Available(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, ledger)
}
