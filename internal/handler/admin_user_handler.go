package handler

import (
	"net/http"

	"github.com/GandharvMahajan/AutoExamChecker/internal/middleware"
	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/response"
	"github.com/GandharvMahajan/AutoExamChecker/internal/service"
	"github.com/GandharvMahajan/AutoExamChecker/internal/validator"
	"github.com/gin-gonic/gin"
)

// AdminUserHandler handles account management endpoints for admins.
type AdminUserHandler struct {
	accounts *service.AccountService
	ledger   *service.LedgerService
}

// NewAdminUserHandler creates a new AdminUserHandler.
func NewAdminUserHandler(accounts *service.AccountService, ledger *service.LedgerService) *AdminUserHandler {
	return &AdminUserHandler{accounts: accounts, ledger: ledger}
}

// ListUsers godoc
// GET /api/v1/admin/users
func (h *AdminUserHandler) ListUsers(c *gin.Context) {
	users, err := h.accounts.List(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users})
}

// GetUser godoc
// GET /api/v1/admin/users/:id
func (h *AdminUserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.accounts.Detail(c.Request.Context(), id)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// ToggleAdmin godoc
// PATCH /api/v1/admin/users/:id/toggle-admin
func (h *AdminUserHandler) ToggleAdmin(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.accounts.ToggleAdmin(c.Request.Context(), middleware.AccountID(c), id)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// CorrectCredits godoc
// PATCH /api/v1/admin/users/:id/credits
// Overwrites testsPurchased; it may not drop below testsUsed.
func (h *AdminUserHandler) CorrectCredits(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.CorrectCreditsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.ledger.Correct(c.Request.Context(), middleware.AccountID(c), id, *req.CreditsPurchased)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user, "credits": user.Ledger()})
}
