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

// AuthHandler handles account registration and authentication endpoints.
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register godoc
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	account, token, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"token": token, "user": account})
}

// Login godoc
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	account, token, err := h.accounts.Login(c.Request.Context(), req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token, "user": account})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the authenticated account with its credit counters.
func (h *AuthHandler) Me(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": account, "credits": account.Ledger()})
}

// SetupFirstAdmin godoc
// POST /api/v1/auth/setup-first-admin
// Promotes an existing account while no admin exists, gated by ADMIN_SETUP_KEY.
func (h *AuthHandler) SetupFirstAdmin(c *gin.Context) {
	var req model.SetupFirstAdminRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	account, err := h.accounts.SetupFirstAdmin(c.Request.Context(), req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": account})
}
