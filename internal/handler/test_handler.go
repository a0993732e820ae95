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

// TestHandler handles the account-facing exam endpoints.
type TestHandler struct {
	catalog  *service.CatalogService
	sessions *service.SessionService
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(catalog *service.CatalogService, sessions *service.SessionService) *TestHandler {
	return &TestHandler{catalog: catalog, sessions: sessions}
}

// Available godoc
// GET /api/v1/tests/available?classLevel=
// Lists the catalog without passing marks or question papers.
func (h *TestHandler) Available(c *gin.Context) {
	var q model.CatalogQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tests, err := h.catalog.ListPublic(c.Request.Context(), q.ClassLevel)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

// UserTests godoc
// GET /api/v1/tests/userTests
// Lists every exam with the caller's status and score, plus ledger totals.
func (h *TestHandler) UserTests(c *gin.Context) {
	tests, ledger, err := h.sessions.ListForAccount(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"tests":          tests,
		"testsPurchased": ledger.Purchased,
		"testsUsed":      ledger.Used,
		"availableTests": ledger.Available,
	})
}

// Start godoc
// POST /api/v1/tests/:id/start
func (h *TestHandler) Start(c *gin.Context) {
	examID, ok := parseID(c, "id")
	if !ok {
		return
	}

	test, session, err := h.sessions.Start(c.Request.Context(), middleware.AccountID(c), examID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test, "userTest": session})
}

// UploadAnswer godoc
// POST /api/v1/tests/:id/upload-answer (multipart, field answerPdf)
func (h *TestHandler) UploadAnswer(c *gin.Context) {
	examID, ok := parseID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("answerPdf")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	url, err := h.sessions.UploadAnswer(c.Request.Context(), middleware.AccountID(c), examID, file, header)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answerPdfUrl": url})
}

// Submit godoc
// POST /api/v1/tests/:id/submit
func (h *TestHandler) Submit(c *gin.Context) {
	examID, ok := parseID(c, "id")
	if !ok {
		return
	}

	session, err := h.sessions.Submit(c.Request.Context(), middleware.AccountID(c), examID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"userTest": session})
}

// State godoc
// GET /api/v1/tests/:id/state
// Returns remaining time for the caller's attempt.
func (h *TestHandler) State(c *gin.Context) {
	examID, ok := parseID(c, "id")
	if !ok {
		return
	}

	state, err := h.sessions.State(c.Request.Context(), middleware.AccountID(c), examID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}
