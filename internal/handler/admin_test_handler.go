package handler

import (
	"net/http"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/response"
	"github.com/GandharvMahajan/AutoExamChecker/internal/service"
	"github.com/GandharvMahajan/AutoExamChecker/internal/validator"
	"github.com/gin-gonic/gin"
)

// AdminTestHandler handles exam catalog management endpoints.
type AdminTestHandler struct {
	catalog *service.CatalogService
}

// NewAdminTestHandler creates a new AdminTestHandler.
func NewAdminTestHandler(catalog *service.CatalogService) *AdminTestHandler {
	return &AdminTestHandler{catalog: catalog}
}

// ListTests godoc
// GET /api/v1/admin/tests
func (h *AdminTestHandler) ListTests(c *gin.Context) {
	tests, err := h.catalog.List(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

// GetTest godoc
// GET /api/v1/admin/tests/:id
func (h *AdminTestHandler) GetTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	test, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// CreateTest godoc
// POST /api/v1/admin/tests
func (h *AdminTestHandler) CreateTest(c *gin.Context) {
	var req model.ExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.catalog.Create(c.Request.Context(), req)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"test": test})
}

// UpdateTest godoc
// PUT /api/v1/admin/tests/:id
func (h *AdminTestHandler) UpdateTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.ExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.catalog.Update(c.Request.Context(), id, req)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// DeleteTest godoc
// DELETE /api/v1/admin/tests/:id
// Rejected with 409 while sessions reference the exam.
func (h *AdminTestHandler) DeleteTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Test deleted successfully"})
}

// UploadQuestionPaper godoc
// POST /api/v1/admin/tests/:id/question-paper (multipart, field questionPdf)
func (h *AdminTestHandler) UploadQuestionPaper(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("questionPdf")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	test, err := h.catalog.UploadQuestionPaper(c.Request.Context(), id, file, header)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test": test})
}
