package handler

import (
	"net/http"

	"github.com/GandharvMahajan/AutoExamChecker/internal/response"
	"github.com/GandharvMahajan/AutoExamChecker/internal/service"
	"github.com/gin-gonic/gin"
)

// DashboardHandler handles the admin stats endpoint.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetStats godoc
// GET /api/v1/admin/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	data, err := h.dashboardService.GetDashboardData(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}
