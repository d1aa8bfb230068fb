package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, auth, timetableID string) (*dto.DashboardSummary, error)
}

// DashboardHandler serves the landing-page summary.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Scheduling progress summary
// @Tags Dashboard
// @Produce json
// @Param timetableId query string false "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), authHeader(c), strings.TrimSpace(c.Query("timetableId")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}
