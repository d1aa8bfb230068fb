package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
	"github.com/noah-isme/exam-console-api/pkg/response"
)

type placementService interface {
	CreateSession(ctx context.Context, auth string, req dto.CreateSessionRequest) (*dto.SessionView, error)
	View(sessionID string) (*dto.SessionView, error)
	FilterPool(sessionID, term string) ([]models.UnscheduledCourseEntry, error)
	Drop(ctx context.Context, auth, sessionID string, req dto.DropRequest) (*dto.DropOutcome, error)
	ChooseSlot(sessionID string, req dto.ChooseSlotRequest) (*dto.SessionView, error)
	Confirm(ctx context.Context, auth, sessionID string) (*dto.SessionView, error)
	Cancel(sessionID string) (*dto.SessionView, error)
	RemoveExam(ctx context.Context, auth, sessionID string, req dto.RemoveExamRequest) (*dto.SessionView, error)
	Reload(ctx context.Context, auth, sessionID string) (*dto.SessionView, error)
	Close(sessionID string)
}

// SchedulingHandler exposes the timetable editing sessions over HTTP.
type SchedulingHandler struct {
	service placementService
}

// NewSchedulingHandler constructs the handler.
func NewSchedulingHandler(service placementService) *SchedulingHandler {
	return &SchedulingHandler{service: service}
}

// CreateSession godoc
// @Summary Open a timetable editing session
// @Tags Scheduling
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SchedulingHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	view, err := h.service.CreateSession(c.Request.Context(), authHeader(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// View godoc
// @Summary Current session state
// @Tags Scheduling
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SchedulingHandler) View(c *gin.Context) {
	view, err := h.service.View(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// FilterPool godoc
// @Summary Filter the unscheduled course pool
// @Tags Scheduling
// @Produce json
// @Param id path string true "Session ID"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/pool [get]
func (h *SchedulingHandler) FilterPool(c *gin.Context) {
	term := strings.TrimSpace(c.Query("search"))
	entries, err := h.service.FilterPool(c.Param("id"), term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Drop godoc
// @Summary Drop a dragged course or group onto a timetable cell
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/drop [post]
func (h *SchedulingHandler) Drop(c *gin.Context) {
	var req dto.DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	outcome, err := h.service.Drop(c.Request.Context(), authHeader(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome)
}

// ChooseSlot godoc
// @Summary Pick a suggested slot for the pending conflict
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/choose-slot [post]
func (h *SchedulingHandler) ChooseSlot(c *gin.Context) {
	var req dto.ChooseSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	view, err := h.service.ChooseSlot(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Confirm godoc
// @Summary Confirm placement despite the reported conflict
// @Tags Scheduling
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/confirm [post]
func (h *SchedulingHandler) Confirm(c *gin.Context) {
	view, err := h.service.Confirm(c.Request.Context(), authHeader(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Cancel godoc
// @Summary Abandon the pending conflict
// @Tags Scheduling
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/cancel [post]
func (h *SchedulingHandler) Cancel(c *gin.Context) {
	view, err := h.service.Cancel(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// RemoveExam godoc
// @Summary Remove a placed exam back into the pool
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/remove-exam [post]
func (h *SchedulingHandler) RemoveExam(c *gin.Context) {
	var req dto.RemoveExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	view, err := h.service.RemoveExam(c.Request.Context(), authHeader(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Reload godoc
// @Summary Refresh the session from the scheduler backend
// @Tags Scheduling
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/reload [post]
func (h *SchedulingHandler) Reload(c *gin.Context) {
	view, err := h.service.Reload(c.Request.Context(), authHeader(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Close godoc
// @Summary Close an editing session
// @Tags Scheduling
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *SchedulingHandler) Close(c *gin.Context) {
	h.service.Close(c.Param("id"))
	response.NoContent(c)
}
