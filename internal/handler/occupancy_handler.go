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

type occupancyService interface {
	Records(ctx context.Context, auth, location string) ([]models.RoomOccupancyRecord, error)
	Grouped(ctx context.Context, auth, location string) ([]models.GroupedOccupancySlot, error)
	ChangeRoom(ctx context.Context, auth string, req dto.ChangeRoomRequest) ([]models.GroupedOccupancySlot, error)
	Students(ctx context.Context, auth string, req dto.StudentsRequest) ([]models.Student, error)
}

// OccupancyHandler exposes the room occupancy views.
type OccupancyHandler struct {
	service occupancyService
}

// NewOccupancyHandler constructs the handler.
func NewOccupancyHandler(service occupancyService) *OccupancyHandler {
	return &OccupancyHandler{service: service}
}

// Grouped godoc
// @Summary Room occupancy grouped by room and time slot
// @Tags Occupancy
// @Produce json
// @Param location query string false "Filter by room location"
// @Success 200 {object} response.Envelope
// @Router /occupancy [get]
func (h *OccupancyHandler) Grouped(c *gin.Context) {
	location := strings.TrimSpace(c.Query("location"))
	slots, err := h.service.Grouped(c.Request.Context(), authHeader(c), location)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// Records godoc
// @Summary Flat room occupancy records
// @Tags Occupancy
// @Produce json
// @Param location query string false "Filter by room location"
// @Success 200 {object} response.Envelope
// @Router /occupancy/records [get]
func (h *OccupancyHandler) Records(c *gin.Context) {
	location := strings.TrimSpace(c.Query("location"))
	records, err := h.service.Records(c.Request.Context(), authHeader(c), location)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// ChangeRoom godoc
// @Summary Reassign a course group to another room
// @Tags Occupancy
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /occupancy/change-room [patch]
func (h *OccupancyHandler) ChangeRoom(c *gin.Context) {
	var req dto.ChangeRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	slots, err := h.service.ChangeRoom(c.Request.Context(), authHeader(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// Students godoc
// @Summary Students sitting a course group's exam
// @Tags Occupancy
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /occupancy/students [post]
func (h *OccupancyHandler) Students(c *gin.Context) {
	var req dto.StudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	students, err := h.service.Students(c.Request.Context(), authHeader(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}
