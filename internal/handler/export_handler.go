package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-console-api/internal/service"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
	"github.com/noah-isme/exam-console-api/pkg/response"
)

type exportService interface {
	Enabled() bool
	Timetable(ctx context.Context, auth, timetableID, format string) (*service.ExportFile, error)
	Occupancy(ctx context.Context, auth, location, format string) (*service.ExportFile, error)
}

// ExportHandler serves timetable and occupancy downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Timetable godoc
// @Summary Export the scheduled timetable
// @Tags Exports
// @Produce text/csv
// @Param timetableId query string false "Timetable ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /exports/timetable [get]
func (h *ExportHandler) Timetable(c *gin.Context) {
	if !h.service.Enabled() {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	file, err := h.service.Timetable(c.Request.Context(), authHeader(c),
		strings.TrimSpace(c.Query("timetableId")), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// Occupancy godoc
// @Summary Export the room occupancy view
// @Tags Exports
// @Produce text/csv
// @Param location query string false "Filter by room location"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /exports/occupancy [get]
func (h *ExportHandler) Occupancy(c *gin.Context) {
	if !h.service.Enabled() {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	file, err := h.service.Occupancy(c.Request.Context(), authHeader(c),
		strings.TrimSpace(c.Query("location")), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

func serveFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(200, file.ContentType, file.Content)
}
