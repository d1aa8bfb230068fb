package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
	"github.com/noah-isme/exam-console-api/pkg/response"
)

type importService interface {
	Create(auth, term, fileName string, file io.Reader) (models.ImportRun, error)
	Status(id string) (models.ImportRun, error)
	Subscribe(id string) (<-chan models.ImportEvent, func(), error)
}

// ImportHandler accepts bulk exam uploads and reports their progress.
type ImportHandler struct {
	service importService
}

// NewImportHandler constructs the handler.
func NewImportHandler(service importService) *ImportHandler {
	return &ImportHandler{service: service}
}

// Create godoc
// @Summary Start a bulk exam import
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param term formData string true "Academic term"
// @Param file formData file true "Import file"
// @Success 202 {object} response.Envelope
// @Router /imports [post]
func (h *ImportHandler) Create(c *gin.Context) {
	term := strings.TrimSpace(c.PostForm("term"))
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "open upload"))
		return
	}
	defer file.Close()

	run, err := h.service.Create(authHeader(c), term, fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.ImportCreated{RunID: run.ID})
}

// Status godoc
// @Summary Current state of an import run
// @Tags Imports
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /imports/{id} [get]
func (h *ImportHandler) Status(c *gin.Context) {
	run, err := h.service.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run)
}

// Events godoc
// @Summary Live import progress as server-sent events
// @Tags Imports
// @Produce text/event-stream
// @Param id path string true "Run ID"
// @Success 200
// @Router /imports/{id}/events [get]
func (h *ImportHandler) Events(c *gin.Context) {
	events, cancel, err := h.service.Subscribe(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := c.Writer.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
