package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lavoro-hq/rota-api/internal/dto"
	"github.com/lavoro-hq/rota-api/internal/service"
	appErrors "github.com/lavoro-hq/rota-api/pkg/errors"
	"github.com/lavoro-hq/rota-api/pkg/response"
)

type rosterGenerator interface {
	Generate(ctx context.Context, req dto.GenerateRosterRequest) (*dto.RosterProposalResponse, error)
	Save(ctx context.Context, req dto.SaveRosterRequest) (string, error)
	Validate(ctx context.Context, scheduleID string) (*dto.ValidateScheduleResponse, error)
	GetRoster(ctx context.Context, scheduleID string) (*dto.RosterResponse, error)
}

type rosterExporter interface {
	CreateJob(ctx context.Context, scheduleID string, req dto.ExportRosterRequest, actorID string) (*dto.ExportRosterResponse, error)
	GetStatus(ctx context.Context, jobID string) (*dto.ExportRosterResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.RosterDownload, error)
}

// RosterHandler exposes roster generation and export endpoints.
type RosterHandler struct {
	generator rosterGenerator
	exporter  rosterExporter
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(generator *service.RosterGeneratorService, exporter *service.RosterExportService) *RosterHandler {
	return &RosterHandler{generator: generator, exporter: exporter}
}

// Generate godoc
// @Summary Generate roster proposal
// @Description Runs the assignment engine for the schedule's venue and period. The proposal is held in memory until saved or expired.
// @Tags Rosters
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRosterRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /rosters/generate [post]
func (h *RosterHandler) Generate(c *gin.Context) {
	var req dto.GenerateRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Save roster proposal
// @Description Persists a previously generated proposal and publishes its schedule.
// @Tags Rosters
// @Accept json
// @Produce json
// @Param payload body dto.SaveRosterRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rosters/save [post]
func (h *RosterHandler) Save(c *gin.Context) {
	var req dto.SaveRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	id, err := h.generator.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"scheduleId": id})
}

// GetRoster godoc
// @Summary Get persisted roster
// @Tags Rosters
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/roster [get]
func (h *RosterHandler) GetRoster(c *gin.Context) {
	result, err := h.generator.GetRoster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Validate godoc
// @Summary Validate persisted roster
// @Description Re-checks a saved roster for understaffed shifts.
// @Tags Rosters
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/validate [get]
func (h *RosterHandler) Validate(c *gin.Context) {
	result, err := h.generator.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Queue roster export
// @Description Queues a CSV or PDF rendering of the persisted roster.
// @Tags Rosters
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.ExportRosterRequest true "Export payload"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/export [post]
func (h *RosterHandler) Export(c *gin.Context) {
	var req dto.ExportRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	result, err := h.exporter.CreateJob(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}

// ExportStatus godoc
// @Summary Get export job status
// @Tags Rosters
// @Produce json
// @Param jobId path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/jobs/{jobId} [get]
func (h *RosterHandler) ExportStatus(c *gin.Context) {
	result, err := h.exporter.GetStatus(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download exported roster file
// @Tags Rosters
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *RosterHandler) Download(c *gin.Context) {
	download, err := h.exporter.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	contentType := "text/csv"
	if download.Format == "pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Content-Type", contentType)
	c.File(download.File.Name())
}
