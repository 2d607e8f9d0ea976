package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavoro-hq/rota-api/internal/dto"
	"github.com/lavoro-hq/rota-api/internal/models"
	"github.com/lavoro-hq/rota-api/internal/service"
	appErrors "github.com/lavoro-hq/rota-api/pkg/errors"
)

type fakeGenerator struct {
	proposal    *dto.RosterProposalResponse
	savedID     string
	validation  *dto.ValidateScheduleResponse
	roster      *dto.RosterResponse
	err         error
	generateReq dto.GenerateRosterRequest
	saveReq     dto.SaveRosterRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req dto.GenerateRosterRequest) (*dto.RosterProposalResponse, error) {
	f.generateReq = req
	return f.proposal, f.err
}

func (f *fakeGenerator) Save(_ context.Context, req dto.SaveRosterRequest) (string, error) {
	f.saveReq = req
	return f.savedID, f.err
}

func (f *fakeGenerator) Validate(context.Context, string) (*dto.ValidateScheduleResponse, error) {
	return f.validation, f.err
}

func (f *fakeGenerator) GetRoster(context.Context, string) (*dto.RosterResponse, error) {
	return f.roster, f.err
}

type fakeExporter struct {
	created  *dto.ExportRosterResponse
	status   *dto.ExportRosterResponse
	download *service.RosterDownload
	err      error
	actorID  string
}

func (f *fakeExporter) CreateJob(_ context.Context, _ string, _ dto.ExportRosterRequest, actorID string) (*dto.ExportRosterResponse, error) {
	f.actorID = actorID
	return f.created, f.err
}

func (f *fakeExporter) GetStatus(context.Context, string) (*dto.ExportRosterResponse, error) {
	return f.status, f.err
}

func (f *fakeExporter) ResolveDownload(context.Context, string) (*service.RosterDownload, error) {
	return f.download, f.err
}

func newRosterRouter(generator *fakeGenerator, exporter *fakeExporter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &RosterHandler{generator: generator, exporter: exporter}
	r := gin.New()
	r.POST("/rosters/generate", h.Generate)
	r.POST("/rosters/save", h.Save)
	r.GET("/schedules/:id/roster", h.GetRoster)
	r.GET("/schedules/:id/validate", h.Validate)
	r.POST("/schedules/:id/export", h.Export)
	r.GET("/exports/jobs/:jobId", h.ExportStatus)
	return r
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRosterHandlerGenerate(t *testing.T) {
	generator := &fakeGenerator{proposal: &dto.RosterProposalResponse{ProposalID: "p1", ScheduleID: "sched-1", Success: true}}
	r := newRosterRouter(generator, &fakeExporter{})

	w := performJSON(t, r, http.MethodPost, "/rosters/generate", dto.GenerateRosterRequest{ScheduleID: "sched-1", BalanceHours: true})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sched-1", generator.generateReq.ScheduleID)
	assert.True(t, generator.generateReq.BalanceHours)

	var envelope struct {
		Data dto.RosterProposalResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "p1", envelope.Data.ProposalID)
}

func TestRosterHandlerGenerateBadPayload(t *testing.T) {
	r := newRosterRouter(&fakeGenerator{}, &fakeExporter{})

	req := httptest.NewRequest(http.MethodPost, "/rosters/generate", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}

func TestRosterHandlerGenerateServiceError(t *testing.T) {
	generator := &fakeGenerator{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "no active employees for this venue")}
	r := newRosterRouter(generator, &fakeExporter{})

	w := performJSON(t, r, http.MethodPost, "/rosters/generate", dto.GenerateRosterRequest{ScheduleID: "sched-1"})

	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestRosterHandlerSave(t *testing.T) {
	generator := &fakeGenerator{savedID: "sched-1"}
	r := newRosterRouter(generator, &fakeExporter{})

	w := performJSON(t, r, http.MethodPost, "/rosters/save", dto.SaveRosterRequest{ProposalID: "p1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "p1", generator.saveReq.ProposalID)
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "sched-1", envelope.Data["scheduleId"])
}

func TestRosterHandlerGetRoster(t *testing.T) {
	generator := &fakeGenerator{roster: &dto.RosterResponse{ScheduleID: "sched-1", Status: models.ScheduleStatusPublished}}
	r := newRosterRouter(generator, &fakeExporter{})

	w := performJSON(t, r, http.MethodGet, "/schedules/sched-1/roster", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRosterHandlerValidate(t *testing.T) {
	generator := &fakeGenerator{validation: &dto.ValidateScheduleResponse{ScheduleID: "sched-1", Valid: false}}
	r := newRosterRouter(generator, &fakeExporter{})

	w := performJSON(t, r, http.MethodGet, "/schedules/sched-1/validate", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.ValidateScheduleResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Valid)
}

func TestRosterHandlerExport(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	exporter := &fakeExporter{created: &dto.ExportRosterResponse{JobID: "job-1", Status: "QUEUED", ExpiresAt: &expires}}
	r := newRosterRouter(&fakeGenerator{}, exporter)

	w := performJSON(t, r, http.MethodPost, "/schedules/sched-1/export", dto.ExportRosterRequest{Format: "csv"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	var envelope struct {
		Data dto.ExportRosterResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "job-1", envelope.Data.JobID)
}

func TestRosterHandlerExportStatusNotFound(t *testing.T) {
	exporter := &fakeExporter{err: appErrors.Clone(appErrors.ErrNotFound, "export job not found")}
	r := newRosterRouter(&fakeGenerator{}, exporter)

	w := performJSON(t, r, http.MethodGet, "/exports/jobs/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
