package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lavoro-hq/rota-api/internal/dto"
	"github.com/lavoro-hq/rota-api/internal/models"
	"github.com/lavoro-hq/rota-api/internal/repository"
	appErrors "github.com/lavoro-hq/rota-api/pkg/errors"
	"github.com/lavoro-hq/rota-api/pkg/export"
	"github.com/lavoro-hq/rota-api/pkg/jobs"
	"github.com/lavoro-hq/rota-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// RosterExportConfig tunes export behaviour.
type RosterExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	MaxRetries      int
}

// RosterDownload aggregates resolved download data.
type RosterDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// RosterExportService turns persisted rosters into downloadable CSV or PDF
// files through a background queue.
type RosterExportService struct {
	jobsRepo    exportJobStore
	schedules   scheduleReader
	assignments assignmentStore
	employees   employeeLister
	definitions shiftDefinitionLister
	queue       jobDispatcher
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         RosterExportConfig
}

// NewRosterExportService constructs the export service.
func NewRosterExportService(
	jobsRepo exportJobStore,
	schedules scheduleReader,
	assignments assignmentStore,
	employees employeeLister,
	definitions shiftDefinitionLister,
	queue jobDispatcher,
	store fileStorage,
	signer *storage.SignedURLSigner,
	logger *zap.Logger,
	cfg RosterExportConfig,
) *RosterExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &RosterExportService{
		jobsRepo:    jobsRepo,
		schedules:   schedules,
		assignments: assignments,
		employees:   employees,
		definitions: definitions,
		queue:       queue,
		storage:     store,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		signer:      signer,
		logger:      logger,
		cfg:         cfg,
	}
}

// CreateJob persists an export job for the schedule and enqueues processing.
func (s *RosterExportService) CreateJob(ctx context.Context, scheduleID string, req dto.ExportRosterRequest, actorID string) (*dto.ExportRosterResponse, error) {
	format := models.ExportFormat(strings.ToLower(req.Format))
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	if _, err := s.schedules.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	job := &models.ExportJob{
		ScheduleID: scheduleID,
		Format:     format,
		Status:     models.ExportStatusQueued,
		CreatedBy:  actorID,
	}
	if err := s.jobsRepo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(format)}); err != nil {
		failed := models.ExportStatusFailed
		msg := "failed to enqueue job"
		progress := 100
		now := time.Now().UTC()
		_ = s.jobsRepo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &failed,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	return &dto.ExportRosterResponse{JobID: job.ID, Status: string(job.Status)}, nil
}

// GetStatus exposes job metadata to clients.
func (s *RosterExportService) GetStatus(ctx context.Context, jobID string) (*dto.ExportRosterResponse, error) {
	job, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	resp := &dto.ExportRosterResponse{JobID: job.ID, Status: string(job.Status)}
	if job.ResultURL != nil {
		resp.DownloadURL = *job.ResultURL
	}
	return resp, nil
}

// ResolveDownload validates the token and opens the stored file.
func (s *RosterExportService) ResolveDownload(ctx context.Context, token string) (*RosterDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &RosterDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Generate renders the roster and stores the resulting file, returning the
// signed download URL.
func (s *RosterExportService) Generate(ctx context.Context, job *models.ExportJob) (string, error) {
	schedule, err := s.schedules.FindByID(ctx, job.ScheduleID)
	if err != nil {
		return "", fmt.Errorf("load schedule: %w", err)
	}
	assignments, err := s.assignments.ListBySchedule(ctx, job.ScheduleID)
	if err != nil {
		return "", fmt.Errorf("load assignments: %w", err)
	}
	employees, err := s.employees.ListActiveForVenue(ctx, schedule.VenueID)
	if err != nil {
		return "", fmt.Errorf("load employees: %w", err)
	}
	definitions, err := s.definitions.ListActiveByVenue(ctx, schedule.VenueID)
	if err != nil {
		return "", fmt.Errorf("load shift definitions: %w", err)
	}

	dataset := buildRosterDataset(assignments, employees, definitions)
	title := fmt.Sprintf("Roster %s", schedule.Name)

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("roster_%s_%s.%s", sanitizeFilename(schedule.Name), time.Now().UTC().Format("20060102_150405"), job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", err
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token), nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *RosterExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.jobsRepo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued export jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Format)}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending export job", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup boots a goroutine that purges expired export files.
func (s *RosterExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *RosterExportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	finished, err := s.jobsRepo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Sugar().Warnw("export cleanup list failed", "error", err)
		return
	}
	for _, job := range finished {
		if job.ResultURL == nil {
			continue
		}
		parts := strings.Split(*job.ResultURL, "/")
		token := parts[len(parts)-1]
		_, relPath, _, err := s.signer.Parse(token, true)
		if err != nil {
			continue
		}
		if err := s.storage.Delete(relPath); err != nil {
			s.logger.Sugar().Warnw("export cleanup delete failed", "job_id", job.ID, "error", err)
		}
	}
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("export filesystem cleanup failed", "error", err)
	}
}

// buildRosterDataset flattens assignments into a tabular export, one row per
// placement ordered by date, shift and employee.
func buildRosterDataset(
	assignments []models.ShiftAssignment,
	employees []models.Employee,
	definitions []models.ShiftDefinition,
) export.Dataset {
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.FullName
	}
	shiftNames := make(map[string]string, len(definitions))
	for _, d := range definitions {
		shiftNames[d.ID] = d.Name
	}

	headers := []string{"Date", "Shift", "Employee", "Start", "End", "Break (min)", "Hours", "Cost"}
	rows := make([]map[string]string, 0, len(assignments))
	for _, a := range assignments {
		employee := names[a.EmployeeID]
		if employee == "" {
			employee = a.EmployeeID
		}
		shift := shiftNames[a.ShiftDefinitionID]
		if shift == "" {
			shift = a.ShiftDefinitionID
		}
		rows = append(rows, map[string]string{
			"Date":        a.Date.Format("2006-01-02"),
			"Shift":       shift,
			"Employee":    employee,
			"Start":       a.StartTime,
			"End":         a.EndTime,
			"Break (min)": fmt.Sprintf("%d", a.BreakMinutes),
			"Hours":       fmt.Sprintf("%.2f", a.HoursScheduled),
			"Cost":        fmt.Sprintf("%.2f", a.CostEstimated),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

// RosterExportWorker bridges queue jobs to the export service.
type RosterExportWorker struct {
	repo       exportJobStore
	service    *RosterExportService
	logger     *zap.Logger
	maxRetries int
}

// NewRosterExportWorker constructs a worker.
func NewRosterExportWorker(repo exportJobStore, service *RosterExportService, maxRetries int, logger *zap.Logger) *RosterExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RosterExportWorker{repo: repo, service: service, logger: logger, maxRetries: maxRetries}
}

// Handle processes one queued export job.
func (w *RosterExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}

	url, err := w.service.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.ExportStatusFailed
			progress = 100
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark export job failed", "job_id", job.ID, "error", updateErr)
			}
		} else {
			queued := models.ExportStatusQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark export job queued", "job_id", job.ID, "error", updateErr)
			}
		}
		return err
	}

	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark export job finished", "job_id", job.ID, "error", err)
		return err
	}
	return nil
}
