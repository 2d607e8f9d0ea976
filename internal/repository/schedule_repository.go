package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lavoro-hq/rota-api/internal/models"
)

// ScheduleRepository provides database access for roster schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new instance of ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// BeginTxx opens a transaction on the underlying database.
func (r *ScheduleRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// FindByID returns one schedule by identifier.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, venue_id, name, start_date, end_date, status, created_at, updated_at FROM schedules WHERE id = $1 LIMIT 1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule by id: %w", err)
	}
	return &schedule, nil
}

// ListByVenue returns the schedules of one venue ordered by period start.
func (r *ScheduleRepository) ListByVenue(ctx context.Context, venueID string) ([]models.Schedule, error) {
	const query = `SELECT id, venue_id, name, start_date, end_date, status, created_at, updated_at FROM schedules WHERE venue_id = $1 ORDER BY start_date DESC, id`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, venueID); err != nil {
		return nil, fmt.Errorf("list schedules by venue: %w", err)
	}
	return schedules, nil
}

// Create inserts a new draft schedule.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusDraft
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, venue_id, name, start_date, end_date, status, created_at, updated_at) VALUES (:id, :venue_id, :name, :start_date, :end_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// UpdateStatus advances the schedule lifecycle. It accepts any sqlx
// execution context so it can join the roster save transaction.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus) error {
	if exec == nil {
		exec = r.db
	}
	const query = `UPDATE schedules SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
