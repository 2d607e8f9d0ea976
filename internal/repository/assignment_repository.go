package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lavoro-hq/rota-api/internal/models"
)

const assignmentColumns = `id, schedule_id, employee_id, shift_definition_id, date, start_time, end_time, break_minutes, venue_id, hours_scheduled, cost_estimated, created_at`

// AssignmentRepository provides database access for shift assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ReplaceForSchedule removes every assignment of the schedule and inserts
// the provided set inside the caller's transaction.
func (r *AssignmentRepository) ReplaceForSchedule(ctx context.Context, tx *sqlx.Tx, scheduleID string, assignments []models.ShiftAssignment) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM shift_assignments WHERE schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("clear assignments for schedule: %w", err)
	}

	const insert = `INSERT INTO shift_assignments (id, schedule_id, employee_id, shift_definition_id, date, start_time, end_time, break_minutes, venue_id, hours_scheduled, cost_estimated, created_at)
		VALUES (:id, :schedule_id, :employee_id, :shift_definition_id, :date, :start_time, :end_time, :break_minutes, :venue_id, :hours_scheduled, :cost_estimated, :created_at)`

	now := time.Now().UTC()
	for i := range assignments {
		if assignments[i].ID == "" {
			assignments[i].ID = uuid.NewString()
		}
		if assignments[i].CreatedAt.IsZero() {
			assignments[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insert, assignments[i]); err != nil {
			return fmt.Errorf("insert assignment %s: %w", assignments[i].ID, err)
		}
	}
	return nil
}

// ListBySchedule returns the persisted roster ordered by date and shift.
func (r *AssignmentRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ShiftAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_assignments WHERE schedule_id = $1 ORDER BY date, shift_definition_id, employee_id`, assignmentColumns)
	var assignments []models.ShiftAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list assignments by schedule: %w", err)
	}
	return assignments, nil
}

// ListByEmployeeAndRange returns an employee's assignments within a period.
func (r *AssignmentRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]models.ShiftAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_assignments WHERE employee_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date, shift_definition_id`, assignmentColumns)
	var assignments []models.ShiftAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("list assignments by employee: %w", err)
	}
	return assignments, nil
}
