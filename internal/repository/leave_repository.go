package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lavoro-hq/rota-api/internal/models"
)

// LeaveRepository provides database access for leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository creates a new instance of LeaveRepository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// ListApprovedOverlapping returns approved leave of the venue's employees
// overlapping the given period.
func (r *LeaveRepository) ListApprovedOverlapping(ctx context.Context, venueID string, from, to time.Time) ([]models.LeaveRequest, error) {
	const query = `SELECT l.id, l.employee_id, l.start_date, l.end_date, l.status, l.reason, l.created_at, l.updated_at
		FROM leave_requests l
		JOIN employees e ON e.id = l.employee_id
		WHERE l.status = $1
		  AND (e.venue_id IS NULL OR e.venue_id = $2)
		  AND l.start_date <= $4
		  AND l.end_date >= $3
		ORDER BY l.start_date, l.id`
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, models.LeaveStatusApproved, venueID, from, to); err != nil {
		return nil, fmt.Errorf("list approved leave requests: %w", err)
	}
	return leaves, nil
}
