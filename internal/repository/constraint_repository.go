package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lavoro-hq/rota-api/internal/models"
)

// ConstraintRepository provides database access for scheduling constraints.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository creates a new instance of ConstraintRepository.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// ListEmployeeConstraints returns every per-employee rule scoped to a venue.
// Venue-wide rules carry an empty employee id and apply to everyone.
func (r *ConstraintRepository) ListEmployeeConstraints(ctx context.Context, venueID string) ([]models.EmployeeConstraint, error) {
	const query = `SELECT id, employee_id, venue_id, constraint_type, config, valid_from, valid_to, priority, is_hard, created_at, updated_at FROM employee_constraints WHERE venue_id = $1 ORDER BY priority DESC, id`
	var constraints []models.EmployeeConstraint
	if err := r.db.SelectContext(ctx, &constraints, query, venueID); err != nil {
		return nil, fmt.Errorf("list employee constraints: %w", err)
	}
	return constraints, nil
}

// ListRelationshipConstraints returns every multi-employee rule of a venue.
func (r *ConstraintRepository) ListRelationshipConstraints(ctx context.Context, venueID string) ([]models.RelationshipConstraint, error) {
	const query = `SELECT id, venue_id, employee_ids, constraint_type, valid_from, valid_to, priority, is_hard, created_at, updated_at FROM relationship_constraints WHERE venue_id = $1 ORDER BY priority DESC, id`
	var constraints []models.RelationshipConstraint
	if err := r.db.SelectContext(ctx, &constraints, query, venueID); err != nil {
		return nil, fmt.Errorf("list relationship constraints: %w", err)
	}
	return constraints, nil
}
