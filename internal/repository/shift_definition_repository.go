package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lavoro-hq/rota-api/internal/models"
)

const shiftDefinitionColumns = `id, venue_id, name, code, color, start_time, end_time, break_minutes, min_staff, max_staff, required_skills, rate_multiplier, position, active, created_at, updated_at`

// ShiftDefinitionRepository provides database access for shift templates.
type ShiftDefinitionRepository struct {
	db *sqlx.DB
}

// NewShiftDefinitionRepository creates a new instance of ShiftDefinitionRepository.
func NewShiftDefinitionRepository(db *sqlx.DB) *ShiftDefinitionRepository {
	return &ShiftDefinitionRepository{db: db}
}

// FindByID returns one shift definition by identifier.
func (r *ShiftDefinitionRepository) FindByID(ctx context.Context, id string) (*models.ShiftDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_definitions WHERE id = $1 LIMIT 1`, shiftDefinitionColumns)
	var def models.ShiftDefinition
	if err := r.db.GetContext(ctx, &def, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find shift definition by id: %w", err)
	}
	return &def, nil
}

// ListActiveByVenue returns every active shift template of a venue ordered
// by position descending so higher priority shifts come first.
func (r *ShiftDefinitionRepository) ListActiveByVenue(ctx context.Context, venueID string) ([]models.ShiftDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_definitions WHERE venue_id = $1 AND active = TRUE ORDER BY position DESC, id`, shiftDefinitionColumns)
	var defs []models.ShiftDefinition
	if err := r.db.SelectContext(ctx, &defs, query, venueID); err != nil {
		return nil, fmt.Errorf("list shift definitions by venue: %w", err)
	}
	return defs, nil
}
