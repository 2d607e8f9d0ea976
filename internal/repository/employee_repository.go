package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/lavoro-hq/rota-api/internal/models"
)

const employeeColumns = `id, full_name, email, is_fixed_staff, contract_type, contract_hours_week, venue_id, skills, can_work_alone, can_handle_cash, hourly_rate_base, hourly_rate_extra, hourly_rate_holiday, hourly_rate_night, preferred_shift, available_weekdays, active, created_at, updated_at`

// EmployeeRepository provides database access for staff records.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository creates a new instance of EmployeeRepository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// FindByID returns one employee by identifier.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE id = $1 LIMIT 1`, employeeColumns)
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find employee by id: %w", err)
	}
	return &employee, nil
}

// ListActiveForVenue returns every active employee assignable to a venue.
// Employees without a venue binding float across all venues.
func (r *EmployeeRepository) ListActiveForVenue(ctx context.Context, venueID string) ([]models.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE active = TRUE AND (venue_id IS NULL OR venue_id = $1) ORDER BY id`, employeeColumns)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, venueID); err != nil {
		return nil, fmt.Errorf("list active employees for venue: %w", err)
	}
	return employees, nil
}

// List returns employees matching the filter with a total count.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	baseQuery := `FROM employees WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.VenueID != "" {
		conditions = append(conditions, fmt.Sprintf("(venue_id IS NULL OR venue_id = $%d)", len(args)+1))
		args = append(args, filter.VenueID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY full_name, id LIMIT %d OFFSET %d", employeeColumns, baseQuery, pageSize, offset)

	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	return employees, total, nil
}
