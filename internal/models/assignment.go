package models

import "time"

// ScheduleStatus represents lifecycle phases for rosters.
type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "DRAFT"
	ScheduleStatusPublished ScheduleStatus = "PUBLISHED"
	ScheduleStatusArchived  ScheduleStatus = "ARCHIVED"
)

// Schedule is a roster container for one venue and period.
type Schedule struct {
	ID        string         `db:"id" json:"id"`
	VenueID   string         `db:"venue_id" json:"venue_id"`
	Name      string         `db:"name" json:"name"`
	StartDate time.Time      `db:"start_date" json:"start_date"`
	EndDate   time.Time      `db:"end_date" json:"end_date"`
	Status    ScheduleStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ShiftAssignment places one employee into one shift on one date.
// HoursScheduled and CostEstimated are computed at creation and never
// mutated afterwards.
type ShiftAssignment struct {
	ID                string    `db:"id" json:"id"`
	ScheduleID        string    `db:"schedule_id" json:"schedule_id"`
	EmployeeID        string    `db:"employee_id" json:"employee_id"`
	ShiftDefinitionID string    `db:"shift_definition_id" json:"shift_definition_id"`
	Date              time.Time `db:"date" json:"date"`
	StartTime         string    `db:"start_time" json:"start_time"`
	EndTime           string    `db:"end_time" json:"end_time"`
	BreakMinutes      int       `db:"break_minutes" json:"break_minutes"`
	VenueID           string    `db:"venue_id" json:"venue_id"`
	HoursScheduled    float64   `db:"hours_scheduled" json:"hours_scheduled"`
	CostEstimated     float64   `db:"cost_estimated" json:"cost_estimated"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
