package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ContractType classifies employment agreements.
type ContractType string

const (
	ContractFullTime ContractType = "FULL_TIME"
	ContractPartTime ContractType = "PART_TIME"
	ContractExtra    ContractType = "EXTRA"
)

// Employee is an immutable staff snapshot used for one generation run.
type Employee struct {
	ID                string         `db:"id" json:"id"`
	FullName          string         `db:"full_name" json:"full_name"`
	Email             string         `db:"email" json:"email"`
	IsFixedStaff      bool           `db:"is_fixed_staff" json:"is_fixed_staff"`
	ContractType      ContractType   `db:"contract_type" json:"contract_type"`
	ContractHoursWeek float64        `db:"contract_hours_week" json:"contract_hours_week"`
	VenueID           *string        `db:"venue_id" json:"venue_id,omitempty"`
	Skills            types.JSONText `db:"skills" json:"skills"`
	CanWorkAlone      bool           `db:"can_work_alone" json:"can_work_alone"`
	CanHandleCash     bool           `db:"can_handle_cash" json:"can_handle_cash"`
	HourlyRateBase    float64        `db:"hourly_rate_base" json:"hourly_rate_base"`
	HourlyRateExtra   float64        `db:"hourly_rate_extra" json:"hourly_rate_extra"`
	HourlyRateHoliday float64        `db:"hourly_rate_holiday" json:"hourly_rate_holiday"`
	HourlyRateNight   float64        `db:"hourly_rate_night" json:"hourly_rate_night"`
	PreferredShift    *string        `db:"preferred_shift" json:"preferred_shift,omitempty"`
	AvailableWeekdays types.JSONText `db:"available_weekdays" json:"available_weekdays"`
	Active            bool           `db:"active" json:"active"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// SkillSet decodes the JSON skills column. Malformed payloads yield an empty set.
func (e Employee) SkillSet() []string {
	var skills []string
	_ = e.Skills.Unmarshal(&skills)
	return skills
}

// WeekdaySet decodes the JSON weekday column (0=Sunday .. 6=Saturday).
func (e Employee) WeekdaySet() []int {
	var days []int
	_ = e.AvailableWeekdays.Unmarshal(&days)
	return days
}

// EmployeeFilter captures listing options for employees.
type EmployeeFilter struct {
	Search   string
	VenueID  string
	Active   *bool
	Page     int
	PageSize int
}
