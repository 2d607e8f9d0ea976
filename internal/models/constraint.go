package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ConstraintType enumerates per-employee scheduling rules.
type ConstraintType string

const (
	ConstraintAvailability    ConstraintType = "AVAILABILITY"
	ConstraintBlockedDay      ConstraintType = "BLOCKED_DAY"
	ConstraintMaxHours        ConstraintType = "MAX_HOURS"
	ConstraintMinRest         ConstraintType = "MIN_REST"
	ConstraintPreferredShift  ConstraintType = "PREFERRED_SHIFT"
	ConstraintConsecutiveDays ConstraintType = "CONSECUTIVE_DAYS"
	ConstraintSkillRequired   ConstraintType = "SKILL_REQUIRED"
)

// RelationshipType enumerates rules spanning multiple employees.
type RelationshipType string

const (
	RelationshipNeverTogether  RelationshipType = "NEVER_TOGETHER"
	RelationshipAlwaysTogether RelationshipType = "ALWAYS_TOGETHER"
	RelationshipSameDayOff     RelationshipType = "SAME_DAY_OFF"
)

// PreferenceKind qualifies a PREFERRED_SHIFT constraint.
type PreferenceKind string

const (
	PreferencePrefer PreferenceKind = "PREFER"
	PreferenceAvoid  PreferenceKind = "AVOID"
)

// Engine defaults applied when constraint payloads omit a field.
const (
	DefaultMaxWeeklyHours    = 40.0
	DefaultMaxConsecutive    = 6
	DefaultHourlyRate        = 10.0
	DefaultContractHoursWeek = 40.0
	DefaultRateMultiplier    = 1.0
	DefaultMaxStaffSlack     = 2
)

// EmployeeConstraint is a per-employee (or venue-wide) scheduling rule.
// Config carries the type-specific payload as JSON; decode helpers fill
// defaults so a partially specified rule never fails a run.
type EmployeeConstraint struct {
	ID         string         `db:"id" json:"id"`
	EmployeeID string         `db:"employee_id" json:"employee_id"`
	VenueID    string         `db:"venue_id" json:"venue_id"`
	Type       ConstraintType `db:"constraint_type" json:"constraint_type"`
	Config     types.JSONText `db:"config" json:"config"`
	ValidFrom  *time.Time     `db:"valid_from" json:"valid_from,omitempty"`
	ValidTo    *time.Time     `db:"valid_to" json:"valid_to,omitempty"`
	Priority   int            `db:"priority" json:"priority"`
	Hard       bool           `db:"is_hard" json:"is_hard"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// AvailabilityConfig narrows or blocks a weekday window.
type AvailabilityConfig struct {
	Weekday   int    `json:"weekday"`
	Available bool   `json:"available"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// BlockedDayConfig vetoes one weekday outright.
type BlockedDayConfig struct {
	Weekday int    `json:"weekday"`
	Reason  string `json:"reason"`
}

// MaxHoursConfig caps weekly scheduled hours.
type MaxHoursConfig struct {
	MaxHours float64 `json:"maxHours"`
}

// MinRestConfig enforces a rest gap between consecutive working days.
type MinRestConfig struct {
	MinRestHours float64 `json:"minRestHours"`
}

// ShiftPreferenceConfig steers an employee toward or away from a shift type.
type ShiftPreferenceConfig struct {
	Preference PreferenceKind `json:"preference"`
	ShiftType  string         `json:"shiftType"`
}

// ConsecutiveDaysConfig bounds unbroken runs of working days.
type ConsecutiveDaysConfig struct {
	MaxDays int `json:"maxDays"`
}

// AvailabilityConfig decodes the payload for AVAILABILITY constraints.
func (c EmployeeConstraint) AvailabilityConfig() AvailabilityConfig {
	cfg := AvailabilityConfig{Available: true}
	_ = c.Config.Unmarshal(&cfg)
	return cfg
}

// BlockedDayConfig decodes the payload for BLOCKED_DAY constraints.
func (c EmployeeConstraint) BlockedDayConfig() BlockedDayConfig {
	var cfg BlockedDayConfig
	_ = c.Config.Unmarshal(&cfg)
	return cfg
}

// MaxHoursConfig decodes the payload for MAX_HOURS constraints,
// defaulting the cap to DefaultMaxWeeklyHours.
func (c EmployeeConstraint) MaxHoursConfig() MaxHoursConfig {
	var cfg MaxHoursConfig
	_ = c.Config.Unmarshal(&cfg)
	if cfg.MaxHours <= 0 {
		cfg.MaxHours = DefaultMaxWeeklyHours
	}
	return cfg
}

// MinRestConfig decodes the payload for MIN_REST constraints.
func (c EmployeeConstraint) MinRestConfig() MinRestConfig {
	var cfg MinRestConfig
	_ = c.Config.Unmarshal(&cfg)
	return cfg
}

// ShiftPreferenceConfig decodes the payload for PREFERRED_SHIFT constraints.
func (c EmployeeConstraint) ShiftPreferenceConfig() ShiftPreferenceConfig {
	cfg := ShiftPreferenceConfig{Preference: PreferencePrefer}
	_ = c.Config.Unmarshal(&cfg)
	return cfg
}

// ConsecutiveDaysConfig decodes the payload for CONSECUTIVE_DAYS constraints,
// defaulting the run length to DefaultMaxConsecutive.
func (c EmployeeConstraint) ConsecutiveDaysConfig() ConsecutiveDaysConfig {
	var cfg ConsecutiveDaysConfig
	_ = c.Config.Unmarshal(&cfg)
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = DefaultMaxConsecutive
	}
	return cfg
}

// RelationshipConstraint is a rule spanning a set of employees.
type RelationshipConstraint struct {
	ID          string           `db:"id" json:"id"`
	VenueID     string           `db:"venue_id" json:"venue_id"`
	EmployeeIDs types.JSONText   `db:"employee_ids" json:"employee_ids"`
	Type        RelationshipType `db:"constraint_type" json:"constraint_type"`
	ValidFrom   *time.Time       `db:"valid_from" json:"valid_from,omitempty"`
	ValidTo     *time.Time       `db:"valid_to" json:"valid_to,omitempty"`
	Priority    int              `db:"priority" json:"priority"`
	Hard        bool             `db:"is_hard" json:"is_hard"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// Members decodes the employee id set.
func (r RelationshipConstraint) Members() []string {
	var ids []string
	_ = r.EmployeeIDs.Unmarshal(&ids)
	return ids
}

// Covers reports whether every given employee id belongs to the constraint.
func (r RelationshipConstraint) Covers(employeeIDs ...string) bool {
	members := make(map[string]bool)
	for _, id := range r.Members() {
		members[id] = true
	}
	for _, id := range employeeIDs {
		if !members[id] {
			return false
		}
	}
	return true
}

// RelationshipViolation reports a breached relationship rule between two
// concrete assignments.
type RelationshipViolation struct {
	ConstraintID string           `json:"constraint_id"`
	Type         RelationshipType `json:"constraint_type"`
	Message      string           `json:"message"`
	EmployeeIDs  []string         `json:"employee_ids"`
	Date         time.Time        `json:"date"`
	Severity     WarningSeverity  `json:"severity"`
}
