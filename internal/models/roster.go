package models

import "time"

// WarningSeverity grades generation warnings.
type WarningSeverity string

const (
	SeverityLow    WarningSeverity = "low"
	SeverityMedium WarningSeverity = "medium"
	SeverityHigh   WarningSeverity = "high"
)

// WarningType enumerates generation warning categories.
type WarningType string

const (
	WarningUnderstaffed       WarningType = "UNDERSTAFFED"
	WarningSoftConstraint     WarningType = "SOFT_CONSTRAINT_VIOLATED"
	WarningRelationship       WarningType = "RELATIONSHIP_CONFLICT"
	WarningSameDayOffMismatch WarningType = "SAME_DAY_OFF_MISMATCH"
)

// GenerationWarning is a typed, non-fatal finding from a generation or
// validation run. Business conditions never surface as errors.
type GenerationWarning struct {
	Type              WarningType     `json:"type"`
	Severity          WarningSeverity `json:"severity"`
	Message           string          `json:"message"`
	Date              *time.Time      `json:"date,omitempty"`
	ShiftDefinitionID string          `json:"shift_definition_id,omitempty"`
	EmployeeIDs       []string        `json:"employee_ids,omitempty"`
}

// GenerationParams drives one roster generation run.
type GenerationParams struct {
	VenueID           string         `json:"venue_id"`
	StartDate         time.Time      `json:"start_date"`
	EndDate           time.Time      `json:"end_date"`
	PreferFixedStaff  bool           `json:"prefer_fixed_staff"`
	BalanceHours      bool           `json:"balance_hours"`
	MinimizeCost      bool           `json:"minimize_cost"`
	MinStaffOverrides map[string]int `json:"min_staff_overrides,omitempty"`
}

// EmployeeUtilization aggregates one employee's share of a roster.
type EmployeeUtilization struct {
	EmployeeID            string  `json:"employee_id"`
	FullName              string  `json:"full_name"`
	ShiftCount            int     `json:"shift_count"`
	HoursAssigned         float64 `json:"hours_assigned"`
	CostTotal             float64 `json:"cost_total"`
	ContractHoursWeek     float64 `json:"contract_hours_week"`
	UtilizationPercentage float64 `json:"utilization_percentage"`
}

// ScheduleStatistics summarises a generated or persisted roster.
type ScheduleStatistics struct {
	TotalAssignments   int                   `json:"total_assignments"`
	TotalHours         float64               `json:"total_hours"`
	TotalCost          float64               `json:"total_cost"`
	CoveragePercentage float64               `json:"coverage_percentage"`
	EmployeeStats      []EmployeeUtilization `json:"employee_stats"`
}

// GenerationResult is the full outcome of a generation run. Success is true
// iff no warning carries high severity.
type GenerationResult struct {
	Success     bool                `json:"success"`
	Assignments []ShiftAssignment   `json:"assignments"`
	Warnings    []GenerationWarning `json:"warnings"`
	Stats       ScheduleStatistics  `json:"stats"`
}
