package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lavoro-hq/rota-api/internal/models"
)

// GenerationInput is the immutable snapshot one generation run works on.
// The engine performs no I/O; loading the snapshot and persisting the
// produced roster belong to the calling service.
type GenerationInput struct {
	ScheduleID              string
	Employees               []models.Employee
	ShiftDefinitions        []models.ShiftDefinition
	EmployeeConstraints     []models.EmployeeConstraint
	RelationshipConstraints []models.RelationshipConstraint
	LeaveRequests           []models.LeaveRequest
	Params                  models.GenerationParams
}

// GenerationReport carries engine internals useful for logging and metrics.
type GenerationReport struct {
	OptimizerImproved bool
	OptimizerSwaps    int
}

// GenerateShifts runs the full pipeline: greedy assignment, one local-search
// improvement pass, the SAME_DAY_OFF post-check and statistics. Success is
// true iff no warning carries high severity.
func GenerateShifts(input GenerationInput) (models.GenerationResult, GenerationReport) {
	index, warnings := buildRoster(input)
	improved, swaps := optimizeRoster(input, index)

	dates := expandDates(input.Params.StartDate, input.Params.EndDate)
	warnings = append(warnings, sameDayOffWarnings(dates, input.RelationshipConstraints, index)...)

	assignments := index.All()
	result := models.GenerationResult{
		Success:     !hasHighSeverity(warnings),
		Assignments: assignments,
		Warnings:    warnings,
		Stats:       BuildStatistics(input, assignments),
	}
	return result, GenerationReport{OptimizerImproved: improved, OptimizerSwaps: swaps}
}

// buildRoster is the single greedy forward pass: dates in order, shift
// definitions by descending position, candidates by descending score.
func buildRoster(input GenerationInput) (*AssignmentIndex, []models.GenerationWarning) {
	index := NewAssignmentIndex(nil)
	var warnings []models.GenerationWarning

	dates := expandDates(input.Params.StartDate, input.Params.EndDate)
	definitions := orderedDefinitions(input.ShiftDefinitions)
	employees := orderedEmployees(input.Employees)

	for _, date := range dates {
		for _, def := range definitions {
			filled, softAssigned := fillShift(input, index, employees, def, date)

			for _, employeeID := range softAssigned {
				day := dateOnly(date)
				warnings = append(warnings, models.GenerationWarning{
					Type:              models.WarningSoftConstraint,
					Severity:          models.SeverityLow,
					Message:           fmt.Sprintf("employee %s assigned to %s on %s despite a soft constraint", employeeID, def.Name, dateKey(day)),
					Date:              &day,
					ShiftDefinitionID: def.ID,
					EmployeeIDs:       []string{employeeID},
				})
			}

			minStaff := minStaffFor(input.Params, def, date)
			if filled < minStaff {
				day := dateOnly(date)
				warnings = append(warnings, models.GenerationWarning{
					Type:              models.WarningUnderstaffed,
					Severity:          models.SeverityHigh,
					Message:           fmt.Sprintf("shift %s on %s is understaffed: %d/%d", def.Name, dateKey(day), filled, minStaff),
					Date:              &day,
					ShiftDefinitionID: def.ID,
				})
			}
		}
	}
	return index, warnings
}

type rosterCandidate struct {
	employee  models.Employee
	score     float64
	penalized bool
}

// fillShift assigns candidates to one shift/date up to the staffing ceiling.
// It returns the number of placed employees and the ids placed under a soft
// constraint violation.
func fillShift(
	input GenerationInput,
	index *AssignmentIndex,
	employees []models.Employee,
	def models.ShiftDefinition,
	date time.Time,
) (int, []string) {
	candidates := rankCandidates(input, index, employees, def, date)

	maxStaff := def.EffectiveMaxStaff()
	var placed []models.ShiftAssignment
	var softAssigned []string

	for _, candidate := range candidates {
		if len(placed) >= maxStaff {
			break
		}
		assignment := newAssignment(input.ScheduleID, candidate.employee, def, date)
		if conflictsWithPlaced(assignment, placed, input.RelationshipConstraints) {
			continue
		}
		index.Add(assignment)
		placed = append(placed, assignment)
		if candidate.penalized {
			softAssigned = append(softAssigned, candidate.employee.ID)
		}
	}
	return len(placed), softAssigned
}

// rankCandidates filters eligible employees and sorts them by score
// descending. Ties break on ascending employee id so identical inputs always
// produce identical rosters.
func rankCandidates(
	input GenerationInput,
	index *AssignmentIndex,
	employees []models.Employee,
	def models.ShiftDefinition,
	date time.Time,
) []rosterCandidate {
	var candidates []rosterCandidate
	for _, employee := range employees {
		eligibility := CanEmployeeWorkShift(employee, def, date, input.EmployeeConstraints, index, input.LeaveRequests)
		if !eligibility.CanWork {
			continue
		}
		score := CalculateEmployeeScore(employee, def, date, input.EmployeeConstraints, index, input.Params)
		if eligibility.Penalized {
			score -= scoreSoftViolationFee
		}
		candidates = append(candidates, rosterCandidate{employee: employee, score: score, penalized: eligibility.Penalized})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score == candidates[j].score {
			return candidates[i].employee.ID < candidates[j].employee.ID
		}
		return candidates[i].score > candidates[j].score
	})
	return candidates
}

func conflictsWithPlaced(
	assignment models.ShiftAssignment,
	placed []models.ShiftAssignment,
	constraints []models.RelationshipConstraint,
) bool {
	for _, other := range placed {
		for _, v := range CheckRelationshipConstraints(assignment, other, constraints) {
			if v.Severity == models.SeverityHigh {
				return true
			}
		}
	}
	return false
}

// newAssignment freezes hours and cost at creation time.
func newAssignment(scheduleID string, employee models.Employee, def models.ShiftDefinition, date time.Time) models.ShiftAssignment {
	hours := CalculateShiftHours(def)
	return models.ShiftAssignment{
		ID:                uuid.NewString(),
		ScheduleID:        scheduleID,
		EmployeeID:        employee.ID,
		ShiftDefinitionID: def.ID,
		Date:              dateOnly(date),
		StartTime:         def.StartTime,
		EndTime:           def.EndTime,
		BreakMinutes:      def.BreakMinutes,
		VenueID:           def.VenueID,
		HoursScheduled:    hours,
		CostEstimated:     assignmentCost(hours, employee, def),
	}
}

func assignmentCost(hours float64, employee models.Employee, def models.ShiftDefinition) float64 {
	rate := employee.HourlyRateBase
	if rate <= 0 {
		rate = models.DefaultHourlyRate
	}
	return round2(hours * rate * def.EffectiveRateMultiplier())
}

// minStaffFor resolves the staffing floor, honouring explicit per-day
// overrides keyed by "YYYY-MM-DD|shiftDefinitionID".
func minStaffFor(params models.GenerationParams, def models.ShiftDefinition, date time.Time) int {
	if params.MinStaffOverrides != nil {
		if v, ok := params.MinStaffOverrides[overrideKey(date, def.ID)]; ok {
			return v
		}
	}
	return def.MinStaff
}

func overrideKey(date time.Time, shiftDefinitionID string) string {
	return dateKey(date) + "|" + shiftDefinitionID
}

// expandDates lists every calendar date of the inclusive range in order.
func expandDates(start, end time.Time) []time.Time {
	first := dateOnly(start)
	last := dateOnly(end)
	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// orderedDefinitions sorts by position descending (higher position filled
// first), breaking ties on id for reproducibility.
func orderedDefinitions(defs []models.ShiftDefinition) []models.ShiftDefinition {
	sorted := make([]models.ShiftDefinition, len(defs))
	copy(sorted, defs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Position == sorted[j].Position {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Position > sorted[j].Position
	})
	return sorted
}

func orderedEmployees(employees []models.Employee) []models.Employee {
	sorted := make([]models.Employee, len(employees))
	copy(sorted, employees)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func hasHighSeverity(warnings []models.GenerationWarning) bool {
	for _, w := range warnings {
		if w.Severity == models.SeverityHigh {
			return true
		}
	}
	return false
}
