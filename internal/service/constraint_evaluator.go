package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lavoro-hq/rota-api/internal/models"
)

// Availability is the narrowed result of scanning an employee's active
// constraints for one calendar date. An empty window bound means unbounded.
type Availability struct {
	IsAvailable   bool
	AvailableFrom string
	AvailableTo   string
	Reason        string
}

// Eligibility is the outcome of the per-candidate hard-gate pipeline.
// Penalized marks candidates that passed only because the breached
// constraint was soft; ranking subtracts a penalty for them.
type Eligibility struct {
	CanWork   bool
	Reason    string
	Penalized bool
}

// IsConstraintActive reports whether the date falls inside the constraint's
// validity window. Open bounds are treated as unbounded.
func IsConstraintActive(c models.EmployeeConstraint, date time.Time) bool {
	return windowActive(c.ValidFrom, c.ValidTo, date)
}

func relationshipActive(c models.RelationshipConstraint, date time.Time) bool {
	return windowActive(c.ValidFrom, c.ValidTo, date)
}

func windowActive(from, to *time.Time, date time.Time) bool {
	day := dateOnly(date)
	if from != nil && day.Before(dateOnly(*from)) {
		return false
	}
	if to != nil && day.After(dateOnly(*to)) {
		return false
	}
	return true
}

func constraintAppliesTo(c models.EmployeeConstraint, employeeID string) bool {
	return c.EmployeeID == "" || c.EmployeeID == employeeID
}

// CheckEmployeeAvailability narrows an availability window for one employee
// and date. The first hard veto short-circuits; AVAILABILITY windows
// accumulate and later restrict which shifts fit.
func CheckEmployeeAvailability(
	employee models.Employee,
	date time.Time,
	constraints []models.EmployeeConstraint,
	assignments AssignmentLookup,
	leaves []models.LeaveRequest,
) Availability {
	result := Availability{IsAvailable: true}
	weekday := int(date.Weekday())

	for _, leave := range leaves {
		if leave.EmployeeID != employee.ID || leave.Status != models.LeaveStatusApproved {
			continue
		}
		if leave.CoversDate(date) {
			return Availability{IsAvailable: false, Reason: "approved leave"}
		}
	}

	if days := employee.WeekdaySet(); len(days) > 0 {
		found := false
		for _, d := range days {
			if d == weekday {
				found = true
				break
			}
		}
		if !found {
			return Availability{IsAvailable: false, Reason: "not available on this weekday"}
		}
	}

	for _, c := range constraints {
		if !constraintAppliesTo(c, employee.ID) || !IsConstraintActive(c, date) {
			continue
		}
		switch c.Type {
		case models.ConstraintBlockedDay:
			cfg := c.BlockedDayConfig()
			if cfg.Weekday == weekday && c.Hard {
				reason := cfg.Reason
				if reason == "" {
					reason = "blocked day"
				}
				return Availability{IsAvailable: false, Reason: reason}
			}
		case models.ConstraintAvailability:
			cfg := c.AvailabilityConfig()
			if cfg.Weekday != weekday {
				continue
			}
			if !cfg.Available && c.Hard {
				return Availability{IsAvailable: false, Reason: "not available on this weekday"}
			}
			if cfg.StartTime != "" {
				result.AvailableFrom = cfg.StartTime
			}
			if cfg.EndTime != "" {
				result.AvailableTo = cfg.EndTime
			}
		case models.ConstraintConsecutiveDays:
			cfg := c.ConsecutiveDaysConfig()
			run := consecutiveWorkedDays(employee.ID, date, assignments, cfg.MaxDays)
			if run >= cfg.MaxDays && c.Hard {
				return Availability{
					IsAvailable: false,
					Reason:      fmt.Sprintf("reached %d consecutive working days", cfg.MaxDays),
				}
			}
		}
	}
	return result
}

// consecutiveWorkedDays counts the unbroken run of assigned days immediately
// before the given date, scanning at most maxDays back.
func consecutiveWorkedDays(employeeID string, date time.Time, assignments AssignmentLookup, maxDays int) int {
	worked := make(map[string]bool)
	for _, a := range assignments.ForEmployee(employeeID) {
		worked[dateKey(a.Date)] = true
	}
	run := 0
	for i := 1; i <= maxDays; i++ {
		prev := dateOnly(date).AddDate(0, 0, -i)
		if !worked[dateKey(prev)] {
			break
		}
		run++
	}
	return run
}

// CanEmployeeWorkShift runs the full hard-gate pipeline for one candidate
// placement, returning at the first hard failure. MIN_REST and MAX_HOURS are
// the only soft-penalizable gates.
func CanEmployeeWorkShift(
	employee models.Employee,
	shift models.ShiftDefinition,
	date time.Time,
	constraints []models.EmployeeConstraint,
	assignments AssignmentLookup,
	leaves []models.LeaveRequest,
) Eligibility {
	availability := CheckEmployeeAvailability(employee, date, constraints, assignments, leaves)
	if !availability.IsAvailable {
		return Eligibility{CanWork: false, Reason: availability.Reason}
	}

	if _, taken := assignmentOnDate(employee.ID, date, assignments); taken {
		return Eligibility{CanWork: false, Reason: "already assigned on this date"}
	}

	skills := make(map[string]bool)
	for _, s := range employee.SkillSet() {
		skills[s] = true
	}
	for _, required := range shift.RequiredSkillSet() {
		if !skills[required] {
			return Eligibility{CanWork: false, Reason: fmt.Sprintf("missing required skill %q", required)}
		}
	}

	if employee.VenueID != nil && *employee.VenueID != "" && *employee.VenueID != shift.VenueID {
		return Eligibility{CanWork: false, Reason: "employee belongs to another venue"}
	}

	for _, c := range constraints {
		if c.Type != models.ConstraintPreferredShift || !c.Hard {
			continue
		}
		if !constraintAppliesTo(c, employee.ID) || !IsConstraintActive(c, date) {
			continue
		}
		cfg := c.ShiftPreferenceConfig()
		matches := shiftMatchesPreference(cfg.ShiftType, shift)
		if cfg.Preference == models.PreferencePrefer && !matches {
			return Eligibility{CanWork: false, Reason: fmt.Sprintf("shift does not match preferred type %q", cfg.ShiftType)}
		}
		if cfg.Preference == models.PreferenceAvoid && matches {
			return Eligibility{CanWork: false, Reason: fmt.Sprintf("shift matches avoided type %q", cfg.ShiftType)}
		}
	}

	if availability.AvailableFrom != "" || availability.AvailableTo != "" {
		start := timeOfDayMinutes(shift.StartTime)
		end := timeOfDayMinutes(shift.EndTime)
		if availability.AvailableFrom != "" && start < timeOfDayMinutes(availability.AvailableFrom) {
			return Eligibility{CanWork: false, Reason: "shift starts before availability window"}
		}
		if availability.AvailableTo != "" && end > timeOfDayMinutes(availability.AvailableTo) {
			return Eligibility{CanWork: false, Reason: "shift ends after availability window"}
		}
	}

	penalized := false

	for _, c := range constraints {
		if c.Type != models.ConstraintMinRest {
			continue
		}
		if !constraintAppliesTo(c, employee.ID) || !IsConstraintActive(c, date) {
			continue
		}
		cfg := c.MinRestConfig()
		if cfg.MinRestHours <= 0 {
			continue
		}
		prev, worked := assignmentOnDate(employee.ID, dateOnly(date).AddDate(0, 0, -1), assignments)
		if !worked {
			continue
		}
		gap := restGapHours(prev, shift)
		if gap < cfg.MinRestHours {
			if c.Hard {
				return Eligibility{
					CanWork: false,
					Reason:  fmt.Sprintf("rest gap %.1fh is below required %.1fh", gap, cfg.MinRestHours),
				}
			}
			penalized = true
		}
	}

	for _, c := range constraints {
		if c.Type != models.ConstraintMaxHours {
			continue
		}
		if !constraintAppliesTo(c, employee.ID) || !IsConstraintActive(c, date) {
			continue
		}
		cfg := c.MaxHoursConfig()
		total := weeklyHours(employee.ID, date, assignments) + CalculateShiftHours(shift)
		if total > cfg.MaxHours {
			if c.Hard {
				return Eligibility{
					CanWork: false,
					Reason:  fmt.Sprintf("weekly hours %.1fh would exceed cap %.1fh", total, cfg.MaxHours),
				}
			}
			penalized = true
		}
	}

	return Eligibility{CanWork: true, Penalized: penalized}
}

// CalculateShiftHours returns net working hours for one shift occurrence:
// end minus start (plus 24h when the shift crosses midnight), minus the
// break, rounded to two decimals.
func CalculateShiftHours(shift models.ShiftDefinition) float64 {
	start := timeOfDayMinutes(shift.StartTime)
	end := timeOfDayMinutes(shift.EndTime)
	if end < start {
		end += 24 * 60
	}
	minutes := end - start - shift.BreakMinutes
	if minutes < 0 {
		minutes = 0
	}
	return round2(float64(minutes) / 60.0)
}

// restGapHours measures the rest between the end of the previous day's
// assignment and the start of the candidate shift.
func restGapHours(prev models.ShiftAssignment, shift models.ShiftDefinition) float64 {
	prevStart := timeOfDayMinutes(prev.StartTime)
	prevEnd := timeOfDayMinutes(prev.EndTime)
	start := timeOfDayMinutes(shift.StartTime)

	var gapMinutes int
	if prevEnd < prevStart {
		// Overnight shift: it ended on the candidate's own date.
		gapMinutes = start - prevEnd
	} else {
		gapMinutes = (24*60 - prevEnd) + start
	}
	if gapMinutes < 0 {
		gapMinutes = 0
	}
	return round2(float64(gapMinutes) / 60.0)
}

// weeklyHours sums scheduled hours for the employee over the week containing
// the date. Weeks start on Sunday, matching the hour-balancing convention.
func weeklyHours(employeeID string, date time.Time, assignments AssignmentLookup) float64 {
	start := weekStart(date)
	end := start.AddDate(0, 0, 7)
	var total float64
	for _, a := range assignments.ForEmployee(employeeID) {
		day := dateOnly(a.Date)
		if !day.Before(start) && day.Before(end) {
			total += a.HoursScheduled
		}
	}
	return total
}

func assignmentOnDate(employeeID string, date time.Time, assignments AssignmentLookup) (models.ShiftAssignment, bool) {
	day := dateOnly(date)
	for _, a := range assignments.ForEmployee(employeeID) {
		if dateOnly(a.Date).Equal(day) {
			return a, true
		}
	}
	return models.ShiftAssignment{}, false
}

// shiftMatchesPreference applies the bidirectional substring heuristic
// between a preference label and the shift's name or code. Kept behind one
// function so it can be replaced by an explicit shift-type enum later.
func shiftMatchesPreference(preference string, shift models.ShiftDefinition) bool {
	pref := strings.ToLower(strings.TrimSpace(preference))
	if pref == "" {
		return false
	}
	for _, label := range []string{strings.ToLower(shift.Name), strings.ToLower(shift.Code)} {
		if label == "" {
			continue
		}
		if strings.Contains(label, pref) || strings.Contains(pref, label) {
			return true
		}
	}
	return false
}

// weekStart returns midnight of the Sunday opening the week of the date.
func weekStart(date time.Time) time.Time {
	day := dateOnly(date)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// timeOfDayMinutes parses "HH:MM" into minutes since midnight.
// Malformed values resolve to 0.
func timeOfDayMinutes(value string) int {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return hours*60 + minutes
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
