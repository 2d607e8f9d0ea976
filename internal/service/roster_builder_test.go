package service

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavoro-hq/rota-api/internal/models"
)

func testInput(days int, employees []models.Employee, defs []models.ShiftDefinition) GenerationInput {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	return GenerationInput{
		ScheduleID:       "sched-1",
		Employees:        employees,
		ShiftDefinitions: defs,
		Params: models.GenerationParams{
			VenueID:   "venue-1",
			StartDate: start,
			EndDate:   start.AddDate(0, 0, days-1),
		},
	}
}

// assignmentTuples flattens a roster into comparable placement keys,
// discarding generated ids.
func assignmentTuples(assignments []models.ShiftAssignment) []string {
	tuples := make([]string, 0, len(assignments))
	for _, a := range assignments {
		tuples = append(tuples, fmt.Sprintf("%s|%s|%s", dateKey(a.Date), a.ShiftDefinitionID, a.EmployeeID))
	}
	sort.Strings(tuples)
	return tuples
}

func TestGenerateShifts_FillsAllSlots(t *testing.T) {
	morning := testShift("s1", "Morning", "08:00", "16:00", 30)
	morning.MaxStaff = 1
	evening := testShift("s2", "Evening", "16:00", "23:00", 30)
	evening.MaxStaff = 1
	input := testInput(2,
		[]models.Employee{testEmployee("e1"), testEmployee("e2"), testEmployee("e3")},
		[]models.ShiftDefinition{morning, evening},
	)

	result, report := GenerateShifts(input)

	assert.True(t, result.Success)
	assert.Empty(t, result.Warnings)
	assert.Len(t, result.Assignments, 4)
	assert.False(t, report.OptimizerImproved)
	assert.Equal(t, 100.0, result.Stats.CoveragePercentage)
	assert.Equal(t, 4, result.Stats.TotalAssignments)
}

func TestGenerateShifts_Deterministic(t *testing.T) {
	morning := testShift("s1", "Morning", "08:00", "16:00", 30)
	morning.MaxStaff = 2
	morning.MinStaff = 2
	evening := testShift("s2", "Evening", "16:00", "23:00", 30)
	evening.MaxStaff = 1
	input := testInput(3,
		[]models.Employee{testEmployee("e3"), testEmployee("e1"), testEmployee("e4"), testEmployee("e2")},
		[]models.ShiftDefinition{evening, morning},
	)

	first, _ := GenerateShifts(input)
	second, _ := GenerateShifts(input)

	assert.Equal(t, assignmentTuples(first.Assignments), assignmentTuples(second.Assignments))
}

func TestGenerateShifts_NoDoubleBooking(t *testing.T) {
	morning := testShift("s1", "Morning", "08:00", "16:00", 30)
	morning.MaxStaff = 2
	evening := testShift("s2", "Evening", "16:00", "23:00", 30)
	evening.MaxStaff = 2
	input := testInput(3,
		[]models.Employee{testEmployee("e1"), testEmployee("e2")},
		[]models.ShiftDefinition{morning, evening},
	)

	result, _ := GenerateShifts(input)

	seen := make(map[string]bool)
	for _, a := range result.Assignments {
		key := a.EmployeeID + "|" + dateKey(a.Date)
		assert.False(t, seen[key], "employee %s booked twice on %s", a.EmployeeID, dateKey(a.Date))
		seen[key] = true
	}
}

func TestGenerateShifts_RespectsStaffingCeiling(t *testing.T) {
	shift := testShift("s1", "Day", "09:00", "17:00", 0)
	shift.MinStaff = 1
	shift.MaxStaff = 0 // ceiling defaults to minStaff+2
	input := testInput(1,
		[]models.Employee{
			testEmployee("e1"), testEmployee("e2"), testEmployee("e3"),
			testEmployee("e4"), testEmployee("e5"),
		},
		[]models.ShiftDefinition{shift},
	)

	result, _ := GenerateShifts(input)

	assert.Len(t, result.Assignments, 3)
}

func TestGenerateShifts_UnderstaffedWarning(t *testing.T) {
	shift := testShift("s1", "Morning", "08:00", "16:00", 30)
	shift.MinStaff = 2
	shift.MaxStaff = 2
	input := testInput(1, []models.Employee{testEmployee("e1")}, []models.ShiftDefinition{shift})

	result, _ := GenerateShifts(input)

	assert.False(t, result.Success)
	require.Len(t, result.Warnings, 1)
	warning := result.Warnings[0]
	assert.Equal(t, models.WarningUnderstaffed, warning.Type)
	assert.Equal(t, models.SeverityHigh, warning.Severity)
	assert.Equal(t, "shift Morning on 2025-06-02 is understaffed: 1/2", warning.Message)
	assert.Equal(t, "s1", warning.ShiftDefinitionID)
}

func TestGenerateShifts_MinStaffOverride(t *testing.T) {
	shift := testShift("s1", "Morning", "08:00", "16:00", 30)
	shift.MinStaff = 1
	input := testInput(1, nil, []models.ShiftDefinition{shift})
	input.Params.MinStaffOverrides = map[string]int{"2025-06-02|s1": 0}

	result, _ := GenerateShifts(input)

	assert.True(t, result.Success)
	assert.Empty(t, result.Warnings)
}

func TestGenerateShifts_NeverTogetherBlocksSecondPlacement(t *testing.T) {
	shift := testShift("s1", "Day", "09:00", "17:00", 0)
	shift.MinStaff = 2
	shift.MaxStaff = 2
	input := testInput(1,
		[]models.Employee{testEmployee("e1"), testEmployee("e2")},
		[]models.ShiftDefinition{shift},
	)
	input.RelationshipConstraints = []models.RelationshipConstraint{
		testRelationship(models.RelationshipNeverTogether, true, `["e1","e2"]`),
	}

	result, _ := GenerateShifts(input)

	assert.Len(t, result.Assignments, 1)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, models.WarningUnderstaffed, result.Warnings[0].Type)
}

func TestGenerateShifts_SoftConstraintWarning(t *testing.T) {
	shift := testShift("s1", "Morning", "08:00", "16:00", 0)
	input := testInput(1, []models.Employee{testEmployee("e1")}, []models.ShiftDefinition{shift})
	input.EmployeeConstraints = []models.EmployeeConstraint{
		testConstraint("e1", models.ConstraintMaxHours, false, `{"maxHours":5}`),
	}

	result, _ := GenerateShifts(input)

	assert.True(t, result.Success)
	assert.Len(t, result.Assignments, 1)
	require.Len(t, result.Warnings, 1)
	warning := result.Warnings[0]
	assert.Equal(t, models.WarningSoftConstraint, warning.Type)
	assert.Equal(t, models.SeverityLow, warning.Severity)
	assert.Equal(t, "employee e1 assigned to Morning on 2025-06-02 despite a soft constraint", warning.Message)
	assert.Equal(t, []string{"e1"}, warning.EmployeeIDs)
}

func TestGenerateShifts_HigherPositionFilledFirst(t *testing.T) {
	bar := testShift("s1", "Bar", "17:00", "23:00", 0)
	bar.Position = 1
	bar.MaxStaff = 1
	floor := testShift("s2", "Floor", "17:00", "23:00", 0)
	floor.Position = 5
	floor.MaxStaff = 1
	input := testInput(1, []models.Employee{testEmployee("e1")}, []models.ShiftDefinition{bar, floor})

	result, _ := GenerateShifts(input)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "s2", result.Assignments[0].ShiftDefinitionID)
}

func TestNewAssignment_FreezesHoursAndCost(t *testing.T) {
	employee := testEmployee("e1")
	employee.HourlyRateBase = 15
	shift := testShift("s1", "Night", "22:00", "06:00", 30)
	shift.RateMultiplier = 1.2

	assignment := newAssignment("sched-1", employee, shift, testDate)

	assert.NotEmpty(t, assignment.ID)
	assert.Equal(t, 7.5, assignment.HoursScheduled)
	assert.Equal(t, 135.0, assignment.CostEstimated)
	assert.Equal(t, "22:00", assignment.StartTime)
	assert.Equal(t, dateOnly(testDate), assignment.Date)
}

func TestExpandDates(t *testing.T) {
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	dates := expandDates(start, start.AddDate(0, 0, 2))

	require.Len(t, dates, 3)
	assert.Equal(t, "2025-06-02", dateKey(dates[0]))
	assert.Equal(t, "2025-06-04", dateKey(dates[2]))
}
