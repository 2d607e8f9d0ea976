package service

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavoro-hq/rota-api/internal/models"
)

// Wednesday, June 4th 2025. The containing week opens on Sunday June 1st.
var testDate = time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)

func testEmployee(id string) models.Employee {
	return models.Employee{
		ID:                id,
		FullName:          "Employee " + id,
		ContractHoursWeek: 40,
		HourlyRateBase:    12,
		Active:            true,
	}
}

func testShift(id, name, start, end string, breakMinutes int) models.ShiftDefinition {
	return models.ShiftDefinition{
		ID:           id,
		VenueID:      "venue-1",
		Name:         name,
		StartTime:    start,
		EndTime:      end,
		BreakMinutes: breakMinutes,
		MinStaff:     1,
		Active:       true,
	}
}

func testConstraint(employeeID string, kind models.ConstraintType, hard bool, config string) models.EmployeeConstraint {
	return models.EmployeeConstraint{
		ID:         "c-" + string(kind),
		EmployeeID: employeeID,
		VenueID:    "venue-1",
		Type:       kind,
		Hard:       hard,
		Config:     types.JSONText(config),
	}
}

func testAssignment(employeeID string, date time.Time, shiftID, start, end string, hours float64) models.ShiftAssignment {
	return models.ShiftAssignment{
		ID:                "a-" + employeeID + "-" + dateKey(date),
		ScheduleID:        "sched-1",
		EmployeeID:        employeeID,
		ShiftDefinitionID: shiftID,
		Date:              date,
		StartTime:         start,
		EndTime:           end,
		VenueID:           "venue-1",
		HoursScheduled:    hours,
	}
}

func TestCalculateShiftHours(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		brk   int
		want  float64
	}{
		{"day shift with break", "09:00", "17:00", 60, 7},
		{"overnight shift", "22:00", "06:00", 30, 7.5},
		{"no break", "08:00", "12:30", 0, 4.5},
		{"break longer than shift", "09:00", "09:30", 60, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shift := testShift("s1", "Test", tt.start, tt.end, tt.brk)
			assert.Equal(t, tt.want, CalculateShiftHours(shift))
		})
	}
}

func TestCheckEmployeeAvailability_ApprovedLeave(t *testing.T) {
	employee := testEmployee("e1")
	leave := models.LeaveRequest{
		EmployeeID: "e1",
		StartDate:  testDate.AddDate(0, 0, -1),
		EndDate:    testDate.AddDate(0, 0, 1),
		Status:     models.LeaveStatusApproved,
	}

	result := CheckEmployeeAvailability(employee, testDate, nil, NewAssignmentIndex(nil), []models.LeaveRequest{leave})

	assert.False(t, result.IsAvailable)
	assert.Equal(t, "approved leave", result.Reason)
}

func TestCheckEmployeeAvailability_PendingLeaveIgnored(t *testing.T) {
	employee := testEmployee("e1")
	leave := models.LeaveRequest{
		EmployeeID: "e1",
		StartDate:  testDate,
		EndDate:    testDate,
		Status:     models.LeaveStatusPending,
	}

	result := CheckEmployeeAvailability(employee, testDate, nil, NewAssignmentIndex(nil), []models.LeaveRequest{leave})

	assert.True(t, result.IsAvailable)
}

func TestCheckEmployeeAvailability_WeekdaySet(t *testing.T) {
	employee := testEmployee("e1")
	employee.AvailableWeekdays = types.JSONText(`[1,2]`)

	result := CheckEmployeeAvailability(employee, testDate, nil, NewAssignmentIndex(nil), nil)

	assert.False(t, result.IsAvailable)
	assert.Equal(t, "not available on this weekday", result.Reason)
}

func TestCheckEmployeeAvailability_BlockedDay(t *testing.T) {
	employee := testEmployee("e1")
	blocked := testConstraint("e1", models.ConstraintBlockedDay, true, `{"weekday":3,"reason":"school run"}`)

	result := CheckEmployeeAvailability(employee, testDate, []models.EmployeeConstraint{blocked}, NewAssignmentIndex(nil), nil)

	assert.False(t, result.IsAvailable)
	assert.Equal(t, "school run", result.Reason)
}

func TestCheckEmployeeAvailability_BlockedDayOutsideValidity(t *testing.T) {
	employee := testEmployee("e1")
	blocked := testConstraint("e1", models.ConstraintBlockedDay, true, `{"weekday":3}`)
	from := testDate.AddDate(0, 1, 0)
	blocked.ValidFrom = &from

	result := CheckEmployeeAvailability(employee, testDate, []models.EmployeeConstraint{blocked}, NewAssignmentIndex(nil), nil)

	assert.True(t, result.IsAvailable)
}

func TestCheckEmployeeAvailability_WindowNarrowing(t *testing.T) {
	employee := testEmployee("e1")
	window := testConstraint("e1", models.ConstraintAvailability, true, `{"weekday":3,"available":true,"startTime":"10:00","endTime":"18:00"}`)

	result := CheckEmployeeAvailability(employee, testDate, []models.EmployeeConstraint{window}, NewAssignmentIndex(nil), nil)

	assert.True(t, result.IsAvailable)
	assert.Equal(t, "10:00", result.AvailableFrom)
	assert.Equal(t, "18:00", result.AvailableTo)
}

func TestCheckEmployeeAvailability_ConsecutiveDays(t *testing.T) {
	employee := testEmployee("e1")
	limit := testConstraint("e1", models.ConstraintConsecutiveDays, true, `{"maxDays":2}`)
	index := NewAssignmentIndex([]models.ShiftAssignment{
		testAssignment("e1", testDate.AddDate(0, 0, -2), "s1", "09:00", "17:00", 8),
		testAssignment("e1", testDate.AddDate(0, 0, -1), "s1", "09:00", "17:00", 8),
	})

	result := CheckEmployeeAvailability(employee, testDate, []models.EmployeeConstraint{limit}, index, nil)

	assert.False(t, result.IsAvailable)
	assert.Equal(t, "reached 2 consecutive working days", result.Reason)
}

func TestCheckEmployeeAvailability_ConsecutiveRunBroken(t *testing.T) {
	employee := testEmployee("e1")
	limit := testConstraint("e1", models.ConstraintConsecutiveDays, true, `{"maxDays":2}`)
	index := NewAssignmentIndex([]models.ShiftAssignment{
		testAssignment("e1", testDate.AddDate(0, 0, -3), "s1", "09:00", "17:00", 8),
		testAssignment("e1", testDate.AddDate(0, 0, -1), "s1", "09:00", "17:00", 8),
	})

	result := CheckEmployeeAvailability(employee, testDate, []models.EmployeeConstraint{limit}, index, nil)

	assert.True(t, result.IsAvailable)
}

func TestCanEmployeeWorkShift_AlreadyAssigned(t *testing.T) {
	employee := testEmployee("e1")
	shift := testShift("s2", "Evening", "17:00", "23:00", 0)
	index := NewAssignmentIndex([]models.ShiftAssignment{
		testAssignment("e1", testDate, "s1", "09:00", "17:00", 8),
	})

	result := CanEmployeeWorkShift(employee, shift, testDate, nil, index, nil)

	assert.False(t, result.CanWork)
	assert.Equal(t, "already assigned on this date", result.Reason)
}

func TestCanEmployeeWorkShift_MissingSkill(t *testing.T) {
	employee := testEmployee("e1")
	shift := testShift("s1", "Bar", "17:00", "23:00", 0)
	shift.RequiredSkills = types.JSONText(`["bar"]`)

	result := CanEmployeeWorkShift(employee, shift, testDate, nil, NewAssignmentIndex(nil), nil)

	assert.False(t, result.CanWork)
	assert.Equal(t, `missing required skill "bar"`, result.Reason)
}

func TestCanEmployeeWorkShift_SkillSatisfied(t *testing.T) {
	employee := testEmployee("e1")
	employee.Skills = types.JSONText(`["bar","till"]`)
	shift := testShift("s1", "Bar", "17:00", "23:00", 0)
	shift.RequiredSkills = types.JSONText(`["bar"]`)

	result := CanEmployeeWorkShift(employee, shift, testDate, nil, NewAssignmentIndex(nil), nil)

	assert.True(t, result.CanWork)
}

func TestCanEmployeeWorkShift_WrongVenue(t *testing.T) {
	employee := testEmployee("e1")
	other := "venue-2"
	employee.VenueID = &other
	shift := testShift("s1", "Bar", "17:00", "23:00", 0)

	result := CanEmployeeWorkShift(employee, shift, testDate, nil, NewAssignmentIndex(nil), nil)

	assert.False(t, result.CanWork)
	assert.Equal(t, "employee belongs to another venue", result.Reason)
}

func TestCanEmployeeWorkShift_HardShiftPreference(t *testing.T) {
	employee := testEmployee("e1")
	night := testShift("s1", "Night", "22:00", "06:00", 30)
	day := testShift("s2", "Morning", "08:00", "16:00", 30)

	avoid := testConstraint("e1", models.ConstraintPreferredShift, true, `{"preference":"AVOID","shiftType":"night"}`)
	result := CanEmployeeWorkShift(employee, night, testDate, []models.EmployeeConstraint{avoid}, NewAssignmentIndex(nil), nil)
	require.False(t, result.CanWork)
	assert.Equal(t, `shift matches avoided type "night"`, result.Reason)

	prefer := testConstraint("e1", models.ConstraintPreferredShift, true, `{"preference":"PREFER","shiftType":"night"}`)
	result = CanEmployeeWorkShift(employee, day, testDate, []models.EmployeeConstraint{prefer}, NewAssignmentIndex(nil), nil)
	require.False(t, result.CanWork)
	assert.Equal(t, `shift does not match preferred type "night"`, result.Reason)

	result = CanEmployeeWorkShift(employee, night, testDate, []models.EmployeeConstraint{prefer}, NewAssignmentIndex(nil), nil)
	assert.True(t, result.CanWork)
}

func TestCanEmployeeWorkShift_AvailabilityWindowFit(t *testing.T) {
	employee := testEmployee("e1")
	window := testConstraint("e1", models.ConstraintAvailability, true, `{"weekday":3,"available":true,"startTime":"10:00","endTime":"18:00"}`)

	early := testShift("s1", "Morning", "09:00", "14:00", 0)
	result := CanEmployeeWorkShift(employee, early, testDate, []models.EmployeeConstraint{window}, NewAssignmentIndex(nil), nil)
	require.False(t, result.CanWork)
	assert.Equal(t, "shift starts before availability window", result.Reason)

	late := testShift("s2", "Evening", "14:00", "20:00", 0)
	result = CanEmployeeWorkShift(employee, late, testDate, []models.EmployeeConstraint{window}, NewAssignmentIndex(nil), nil)
	require.False(t, result.CanWork)
	assert.Equal(t, "shift ends after availability window", result.Reason)

	fits := testShift("s3", "Midday", "11:00", "17:00", 0)
	result = CanEmployeeWorkShift(employee, fits, testDate, []models.EmployeeConstraint{window}, NewAssignmentIndex(nil), nil)
	assert.True(t, result.CanWork)
}

func TestCanEmployeeWorkShift_MinRest(t *testing.T) {
	employee := testEmployee("e1")
	shift := testShift("s2", "Morning", "06:00", "14:00", 0)
	index := NewAssignmentIndex([]models.ShiftAssignment{
		testAssignment("e1", testDate.AddDate(0, 0, -1), "s1", "15:00", "23:00", 8),
	})

	hard := testConstraint("e1", models.ConstraintMinRest, true, `{"minRestHours":11}`)
	result := CanEmployeeWorkShift(employee, shift, testDate, []models.EmployeeConstraint{hard}, index, nil)
	require.False(t, result.CanWork)
	assert.Equal(t, "rest gap 7.0h is below required 11.0h", result.Reason)

	soft := testConstraint("e1", models.ConstraintMinRest, false, `{"minRestHours":11}`)
	result = CanEmployeeWorkShift(employee, shift, testDate, []models.EmployeeConstraint{soft}, index, nil)
	require.True(t, result.CanWork)
	assert.True(t, result.Penalized)
}

func TestCanEmployeeWorkShift_MinRestAfterOvernight(t *testing.T) {
	employee := testEmployee("e1")
	shift := testShift("s2", "Evening", "16:00", "22:00", 0)
	// Previous night shift ended 06:00 on the candidate's own date.
	index := NewAssignmentIndex([]models.ShiftAssignment{
		testAssignment("e1", testDate.AddDate(0, 0, -1), "s1", "22:00", "06:00", 7.5),
	})
	rest := testConstraint("e1", models.ConstraintMinRest, true, `{"minRestHours":11}`)

	result := CanEmployeeWorkShift(employee, shift, testDate, []models.EmployeeConstraint{rest}, index, nil)

	require.False(t, result.CanWork)
	assert.Equal(t, "rest gap 10.0h is below required 11.0h", result.Reason)
}

func TestCanEmployeeWorkShift_MaxHours(t *testing.T) {
	employee := testEmployee("e1")
	shift := testShift("s1", "Day", "09:00", "17:00", 0)
	// 35 hours already scheduled inside the Sunday-opened week.
	index := NewAssignmentIndex([]models.ShiftAssignment{
		testAssignment("e1", testDate.AddDate(0, 0, -2), "s2", "06:00", "23:30", 17.5),
		testAssignment("e1", testDate.AddDate(0, 0, -1), "s2", "06:00", "23:30", 17.5),
	})

	hard := testConstraint("e1", models.ConstraintMaxHours, true, `{"maxHours":40}`)
	result := CanEmployeeWorkShift(employee, shift, testDate, []models.EmployeeConstraint{hard}, index, nil)
	require.False(t, result.CanWork)
	assert.Equal(t, "weekly hours 43.0h would exceed cap 40.0h", result.Reason)

	soft := testConstraint("e1", models.ConstraintMaxHours, false, `{"maxHours":40}`)
	result = CanEmployeeWorkShift(employee, shift, testDate, []models.EmployeeConstraint{soft}, index, nil)
	require.True(t, result.CanWork)
	assert.True(t, result.Penalized)
}

func TestCanEmployeeWorkShift_MaxHoursIgnoresPreviousWeek(t *testing.T) {
	employee := testEmployee("e1")
	shift := testShift("s1", "Day", "09:00", "17:00", 0)
	// Saturday May 31st belongs to the previous week.
	index := NewAssignmentIndex([]models.ShiftAssignment{
		testAssignment("e1", testDate.AddDate(0, 0, -4), "s2", "06:00", "23:30", 17.5),
		testAssignment("e1", testDate.AddDate(0, 0, -2), "s2", "06:00", "23:30", 17.5),
	})
	weeklyCap := testConstraint("e1", models.ConstraintMaxHours, true, `{"maxHours":40}`)

	result := CanEmployeeWorkShift(employee, shift, testDate, []models.EmployeeConstraint{weeklyCap}, index, nil)

	assert.True(t, result.CanWork)
}

func TestShiftMatchesPreference(t *testing.T) {
	night := testShift("s1", "Night Bar", "22:00", "06:00", 0)
	night.Code = "NGT"

	assert.True(t, shiftMatchesPreference("night", night))
	assert.True(t, shiftMatchesPreference("NGT", night))
	assert.True(t, shiftMatchesPreference("night bar crew", night))
	assert.False(t, shiftMatchesPreference("morning", night))
	assert.False(t, shiftMatchesPreference("", night))
}

func TestWeekStart(t *testing.T) {
	sunday := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, sunday, weekStart(testDate))
	assert.Equal(t, sunday, weekStart(sunday))
	assert.Equal(t, sunday, weekStart(time.Date(2025, 6, 7, 23, 0, 0, 0, time.UTC)))
}

func TestTimeOfDayMinutes(t *testing.T) {
	assert.Equal(t, 570, timeOfDayMinutes("09:30"))
	assert.Equal(t, 0, timeOfDayMinutes("garbage"))
	assert.Equal(t, 1439, timeOfDayMinutes("23:59"))
}
