package service

import (
	"testing"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"

	"github.com/lavoro-hq/rota-api/internal/models"
)

func TestCalculateEmployeeScore_Base(t *testing.T) {
	score := CalculateEmployeeScore(
		testEmployee("e1"),
		testShift("s1", "Day", "09:00", "17:00", 0),
		testDate,
		nil,
		NewAssignmentIndex(nil),
		models.GenerationParams{},
	)

	assert.Equal(t, 100.0, score)
}

func TestCalculateEmployeeScore_FixedStaffBonus(t *testing.T) {
	employee := testEmployee("e1")
	employee.IsFixedStaff = true
	shift := testShift("s1", "Day", "09:00", "17:00", 0)

	score := CalculateEmployeeScore(employee, shift, testDate, nil, NewAssignmentIndex(nil), models.GenerationParams{PreferFixedStaff: true})
	assert.Equal(t, 120.0, score)

	// The bonus only applies when the run asks for it.
	score = CalculateEmployeeScore(employee, shift, testDate, nil, NewAssignmentIndex(nil), models.GenerationParams{})
	assert.Equal(t, 100.0, score)
}

func TestCalculateEmployeeScore_ShiftPreference(t *testing.T) {
	employee := testEmployee("e1")
	night := testShift("s1", "Night", "22:00", "06:00", 0)
	day := testShift("s2", "Morning", "08:00", "16:00", 0)

	prefer := testConstraint("e1", models.ConstraintPreferredShift, false, `{"preference":"PREFER","shiftType":"night"}`)
	score := CalculateEmployeeScore(employee, night, testDate, []models.EmployeeConstraint{prefer}, NewAssignmentIndex(nil), models.GenerationParams{})
	assert.Equal(t, 130.0, score)

	score = CalculateEmployeeScore(employee, day, testDate, []models.EmployeeConstraint{prefer}, NewAssignmentIndex(nil), models.GenerationParams{})
	assert.Equal(t, 80.0, score)

	avoid := testConstraint("e1", models.ConstraintPreferredShift, false, `{"preference":"AVOID","shiftType":"night"}`)
	score = CalculateEmployeeScore(employee, night, testDate, []models.EmployeeConstraint{avoid}, NewAssignmentIndex(nil), models.GenerationParams{})
	assert.Equal(t, 60.0, score)

	// Avoiding a shift type is neutral for non-matching shifts.
	score = CalculateEmployeeScore(employee, day, testDate, []models.EmployeeConstraint{avoid}, NewAssignmentIndex(nil), models.GenerationParams{})
	assert.Equal(t, 100.0, score)
}

func TestCalculateEmployeeScore_BalanceHours(t *testing.T) {
	employee := testEmployee("e1")
	shift := testShift("s1", "Day", "09:00", "17:00", 0)
	params := models.GenerationParams{BalanceHours: true}

	// Idle employee gets the full balancing bonus.
	score := CalculateEmployeeScore(employee, shift, testDate, nil, NewAssignmentIndex(nil), params)
	assert.Equal(t, 130.0, score)

	// Fully utilized employee gets none.
	index := NewAssignmentIndex([]models.ShiftAssignment{
		testAssignment("e1", testDate.AddDate(0, 0, -2), "s2", "06:00", "23:30", 20),
		testAssignment("e1", testDate.AddDate(0, 0, -1), "s2", "06:00", "23:30", 20),
	})
	score = CalculateEmployeeScore(employee, shift, testDate, nil, index, params)
	assert.Equal(t, 100.0, score)
}

func TestCalculateEmployeeScore_MinimizeCost(t *testing.T) {
	shift := testShift("s1", "Day", "09:00", "17:00", 0)
	params := models.GenerationParams{MinimizeCost: true}

	employee := testEmployee("e1")
	employee.HourlyRateBase = 12
	score := CalculateEmployeeScore(employee, shift, testDate, nil, NewAssignmentIndex(nil), params)
	assert.Equal(t, 88.0, score)

	// The rate deduction is capped so one expensive hire cannot crater.
	employee.HourlyRateBase = 80
	score = CalculateEmployeeScore(employee, shift, testDate, nil, NewAssignmentIndex(nil), params)
	assert.Equal(t, 70.0, score)

	// Missing rates fall back to the default before deduction.
	employee.HourlyRateBase = 0
	score = CalculateEmployeeScore(employee, shift, testDate, nil, NewAssignmentIndex(nil), params)
	assert.Equal(t, 90.0, score)
}

func TestCalculateEmployeeScore_SkillMatchBonus(t *testing.T) {
	employee := testEmployee("e1")
	employee.Skills = types.JSONText(`["bar"]`)
	shift := testShift("s1", "Bar", "17:00", "23:00", 0)
	shift.RequiredSkills = types.JSONText(`["bar","till"]`)

	score := CalculateEmployeeScore(employee, shift, testDate, nil, NewAssignmentIndex(nil), models.GenerationParams{})

	assert.Equal(t, 105.0, score)
}
