package service

import (
	"time"

	"github.com/lavoro-hq/rota-api/internal/models"
)

// Scoring weights for the candidate ranking heuristic. The base score is
// adjusted additively; every weight applies independently.
const (
	scoreBase             = 100.0
	scoreFixedStaffBonus  = 20.0
	scorePreferMatch      = 30.0
	scorePreferMiss       = -20.0
	scoreAvoidMatch       = -40.0
	scoreBalanceCeiling   = 30.0
	scoreBalanceSlope     = 0.3
	scoreCostCap          = 30.0
	scoreSkillBonus       = 10.0
	scoreSoftViolationFee = 50.0
)

// CalculateEmployeeScore ranks how desirable a candidate placement is.
// Soft shift preferences influence the score even when they did not veto.
func CalculateEmployeeScore(
	employee models.Employee,
	shift models.ShiftDefinition,
	date time.Time,
	constraints []models.EmployeeConstraint,
	assignments AssignmentLookup,
	params models.GenerationParams,
) float64 {
	score := scoreBase

	if params.PreferFixedStaff && employee.IsFixedStaff {
		score += scoreFixedStaffBonus
	}

	for _, c := range constraints {
		if c.Type != models.ConstraintPreferredShift {
			continue
		}
		if !constraintAppliesTo(c, employee.ID) || !IsConstraintActive(c, date) {
			continue
		}
		cfg := c.ShiftPreferenceConfig()
		matches := shiftMatchesPreference(cfg.ShiftType, shift)
		switch cfg.Preference {
		case models.PreferencePrefer:
			if matches {
				score += scorePreferMatch
			} else {
				score += scorePreferMiss
			}
		case models.PreferenceAvoid:
			if matches {
				score += scoreAvoidMatch
			}
		}
	}

	if params.BalanceHours {
		contract := employee.ContractHoursWeek
		if contract <= 0 {
			contract = models.DefaultContractHoursWeek
		}
		utilization := weeklyHours(employee.ID, date, assignments) / contract * 100
		if bonus := scoreBalanceCeiling - utilization*scoreBalanceSlope; bonus > 0 {
			score += bonus
		}
	}

	if params.MinimizeCost {
		rate := employee.HourlyRateBase
		if rate <= 0 {
			rate = models.DefaultHourlyRate
		}
		if rate > scoreCostCap {
			rate = scoreCostCap
		}
		score -= rate
	}

	if required := shift.RequiredSkillSet(); len(required) > 0 {
		owned := make(map[string]bool)
		for _, s := range employee.SkillSet() {
			owned[s] = true
		}
		matching := 0
		for _, s := range required {
			if owned[s] {
				matching++
			}
		}
		score += scoreSkillBonus * float64(matching) / float64(len(required))
	}

	return score
}
