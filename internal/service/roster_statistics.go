package service

import (
	"fmt"
	"sort"

	"github.com/lavoro-hq/rota-api/internal/models"
)

// BuildStatistics aggregates per-employee utilization and whole-roster
// coverage for a generated assignment list.
func BuildStatistics(input GenerationInput, assignments []models.ShiftAssignment) models.ScheduleStatistics {
	stats := models.ScheduleStatistics{TotalAssignments: len(assignments)}

	type bucket struct {
		shifts int
		hours  float64
		cost   float64
	}
	perEmployee := make(map[string]*bucket)
	for _, a := range assignments {
		b := perEmployee[a.EmployeeID]
		if b == nil {
			b = &bucket{}
			perEmployee[a.EmployeeID] = b
		}
		b.shifts++
		b.hours += a.HoursScheduled
		b.cost += a.CostEstimated
		stats.TotalHours += a.HoursScheduled
		stats.TotalCost += a.CostEstimated
	}
	stats.TotalHours = round2(stats.TotalHours)
	stats.TotalCost = round2(stats.TotalCost)

	weeks := periodWeeks(input.Params)
	for _, employee := range orderedEmployees(input.Employees) {
		b := perEmployee[employee.ID]
		if b == nil {
			b = &bucket{}
		}
		contract := employee.ContractHoursWeek
		if contract <= 0 {
			contract = models.DefaultContractHoursWeek
		}
		expected := contract * weeks
		utilization := 0.0
		if expected > 0 {
			utilization = round2(b.hours / expected * 100)
		}
		stats.EmployeeStats = append(stats.EmployeeStats, models.EmployeeUtilization{
			EmployeeID:            employee.ID,
			FullName:              employee.FullName,
			ShiftCount:            b.shifts,
			HoursAssigned:         round2(b.hours),
			CostTotal:             round2(b.cost),
			ContractHoursWeek:     contract,
			UtilizationPercentage: utilization,
		})
	}

	stats.CoveragePercentage = coveragePercentage(input.Params, input.ShiftDefinitions, assignments)
	return stats
}

// coveragePercentage relates filled slots to required slots across every
// date/shift pair of the period. Filled counts are capped at the staffing
// floor so overstaffed shifts cannot mask gaps elsewhere.
func coveragePercentage(
	params models.GenerationParams,
	definitions []models.ShiftDefinition,
	assignments []models.ShiftAssignment,
) float64 {
	counts := make(map[string]int)
	for _, a := range assignments {
		counts[overrideKey(a.Date, a.ShiftDefinitionID)]++
	}

	required, filled := 0, 0
	for _, date := range expandDates(params.StartDate, params.EndDate) {
		for _, def := range definitions {
			minStaff := minStaffFor(params, def, date)
			if minStaff <= 0 {
				continue
			}
			required += minStaff
			assigned := counts[overrideKey(date, def.ID)]
			if assigned > minStaff {
				assigned = minStaff
			}
			filled += assigned
		}
	}
	if required == 0 {
		return 100
	}
	return round2(float64(filled) / float64(required) * 100)
}

func periodWeeks(params models.GenerationParams) float64 {
	days := len(expandDates(params.StartDate, params.EndDate))
	if days == 0 {
		return 0
	}
	return float64(days) / 7.0
}

// ValidateRoster re-derives understaffing warnings from a persisted
// assignment list, independent of the builder. It applies the same coverage
// rule so a just-saved roster validates clean iff the builder reported no
// understaffing.
func ValidateRoster(
	schedule models.Schedule,
	definitions []models.ShiftDefinition,
	assignments []models.ShiftAssignment,
) []models.GenerationWarning {
	counts := make(map[string]int)
	for _, a := range assignments {
		counts[overrideKey(a.Date, a.ShiftDefinitionID)]++
	}

	var warnings []models.GenerationWarning
	for _, date := range expandDates(schedule.StartDate, schedule.EndDate) {
		for _, def := range orderedDefinitions(definitions) {
			if def.MinStaff <= 0 {
				continue
			}
			assigned := counts[overrideKey(date, def.ID)]
			if assigned >= def.MinStaff {
				continue
			}
			day := dateOnly(date)
			warnings = append(warnings, models.GenerationWarning{
				Type:              models.WarningUnderstaffed,
				Severity:          models.SeverityHigh,
				Message:           fmt.Sprintf("shift %s on %s is understaffed: %d/%d", def.Name, dateKey(day), assigned, def.MinStaff),
				Date:              &day,
				ShiftDefinitionID: def.ID,
			})
		}
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].Date.Equal(*warnings[j].Date) {
			return warnings[i].ShiftDefinitionID < warnings[j].ShiftDefinitionID
		}
		return warnings[i].Date.Before(*warnings[j].Date)
	})
	return warnings
}
