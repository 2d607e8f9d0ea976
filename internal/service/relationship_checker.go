package service

import (
	"fmt"
	"time"

	"github.com/lavoro-hq/rota-api/internal/models"
)

// CheckRelationshipConstraints evaluates pairwise relationship rules between
// two concrete assignments. A constraint applies only when both employees
// belong to its member set and it is active on the first assignment's date.
//
// SAME_DAY_OFF needs whole-roster context and is evaluated in the builder's
// post-pass, not here.
func CheckRelationshipConstraints(
	a1, a2 models.ShiftAssignment,
	constraints []models.RelationshipConstraint,
) []models.RelationshipViolation {
	var violations []models.RelationshipViolation
	sameDate := dateOnly(a1.Date).Equal(dateOnly(a2.Date))

	for _, c := range constraints {
		if !c.Covers(a1.EmployeeID, a2.EmployeeID) || !relationshipActive(c, a1.Date) {
			continue
		}
		switch c.Type {
		case models.RelationshipNeverTogether:
			if sameDate && a1.ShiftDefinitionID == a2.ShiftDefinitionID {
				violations = append(violations, violation(c, a1,
					"employees must never be scheduled on the same shift", a2.EmployeeID))
			}
		case models.RelationshipAlwaysTogether:
			if sameDate && a1.ShiftDefinitionID != a2.ShiftDefinitionID {
				violations = append(violations, violation(c, a1,
					"employees must work the same shift when scheduled on the same day", a2.EmployeeID))
			}
		}
	}
	return violations
}

func violation(c models.RelationshipConstraint, a models.ShiftAssignment, message, otherEmployee string) models.RelationshipViolation {
	return models.RelationshipViolation{
		ConstraintID: c.ID,
		Type:         c.Type,
		Message:      message,
		EmployeeIDs:  []string{a.EmployeeID, otherEmployee},
		Date:         dateOnly(a.Date),
		Severity:     severityForHardness(c.Hard),
	}
}

func severityForHardness(hard bool) models.WarningSeverity {
	if hard {
		return models.SeverityHigh
	}
	return models.SeverityLow
}

// sameDayOffWarnings runs the whole-roster SAME_DAY_OFF pass: for every
// active constrained group and date, a warning is emitted when some members
// work and others do not.
func sameDayOffWarnings(
	dates []time.Time,
	constraints []models.RelationshipConstraint,
	assignments *AssignmentIndex,
) []models.GenerationWarning {
	var warnings []models.GenerationWarning
	for _, c := range constraints {
		if c.Type != models.RelationshipSameDayOff {
			continue
		}
		members := c.Members()
		if len(members) < 2 {
			continue
		}
		for _, date := range dates {
			if !relationshipActive(c, date) {
				continue
			}
			var working, resting []string
			for _, id := range members {
				if _, on := assignments.OnDate(id, date); on {
					working = append(working, id)
				} else {
					resting = append(resting, id)
				}
			}
			if len(working) == 0 || len(resting) == 0 {
				continue
			}
			day := dateOnly(date)
			warnings = append(warnings, models.GenerationWarning{
				Type:        models.WarningSameDayOffMismatch,
				Severity:    severityForHardness(c.Hard),
				Message:     fmt.Sprintf("employees linked by a same-day-off rule are split on %s: %d working, %d off", dateKey(day), len(working), len(resting)),
				Date:        &day,
				EmployeeIDs: append(working, resting...),
			})
		}
	}
	return warnings
}
