package service

import (
	"github.com/lavoro-hq/rota-api/internal/models"
)

// optimizeRoster runs a single pairwise-swap improvement sweep over the
// working roster: for every same-date pair of assignments in different
// shifts, the two employees trade places when both swapped placements pass
// the hard-gate pipeline and the summed scores strictly improve. The sweep
// does not re-scan after an accepted swap.
func optimizeRoster(input GenerationInput, index *AssignmentIndex) (bool, int) {
	employees := make(map[string]models.Employee, len(input.Employees))
	for _, e := range input.Employees {
		employees[e.ID] = e
	}
	definitions := make(map[string]models.ShiftDefinition, len(input.ShiftDefinitions))
	for _, d := range input.ShiftDefinitions {
		definitions[d.ID] = d
	}

	swaps := 0
	for i := 0; i < index.Len(); i++ {
		for j := i + 1; j < index.Len(); j++ {
			a, b := index.At(i), index.At(j)
			if !dateOnly(a.Date).Equal(dateOnly(b.Date)) {
				continue
			}
			if a.ShiftDefinitionID == b.ShiftDefinitionID || a.EmployeeID == b.EmployeeID {
				continue
			}

			empA, okA := employees[a.EmployeeID]
			empB, okB := employees[b.EmployeeID]
			defA, okDefA := definitions[a.ShiftDefinitionID]
			defB, okDefB := definitions[b.ShiftDefinitionID]
			if !okA || !okB || !okDefA || !okDefB {
				continue
			}

			// Hide the pair under evaluation so the same-date gate judges
			// the hypothetical placements, not the current ones.
			view := index.Excluding(i, j)

			swappedA := CanEmployeeWorkShift(empB, defA, a.Date, input.EmployeeConstraints, view, input.LeaveRequests)
			if !swappedA.CanWork {
				continue
			}
			swappedB := CanEmployeeWorkShift(empA, defB, b.Date, input.EmployeeConstraints, view, input.LeaveRequests)
			if !swappedB.CanWork {
				continue
			}

			current := CalculateEmployeeScore(empA, defA, a.Date, input.EmployeeConstraints, view, input.Params) +
				CalculateEmployeeScore(empB, defB, b.Date, input.EmployeeConstraints, view, input.Params)
			proposed := CalculateEmployeeScore(empB, defA, a.Date, input.EmployeeConstraints, view, input.Params) +
				CalculateEmployeeScore(empA, defB, b.Date, input.EmployeeConstraints, view, input.Params)
			if proposed <= current {
				continue
			}

			index.SetEmployee(i, empB.ID, assignmentCost(a.HoursScheduled, empB, defA))
			index.SetEmployee(j, empA.ID, assignmentCost(b.HoursScheduled, empA, defB))
			swaps++
		}
	}
	return swaps > 0, swaps
}
