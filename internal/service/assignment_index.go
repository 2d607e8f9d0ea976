package service

import (
	"time"

	"github.com/lavoro-hq/rota-api/internal/models"
)

// AssignmentLookup answers per-employee queries over a working roster.
// The greedy builder and the optimizer share the same evaluator functions
// through this interface; the optimizer passes a view that hides the pair
// of rows being hypothetically swapped.
type AssignmentLookup interface {
	ForEmployee(employeeID string) []models.ShiftAssignment
}

// AssignmentIndex stores the working roster as an arena slice plus an
// employee → arena indices map, so candidate checks never regroup rows.
type AssignmentIndex struct {
	arena      []models.ShiftAssignment
	byEmployee map[string][]int
}

// NewAssignmentIndex builds an index seeded with existing assignments.
func NewAssignmentIndex(seed []models.ShiftAssignment) *AssignmentIndex {
	ix := &AssignmentIndex{byEmployee: make(map[string][]int)}
	for _, a := range seed {
		ix.Add(a)
	}
	return ix
}

// Add appends an assignment to the arena.
func (ix *AssignmentIndex) Add(a models.ShiftAssignment) {
	ix.arena = append(ix.arena, a)
	ix.byEmployee[a.EmployeeID] = append(ix.byEmployee[a.EmployeeID], len(ix.arena)-1)
}

// Len returns the number of indexed assignments.
func (ix *AssignmentIndex) Len() int {
	return len(ix.arena)
}

// At returns the assignment stored at the given arena position.
func (ix *AssignmentIndex) At(i int) models.ShiftAssignment {
	return ix.arena[i]
}

// ForEmployee returns all assignments held by one employee.
func (ix *AssignmentIndex) ForEmployee(employeeID string) []models.ShiftAssignment {
	indices := ix.byEmployee[employeeID]
	if len(indices) == 0 {
		return nil
	}
	out := make([]models.ShiftAssignment, 0, len(indices))
	for _, i := range indices {
		out = append(out, ix.arena[i])
	}
	return out
}

// OnDate returns the employee's assignment for a calendar date, if any.
func (ix *AssignmentIndex) OnDate(employeeID string, date time.Time) (models.ShiftAssignment, bool) {
	day := dateOnly(date)
	for _, i := range ix.byEmployee[employeeID] {
		if dateOnly(ix.arena[i].Date).Equal(day) {
			return ix.arena[i], true
		}
	}
	return models.ShiftAssignment{}, false
}

// SetEmployee rebinds an arena row to a different employee and cost.
// Hours stay untouched since the underlying shift does not change.
func (ix *AssignmentIndex) SetEmployee(i int, employeeID string, cost float64) {
	old := ix.arena[i].EmployeeID
	ix.arena[i].EmployeeID = employeeID
	ix.arena[i].CostEstimated = cost

	indices := ix.byEmployee[old]
	for pos, idx := range indices {
		if idx == i {
			ix.byEmployee[old] = append(indices[:pos], indices[pos+1:]...)
			break
		}
	}
	ix.byEmployee[employeeID] = append(ix.byEmployee[employeeID], i)
}

// All returns a copy of the arena in insertion order.
func (ix *AssignmentIndex) All() []models.ShiftAssignment {
	out := make([]models.ShiftAssignment, len(ix.arena))
	copy(out, ix.arena)
	return out
}

// Excluding returns a lookup view that hides the given arena positions.
func (ix *AssignmentIndex) Excluding(positions ...int) AssignmentLookup {
	excluded := make(map[int]bool, len(positions))
	for _, p := range positions {
		excluded[p] = true
	}
	return &assignmentView{index: ix, excluded: excluded}
}

type assignmentView struct {
	index    *AssignmentIndex
	excluded map[int]bool
}

func (v *assignmentView) ForEmployee(employeeID string) []models.ShiftAssignment {
	var out []models.ShiftAssignment
	for _, i := range v.index.byEmployee[employeeID] {
		if v.excluded[i] {
			continue
		}
		out = append(out, v.index.arena[i])
	}
	return out
}
