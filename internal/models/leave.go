package models

import "time"

// LeaveStatus tracks the approval state of a leave request.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "PENDING"
	LeaveStatusApproved LeaveStatus = "APPROVED"
	LeaveStatusRejected LeaveStatus = "REJECTED"
)

// LeaveRequest is an employee absence window. Only APPROVED requests are
// fed to the generation engine, where an overlapping request vetoes the day.
type LeaveRequest struct {
	ID         string      `db:"id" json:"id"`
	EmployeeID string      `db:"employee_id" json:"employee_id"`
	StartDate  time.Time   `db:"start_date" json:"start_date"`
	EndDate    time.Time   `db:"end_date" json:"end_date"`
	Status     LeaveStatus `db:"status" json:"status"`
	Reason     string      `db:"reason" json:"reason"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`
}

// CoversDate reports whether the request spans the given calendar date.
func (l LeaveRequest) CoversDate(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	return !day.Before(l.StartDate.Truncate(24*time.Hour)) && !day.After(l.EndDate.Truncate(24*time.Hour))
}
