package dto

import (
	"time"

	"github.com/lavoro-hq/rota-api/internal/models"
)

// GenerateRosterRequest asks the engine for a roster proposal covering the
// schedule's venue and period. Overrides are keyed by
// "YYYY-MM-DD|shiftDefinitionId".
type GenerateRosterRequest struct {
	ScheduleID        string         `json:"scheduleId" validate:"required"`
	PreferFixedStaff  bool           `json:"preferFixedStaff"`
	BalanceHours      bool           `json:"balanceHours"`
	MinimizeCost      bool           `json:"minimizeCost"`
	MinStaffOverrides map[string]int `json:"minStaffOverrides" validate:"omitempty,dive,min=0"`
}

// RosterProposalResponse returns the generated proposal for preview.
type RosterProposalResponse struct {
	ProposalID  string                     `json:"proposalId"`
	ScheduleID  string                     `json:"scheduleId"`
	Success     bool                       `json:"success"`
	Assignments []models.ShiftAssignment   `json:"assignments"`
	Warnings    []models.GenerationWarning `json:"warnings"`
	Stats       models.ScheduleStatistics  `json:"stats"`
}

// SaveRosterRequest persists an accepted proposal.
type SaveRosterRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// ValidateScheduleResponse reports the post-hoc understaffing re-check of a
// persisted roster.
type ValidateScheduleResponse struct {
	ScheduleID string                     `json:"scheduleId"`
	Valid      bool                       `json:"valid"`
	Warnings   []models.GenerationWarning `json:"warnings"`
}

// RosterResponse returns the persisted roster for a schedule.
type RosterResponse struct {
	ScheduleID  string                   `json:"scheduleId"`
	VenueID     string                   `json:"venueId"`
	Status      models.ScheduleStatus    `json:"status"`
	Assignments []models.ShiftAssignment `json:"assignments"`
}

// ExportRosterRequest asks for an exported copy of a persisted roster.
type ExportRosterRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportRosterResponse acknowledges a queued export job.
type ExportRosterResponse struct {
	JobID       string     `json:"jobId"`
	Status      string     `json:"status"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}
