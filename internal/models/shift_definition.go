package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ShiftDefinition is a venue-scoped template for a recurring work slot.
type ShiftDefinition struct {
	ID             string         `db:"id" json:"id"`
	VenueID        string         `db:"venue_id" json:"venue_id"`
	Name           string         `db:"name" json:"name"`
	Code           string         `db:"code" json:"code"`
	Color          string         `db:"color" json:"color"`
	StartTime      string         `db:"start_time" json:"start_time"`
	EndTime        string         `db:"end_time" json:"end_time"`
	BreakMinutes   int            `db:"break_minutes" json:"break_minutes"`
	MinStaff       int            `db:"min_staff" json:"min_staff"`
	MaxStaff       int            `db:"max_staff" json:"max_staff"`
	RequiredSkills types.JSONText `db:"required_skills" json:"required_skills"`
	RateMultiplier float64        `db:"rate_multiplier" json:"rate_multiplier"`
	Position       int            `db:"position" json:"position"`
	Active         bool           `db:"active" json:"active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// RequiredSkillSet decodes the JSON skill requirement column.
func (d ShiftDefinition) RequiredSkillSet() []string {
	var skills []string
	_ = d.RequiredSkills.Unmarshal(&skills)
	return skills
}

// EffectiveMaxStaff resolves the staffing ceiling, defaulting to minStaff+2.
func (d ShiftDefinition) EffectiveMaxStaff() int {
	if d.MaxStaff > 0 {
		return d.MaxStaff
	}
	return d.MinStaff + DefaultMaxStaffSlack
}

// EffectiveRateMultiplier resolves the pay multiplier, defaulting to 1.0.
func (d ShiftDefinition) EffectiveRateMultiplier() float64 {
	if d.RateMultiplier > 0 {
		return d.RateMultiplier
	}
	return DefaultRateMultiplier
}
