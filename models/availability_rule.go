package models

import "time"

// BreakWindow is an optional unavailable stretch inside a rule's daily window,
// in minutes from midnight.
type BreakWindow struct {
	Start int `bson:"start" json:"start"`
	End   int `bson:"end" json:"end"`
}

// AvailabilityRule is a recurring weekly availability pattern for a resource.
// Rules are owned by the resource; the slot generator only reads them and an
// appointment never references one directly.
type AvailabilityRule struct {
	ID             string       `bson:"id" json:"id"`
	ResourceID     string       `bson:"resource_id" json:"resourceId"`
	Weekday        time.Weekday `bson:"weekday" json:"weekday"` // 0 = Sunday
	Start          int          `bson:"start" json:"start"`     // minutes from midnight
	End            int          `bson:"end" json:"end"`
	Break          *BreakWindow `bson:"break,omitempty" json:"break,omitempty"`
	EffectiveFrom  time.Time    `bson:"effective_from" json:"effectiveFrom"`
	EffectiveUntil *time.Time   `bson:"effective_until,omitempty" json:"effectiveUntil,omitempty"`
	Active         bool         `bson:"active" json:"active"`
}

// AppliesTo reports whether the rule is in effect on the given calendar date.
func (r *AvailabilityRule) AppliesTo(date time.Time) bool {
	if !r.Active || date.Weekday() != r.Weekday {
		return false
	}
	day := date.Format("2006-01-02")
	if day < r.EffectiveFrom.Format("2006-01-02") {
		return false
	}
	if r.EffectiveUntil != nil && day > r.EffectiveUntil.Format("2006-01-02") {
		return false
	}
	return true
}
