package models

// TimeSlot represents a single bookable unit of resource time, generated
// from availability rules for a concrete calendar date.
type TimeSlot struct {
	ID            string `bson:"id" json:"id"`
	ResourceID    string `bson:"resource_id" json:"resourceId"`
	Date          string `bson:"date" json:"date"`   // "2006-01-02", resource-local
	Start         int    `bson:"start" json:"start"` // minutes from midnight (e.g., 600 for 10:00)
	End           int    `bson:"end" json:"end"`     // minutes from midnight
	Available     bool   `bson:"available" json:"available"`
	AppointmentID string `bson:"appointment_id,omitempty" json:"appointmentId,omitempty"`
}

// Occupied reports whether the slot is held by an appointment. The available
// flag is false exactly while an appointment back-reference is set.
func (ts *TimeSlot) Occupied() bool {
	return ts.AppointmentID != ""
}
