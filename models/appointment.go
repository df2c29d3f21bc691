package models

import "time"

// AppointmentStatus enumerates the lifecycle states of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled  AppointmentStatus = "SCHEDULED"
	AppointmentConfirmed  AppointmentStatus = "CONFIRMED"
	AppointmentInProgress AppointmentStatus = "IN_PROGRESS"
	AppointmentCompleted  AppointmentStatus = "COMPLETED"
	AppointmentCancelled  AppointmentStatus = "CANCELLED"
	AppointmentNoShow     AppointmentStatus = "NO_SHOW"
)

// ActiveStatuses are the states that occupy resource time. Two appointments
// in any of these states may never overlap for the same resource.
var ActiveStatuses = []AppointmentStatus{
	AppointmentScheduled,
	AppointmentConfirmed,
	AppointmentInProgress,
}

// Terminal reports whether the status can never be exited.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// Appointment represents a booked interval between an organizer and participants.
// Start and End are always stored in UTC; the timezone identifiers are kept
// separately as IANA names so display stays correct across DST rule changes.
type Appointment struct {
	ID             string            `bson:"id" json:"id"`
	OrganizerID    string            `bson:"organizer_id" json:"organizerId"`
	ParticipantIDs []string          `bson:"participant_ids" json:"participantIds"`
	Start          time.Time         `bson:"start" json:"start"`
	End            time.Time         `bson:"end" json:"end"`
	ResourceTZ     string            `bson:"resource_tz" json:"resourceTz"`
	UserTZ         string            `bson:"user_tz" json:"userTz"`
	Status         AppointmentStatus `bson:"status" json:"status"`
	Metadata       map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	EventIDs       []string          `bson:"event_ids,omitempty" json:"eventIds,omitempty"`
	CancelReason   string            `bson:"cancel_reason,omitempty" json:"cancelReason,omitempty"`
	CreatedAt      time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time         `bson:"updated_at" json:"updatedAt"`
}

// ResourceIDs returns every identity whose time the appointment occupies:
// the organizer plus all participants, in their stored order.
func (a *Appointment) ResourceIDs() []string {
	ids := make([]string, 0, len(a.ParticipantIDs)+1)
	ids = append(ids, a.OrganizerID)
	ids = append(ids, a.ParticipantIDs...)
	return ids
}

// Overlaps reports whether the appointment's half-open interval [Start, End)
// intersects [start, end). Back-to-back intervals do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.Start.Before(end) && a.End.After(start)
}

// AppointmentFilter narrows List queries.
type AppointmentFilter struct {
	OwnerID string
	Status  AppointmentStatus
	From    time.Time
	To      time.Time
}
