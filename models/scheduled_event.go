package models

import "time"

// EventStatus enumerates the dispatch lifecycle of a scheduled event.
type EventStatus string

const (
	EventPending    EventStatus = "PENDING"
	EventClaimed    EventStatus = "CLAIMED"
	EventDispatched EventStatus = "DISPATCHED"
	EventFailed     EventStatus = "FAILED"
	EventCancelled  EventStatus = "CANCELLED"
)

// ScheduledEvent is the generic unit managed by the event scheduler. FireAt is
// always a UTC instant; the timezone identifiers travel with the event purely
// for payload interpretation and display. NextAttemptAt starts equal to FireAt
// and moves forward with each retry backoff, while FireAt itself is never
// rewritten, so a recurring series always advances from the original
// occurrence instant.
type ScheduledEvent struct {
	ID             string            `bson:"id" json:"id"`
	Type           string            `bson:"type" json:"type"` // caller-defined tag, e.g. "reminder"
	OwnerID        string            `bson:"owner_id" json:"ownerId"`
	FireAt         time.Time         `bson:"fire_at" json:"fireAt"`
	NextAttemptAt  time.Time         `bson:"next_attempt_at" json:"nextAttemptAt"`
	ResourceTZ     string            `bson:"resource_tz" json:"resourceTz"`
	UserTZ         string            `bson:"user_tz,omitempty" json:"userTz,omitempty"`
	ExecutionTZ    string            `bson:"execution_tz,omitempty" json:"executionTz,omitempty"`
	Payload        map[string]string `bson:"payload,omitempty" json:"payload,omitempty"`
	Recurrence     *Recurrence       `bson:"recurrence,omitempty" json:"recurrence,omitempty"`
	Status         EventStatus       `bson:"status" json:"status"`
	Attempts       int               `bson:"attempts" json:"attempts"`
	LeaseOwner     string            `bson:"lease_owner,omitempty" json:"leaseOwner,omitempty"`
	LeaseExpiresAt *time.Time        `bson:"lease_expires_at,omitempty" json:"leaseExpiresAt,omitempty"`
	LastError      string            `bson:"last_error,omitempty" json:"lastError,omitempty"`
	DispatchedAt   *time.Time        `bson:"dispatched_at,omitempty" json:"dispatchedAt,omitempty"`
	CreatedAt      time.Time         `bson:"created_at" json:"createdAt"`
}
