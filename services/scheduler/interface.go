package scheduler

import (
	"context"
	"time"

	"schedcore/models"
)

// ScheduleRequest describes a single-shot or recurring event to register.
// FireAtLocal carries wall-clock fields only; they are interpreted in
// ResourceTZ and stored as a UTC instant.
type ScheduleRequest struct {
	Type        string
	OwnerID     string
	FireAtLocal time.Time
	ResourceTZ  string
	UserTZ      string
	ExecutionTZ string
	Payload     map[string]string
	Recurrence  *models.Recurrence
}

// UpcomingQuery narrows the read-only upcoming-events view. DisplayTZ only
// affects presentation; storage stays UTC.
type UpcomingQuery struct {
	OwnerID   string
	From      time.Time
	To        time.Time
	DisplayTZ string
}

// EventScheduler is the generic, timezone-aware scheduling primitive. Any
// business module may register events through it; appointments are just one
// caller.
type EventScheduler interface {
	// Schedule persists a due-event record and returns its identifier.
	// Fails with *InvalidTimezoneError or *PastTimeError on bad input.
	Schedule(ctx context.Context, req ScheduleRequest) (string, error)
	// Cancel is idempotent: it returns false (without error) when the event
	// was already dispatched, cancelled, or is claimed in flight.
	Cancel(ctx context.Context, eventID string) (bool, error)
	Upcoming(ctx context.Context, q UpcomingQuery) ([]models.ScheduledEvent, error)
	DeadLetters(ctx context.Context, limit int) ([]models.ScheduledEvent, error)
}
