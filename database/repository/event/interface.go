package eventRepo

import (
	"context"
	"errors"
	"time"

	"schedcore/database"
	"schedcore/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no event matches the given identifier.
var ErrNotFound = errors.New("scheduled event not found")

// EventRepository is the sole writer of ScheduledEvent records. Callers go
// through the scheduler service; dispatch workers claim events through the
// lease methods.
type EventRepository interface {
	Create(ctx context.Context, ev *models.ScheduledEvent) error
	GetByID(ctx context.Context, id string) (*models.ScheduledEvent, error)
	// CancelPending atomically moves a PENDING event to CANCELLED. Returns
	// false without error when the event is already claimed, dispatched,
	// failed, or cancelled — cancellation is a no-op for in-flight instances.
	CancelPending(ctx context.Context, id string) (bool, error)
	Upcoming(ctx context.Context, ownerID string, from, to time.Time) ([]models.ScheduledEvent, error)

	// ClaimDue atomically claims up to limit due events for a worker: events
	// that are PENDING, or CLAIMED with an expired lease (abandoned by a
	// crashed worker). Claimed events carry the worker identity and a lease
	// expiry so they become reclaimable if this worker stalls.
	ClaimDue(ctx context.Context, workerID string, now time.Time, leaseTTL time.Duration, limit int) ([]models.ScheduledEvent, error)
	// MarkDispatched finishes a claim. Guarded on the lease owner so a worker
	// whose lease was reclaimed cannot double-complete: returns false when the
	// claim no longer belongs to the worker.
	MarkDispatched(ctx context.Context, id, workerID string, at time.Time) (bool, error)
	// Requeue returns a claimed event to PENDING for a later retry attempt.
	Requeue(ctx context.Context, id, workerID string, nextAttempt time.Time, attempts int, lastErr string) error
	// MarkFailed dead-letters an event whose retry budget is exhausted.
	MarkFailed(ctx context.Context, id, workerID string, lastErr string) error
	ListFailed(ctx context.Context, limit int) ([]models.ScheduledEvent, error)
}

type mongoEventRepo struct {
	coll *mongo.Collection
}

// NewMongoEventRepo constructs a new MongoDB EventRepository.
func NewMongoEventRepo() EventRepository {
	return &mongoEventRepo{
		coll: database.DB().Collection("scheduled_events"),
	}
}
