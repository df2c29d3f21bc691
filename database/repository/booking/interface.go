package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schedcore/database"
	"schedcore/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ConflictError reports that a proposed interval collides with an existing
// active appointment. It names the colliding appointment so the caller gets an
// actionable reason.
type ConflictError struct {
	ConflictingID string
	ResourceID    string
	Start         time.Time
	End           time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("interval conflicts with appointment %s (%s - %s)",
		e.ConflictingID, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// ErrNotReleasable is returned by ReleaseTransactionally when the appointment
// exists but its current status is not in the allowed set.
var ErrNotReleasable = errors.New("appointment is not in a releasable state")

// BookingRepository is the transactional write side of the conflict detector.
// Every method runs its overlap check and mutation inside a single MongoDB
// transaction so no two concurrent bookings can both win an overlapping
// interval: the first committer wins, the loser sees a ConflictError.
type BookingRepository interface {
	// ReserveTransactionally checks the appointment's interval against all
	// involved resources, inserts the appointment, and marks overlapping
	// timeslots occupied. Returns *ConflictError on collision.
	ReserveTransactionally(ctx context.Context, appt *models.Appointment) error
	// RescheduleTransactionally validates the new interval (excluding the
	// appointment itself), updates it, frees the old slots and occupies the
	// new ones. On *ConflictError nothing changes.
	RescheduleTransactionally(ctx context.Context, apptID string, newStart, newEnd time.Time) (*models.Appointment, error)
	// ReleaseTransactionally performs a guarded terminal transition and frees
	// every timeslot referencing the appointment in one transaction.
	ReleaseTransactionally(ctx context.Context, apptID string, from []models.AppointmentStatus, to models.AppointmentStatus, reason string) (*models.Appointment, error)
}

type mongoBookingRepo struct {
	apptColl *mongo.Collection
	slotColl *mongo.Collection
	lockColl *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	db := database.DB()
	return &mongoBookingRepo{
		apptColl: db.Collection("appointments"),
		slotColl: db.Collection("timeslots"),
		lockColl: db.Collection("resource_locks"),
	}
}
