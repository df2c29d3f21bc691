package appointmentRepo

import (
	"context"
	"errors"

	"schedcore/database"
	"schedcore/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no appointment matches the given identifier.
var ErrNotFound = errors.New("appointment not found")

// ErrInvalidTransition is returned when a guarded status update matched the
// appointment but its current status was not in the allowed set.
var ErrInvalidTransition = errors.New("appointment status transition not allowed")

// AppointmentRepository covers reads and status mutations of appointments.
// Creation and interval changes go through the booking repository so they stay
// inside the conflict-check transaction.
type AppointmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, error)
	// TransitionStatus atomically moves the appointment from one of the
	// allowed states to the target state. Returns ErrInvalidTransition when
	// the current status is not in the allowed set.
	TransitionStatus(ctx context.Context, id string, from []models.AppointmentStatus, to models.AppointmentStatus, reason string) (*models.Appointment, error)
	SetEventIDs(ctx context.Context, id string, eventIDs []string) error
}

type mongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo constructs a new MongoDB AppointmentRepository.
func NewMongoAppointmentRepo() AppointmentRepository {
	return &mongoAppointmentRepo{
		coll: database.DB().Collection("appointments"),
	}
}
