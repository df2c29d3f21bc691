// File: database/repository/timeslot/interface.go
package timeslotRepo

import (
	"context"

	"schedcore/database"
	"schedcore/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// TimeSlotRepository stores concrete, date-bound bookable slots. Occupying and
// freeing slots as part of a booking happens inside the booking repository's
// transaction; this repository covers generation and the read paths.
type TimeSlotRepository interface {
	// CreateMany inserts slots with unordered writes, silently skipping
	// duplicate (resource, date, start) keys. Returns the number inserted.
	CreateMany(ctx context.Context, slots []models.TimeSlot) (int, error)
	ListForRange(ctx context.Context, resourceID, fromDate, toDate string) ([]models.TimeSlot, error)
	ListAvailable(ctx context.Context, resourceID, fromDate, toDate string) ([]models.TimeSlot, error)
	ListByAppointment(ctx context.Context, appointmentID string) ([]models.TimeSlot, error)
}

type mongoTimeSlotRepo struct {
	coll *mongo.Collection
}

// NewMongoTimeSlotRepo constructs a new MongoDB TimeSlotRepository.
func NewMongoTimeSlotRepo() TimeSlotRepository {
	return &mongoTimeSlotRepo{
		coll: database.DB().Collection("timeslots"),
	}
}
