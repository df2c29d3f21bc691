package timeslotRepo

import (
	"context"
	"fmt"

	"schedcore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (repo *mongoTimeSlotRepo) CreateMany(ctx context.Context, slots []models.TimeSlot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	writes := make([]mongo.WriteModel, 0, len(slots))
	for i := range slots {
		writes = append(writes, mongo.NewInsertOneModel().SetDocument(slots[i]))
	}

	// Unordered so one duplicate key does not abort the rest of the batch.
	res, err := repo.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		if bulkErr, ok := err.(mongo.BulkWriteException); ok && allDuplicateKey(bulkErr) {
			if res != nil {
				return int(res.InsertedCount), nil
			}
			return 0, nil
		}
		return 0, fmt.Errorf("failed to bulk insert timeslots: %w", err)
	}
	return int(res.InsertedCount), nil
}

func allDuplicateKey(bulkErr mongo.BulkWriteException) bool {
	for _, we := range bulkErr.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return len(bulkErr.WriteErrors) > 0
}

func (repo *mongoTimeSlotRepo) ListForRange(ctx context.Context, resourceID, fromDate, toDate string) ([]models.TimeSlot, error) {
	filter := bson.M{
		"resource_id": resourceID,
		"date":        bson.M{"$gte": fromDate, "$lte": toDate},
	}
	return repo.list(ctx, filter)
}

func (repo *mongoTimeSlotRepo) ListAvailable(ctx context.Context, resourceID, fromDate, toDate string) ([]models.TimeSlot, error) {
	filter := bson.M{
		"resource_id": resourceID,
		"date":        bson.M{"$gte": fromDate, "$lte": toDate},
		"available":   true,
	}
	return repo.list(ctx, filter)
}

func (repo *mongoTimeSlotRepo) ListByAppointment(ctx context.Context, appointmentID string) ([]models.TimeSlot, error) {
	return repo.list(ctx, bson.M{"appointment_id": appointmentID})
}

func (repo *mongoTimeSlotRepo) list(ctx context.Context, filter bson.M) ([]models.TimeSlot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}})
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeslots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []models.TimeSlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode timeslots: %w", err)
	}
	return slots, nil
}
