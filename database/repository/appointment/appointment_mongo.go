package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"schedcore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (repo *mongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&appt); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (repo *mongoAppointmentRepo) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, error) {
	query := bson.M{}
	if filter.OwnerID != "" {
		query["$or"] = bson.A{
			bson.M{"organizer_id": filter.OwnerID},
			bson.M{"participant_ids": filter.OwnerID},
		}
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if !filter.From.IsZero() {
		query["end"] = bson.M{"$gt": filter.From}
	}
	if !filter.To.IsZero() {
		query["start"] = bson.M{"$lt": filter.To}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := repo.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, nil
}

func (repo *mongoAppointmentRepo) TransitionStatus(ctx context.Context, id string, from []models.AppointmentStatus, to models.AppointmentStatus, reason string) (*models.Appointment, error) {
	set := bson.M{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if reason != "" {
		set["cancel_reason"] = reason
	}

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var appt models.Appointment
	err := repo.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&appt)
	if err == mongo.ErrNoDocuments {
		// Distinguish a missing appointment from a disallowed transition.
		if _, getErr := repo.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition appointment %s to %s: %w", id, to, err)
	}
	return &appt, nil
}

func (repo *mongoAppointmentRepo) SetEventIDs(ctx context.Context, id string, eventIDs []string) error {
	update := bson.M{"$set": bson.M{"event_ids": eventIDs, "updated_at": time.Now().UTC()}}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set event ids for appointment %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
