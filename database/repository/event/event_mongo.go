package eventRepo

import (
	"context"
	"fmt"
	"time"

	"schedcore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (repo *mongoEventRepo) Create(ctx context.Context, ev *models.ScheduledEvent) error {
	if _, err := repo.coll.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("failed to insert scheduled event: %w", err)
	}
	return nil
}

func (repo *mongoEventRepo) GetByID(ctx context.Context, id string) (*models.ScheduledEvent, error) {
	var ev models.ScheduledEvent
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&ev); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch scheduled event %s: %w", id, err)
	}
	return &ev, nil
}

func (repo *mongoEventRepo) CancelPending(ctx context.Context, id string) (bool, error) {
	filter := bson.M{"id": id, "status": models.EventPending}
	update := bson.M{"$set": bson.M{"status": models.EventCancelled}}

	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to cancel scheduled event %s: %w", id, err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	// Not pending: confirm the event exists so missing ids still error.
	if _, err := repo.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (repo *mongoEventRepo) Upcoming(ctx context.Context, ownerID string, from, to time.Time) ([]models.ScheduledEvent, error) {
	filter := bson.M{
		"status":  models.EventPending,
		"fire_at": bson.M{"$gte": from, "$lt": to},
	}
	if ownerID != "" {
		filter["owner_id"] = ownerID
	}

	opts := options.Find().SetSort(bson.D{{Key: "fire_at", Value: 1}})
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.ScheduledEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode upcoming events: %w", err)
	}
	return events, nil
}

func (repo *mongoEventRepo) ListFailed(ctx context.Context, limit int) ([]models.ScheduledEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fire_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := repo.coll.Find(ctx, bson.M{"status": models.EventFailed}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query dead-letter events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.ScheduledEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode dead-letter events: %w", err)
	}
	return events, nil
}
