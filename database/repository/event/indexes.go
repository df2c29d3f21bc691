package eventRepo

import (
	"context"
	"fmt"

	"schedcore/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes backing the claim query and owner lookups.
func EnsureIndexes(ctx context.Context) error {
	coll := database.DB().Collection("scheduled_events")
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "next_attempt_at", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "fire_at", Value: 1},
			},
		},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create scheduled event indexes: %w", err)
	}
	return nil
}
