package appointmentRepo

import (
	"context"
	"fmt"

	"schedcore/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes backing overlap queries and owner lookups.
func EnsureIndexes(ctx context.Context) error {
	coll := database.DB().Collection("appointments")
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "organizer_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "start", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "participant_ids", Value: 1},
				{Key: "status", Value: 1},
				{Key: "start", Value: 1},
			},
		},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create appointment indexes: %w", err)
	}
	return nil
}
