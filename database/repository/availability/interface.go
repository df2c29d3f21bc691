package availabilityRepo

import (
	"context"
	"time"

	"schedcore/database"
	"schedcore/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// AvailabilityRuleRepository stores recurring weekly availability patterns.
// The slot generator only reads rules; owners create and edit them.
type AvailabilityRuleRepository interface {
	Create(ctx context.Context, rule *models.AvailabilityRule) error
	Update(ctx context.Context, rule *models.AvailabilityRule) error
	GetByID(ctx context.Context, id string) (*models.AvailabilityRule, error)
	ListActiveForRange(ctx context.Context, resourceID string, from, to time.Time) ([]models.AvailabilityRule, error)
	DistinctResourceIDs(ctx context.Context) ([]string, error)
}

type mongoAvailabilityRuleRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRuleRepo constructs a new MongoDB AvailabilityRuleRepository.
func NewMongoAvailabilityRuleRepo() AvailabilityRuleRepository {
	return &mongoAvailabilityRuleRepo{
		coll: database.DB().Collection("availability_rules"),
	}
}
