package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"schedcore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (repo *mongoAvailabilityRuleRepo) Create(ctx context.Context, rule *models.AvailabilityRule) error {
	if _, err := repo.coll.InsertOne(ctx, rule); err != nil {
		return fmt.Errorf("failed to insert availability rule: %w", err)
	}
	return nil
}

func (repo *mongoAvailabilityRuleRepo) Update(ctx context.Context, rule *models.AvailabilityRule) error {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"id": rule.ID}, rule)
	if err != nil {
		return fmt.Errorf("failed to update availability rule %s: %w", rule.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("availability rule %s not found", rule.ID)
	}
	return nil
}

func (repo *mongoAvailabilityRuleRepo) GetByID(ctx context.Context, id string) (*models.AvailabilityRule, error) {
	var rule models.AvailabilityRule
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&rule); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("availability rule %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch availability rule %s: %w", id, err)
	}
	return &rule, nil
}

// ListActiveForRange returns active rules whose effective window intersects
// [from, to]. Rules with no effective_until are open-ended.
func (repo *mongoAvailabilityRuleRepo) ListActiveForRange(ctx context.Context, resourceID string, from, to time.Time) ([]models.AvailabilityRule, error) {
	filter := bson.M{
		"resource_id":    resourceID,
		"active":         true,
		"effective_from": bson.M{"$lte": to},
		"$or": bson.A{
			bson.M{"effective_until": nil},
			bson.M{"effective_until": bson.M{"$gte": from}},
		},
	}
	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability rules for %s: %w", resourceID, err)
	}
	defer cursor.Close(ctx)

	var rules []models.AvailabilityRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode availability rules: %w", err)
	}
	return rules, nil
}

func (repo *mongoAvailabilityRuleRepo) DistinctResourceIDs(ctx context.Context) ([]string, error) {
	raw, err := repo.coll.Distinct(ctx, "resource_id", bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct resources: %w", err)
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}
