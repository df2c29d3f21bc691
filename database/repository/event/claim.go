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

// ClaimDue uses one FindOneAndUpdate per event rather than a long-held lock:
// the optimistic claim-with-lease means a stalled worker can never block a due
// event, because an expired lease makes it claimable again.
func (repo *mongoEventRepo) ClaimDue(ctx context.Context, workerID string, now time.Time, leaseTTL time.Duration, limit int) ([]models.ScheduledEvent, error) {
	expiry := now.Add(leaseTTL)
	filter := bson.M{
		"next_attempt_at": bson.M{"$lte": now},
		"$or": bson.A{
			bson.M{"status": models.EventPending},
			bson.M{"status": models.EventClaimed, "lease_expires_at": bson.M{"$lt": now}},
		},
	}
	update := bson.M{"$set": bson.M{
		"status":           models.EventClaimed,
		"lease_owner":      workerID,
		"lease_expires_at": expiry,
	}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "fire_at", Value: 1}})

	var claimed []models.ScheduledEvent
	for i := 0; i < limit; i++ {
		var ev models.ScheduledEvent
		err := repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ev)
		if err == mongo.ErrNoDocuments {
			break
		}
		if err != nil {
			return claimed, fmt.Errorf("failed to claim due event: %w", err)
		}
		claimed = append(claimed, ev)
	}
	return claimed, nil
}

func (repo *mongoEventRepo) MarkDispatched(ctx context.Context, id, workerID string, at time.Time) (bool, error) {
	filter := bson.M{"id": id, "status": models.EventClaimed, "lease_owner": workerID}
	update := bson.M{
		"$set": bson.M{
			"status":        models.EventDispatched,
			"dispatched_at": at,
		},
		"$unset": bson.M{"lease_owner": "", "lease_expires_at": ""},
	}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark event %s dispatched: %w", id, err)
	}
	return res.MatchedCount == 1, nil
}

// Requeue only moves next_attempt_at; fire_at keeps the original occurrence
// instant so recurring series never absorb retry delay.
func (repo *mongoEventRepo) Requeue(ctx context.Context, id, workerID string, nextAttempt time.Time, attempts int, lastErr string) error {
	filter := bson.M{"id": id, "status": models.EventClaimed, "lease_owner": workerID}
	update := bson.M{
		"$set": bson.M{
			"status":          models.EventPending,
			"next_attempt_at": nextAttempt,
			"attempts":        attempts,
			"last_error":      lastErr,
		},
		"$unset": bson.M{"lease_owner": "", "lease_expires_at": ""},
	}
	if _, err := repo.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to requeue event %s: %w", id, err)
	}
	return nil
}

func (repo *mongoEventRepo) MarkFailed(ctx context.Context, id, workerID string, lastErr string) error {
	filter := bson.M{"id": id, "status": models.EventClaimed, "lease_owner": workerID}
	update := bson.M{
		"$set": bson.M{
			"status":     models.EventFailed,
			"last_error": lastErr,
		},
		"$unset": bson.M{"lease_owner": "", "lease_expires_at": ""},
	}
	if _, err := repo.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to dead-letter event %s: %w", id, err)
	}
	return nil
}
