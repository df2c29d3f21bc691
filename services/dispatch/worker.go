package dispatch

import (
	"context"
	"strings"
	"time"

	"schedcore/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// processEvent pushes one claimed event through delivery. On success for a
// recurring event, the next occurrence is inserted before the current one is
// marked dispatched, so a crash between the two steps re-runs delivery
// (idempotent downstream) rather than silently dropping the series.
func (c *Coordinator) processEvent(ctx context.Context, workerID string, ev *models.ScheduledEvent, logger *zap.Logger) {
	recipients := splitRecipients(ev.Payload["recipients"])

	if err := c.Deliver.Deliver(ctx, recipients, ev.Type, ev.Payload); err != nil {
		c.handleFailure(ctx, workerID, ev, err, logger)
		return
	}

	if ev.Recurrence != nil {
		if err := c.insertNextOccurrence(ctx, ev); err != nil {
			logger.Error("failed to materialize next occurrence, keeping current claim for retry",
				zap.String("eventID", ev.ID), zap.Error(err))
			c.handleFailure(ctx, workerID, ev, err, logger)
			return
		}
	}

	done, err := c.Events.MarkDispatched(ctx, ev.ID, workerID, c.now())
	if err != nil {
		logger.Error("failed to mark event dispatched", zap.String("eventID", ev.ID), zap.Error(err))
		return
	}
	if !done {
		// Lease was reclaimed while we delivered; the other claimant owns the
		// terminal state now.
		logger.Warn("lease lost before completion", zap.String("eventID", ev.ID))
		return
	}
	logger.Info("event dispatched",
		zap.String("eventID", ev.ID),
		zap.String("type", ev.Type),
		zap.Int("attempts", ev.Attempts))
}

func (c *Coordinator) handleFailure(ctx context.Context, workerID string, ev *models.ScheduledEvent, cause error, logger *zap.Logger) {
	attempts := ev.Attempts + 1
	if attempts >= c.Cfg.MaxAttempts {
		// Only this occurrence is dead-lettered; the series goes on. The next
		// occurrence is inserted first, same ordering as the success path.
		if ev.Recurrence != nil {
			if err := c.insertNextOccurrence(ctx, ev); err != nil {
				logger.Error("failed to materialize next occurrence of failed event",
					zap.String("eventID", ev.ID), zap.Error(err))
			}
		}
		if err := c.Events.MarkFailed(ctx, ev.ID, workerID, cause.Error()); err != nil {
			logger.Error("failed to dead-letter event", zap.String("eventID", ev.ID), zap.Error(err))
			return
		}
		logger.Error("event dead-lettered after exhausting retries",
			zap.String("eventID", ev.ID),
			zap.Int("attempts", attempts),
			zap.Error(cause))
		return
	}

	delay := c.backoff(attempts)
	if err := c.Events.Requeue(ctx, ev.ID, workerID, c.now().Add(delay), attempts, cause.Error()); err != nil {
		logger.Error("failed to requeue event", zap.String("eventID", ev.ID), zap.Error(err))
		return
	}
	logger.Warn("delivery failed, event requeued",
		zap.String("eventID", ev.ID),
		zap.Int("attempts", attempts),
		zap.Duration("retryIn", delay),
		zap.Error(cause))
}

// insertNextOccurrence materializes the following occurrence of a recurring
// series as a fresh PENDING record. The current record's fire time is never
// rewritten; every occurrence is its own row.
func (c *Coordinator) insertNextOccurrence(ctx context.Context, ev *models.ScheduledEvent) error {
	next, ok, err := ev.Recurrence.Next(ev.FireAt)
	if err != nil {
		return err
	}
	if !ok {
		// Series exhausted its Until bound.
		return nil
	}

	occurrence := &models.ScheduledEvent{
		ID:            uuid.New().String(),
		Type:          ev.Type,
		OwnerID:       ev.OwnerID,
		FireAt:        next,
		NextAttemptAt: next,
		ResourceTZ:    ev.ResourceTZ,
		UserTZ:        ev.UserTZ,
		ExecutionTZ:   ev.ExecutionTZ,
		Payload:       ev.Payload,
		Recurrence:    ev.Recurrence,
		Status:        models.EventPending,
		CreatedAt:     c.now(),
	}
	return c.Events.Create(ctx, occurrence)
}

// backoff grows exponentially from the configured base, capped at the maximum.
func (c *Coordinator) backoff(attempts int) time.Duration {
	delay := c.Cfg.BackoffBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= c.Cfg.BackoffMax {
			return c.Cfg.BackoffMax
		}
	}
	if delay > c.Cfg.BackoffMax {
		return c.Cfg.BackoffMax
	}
	return delay
}

func splitRecipients(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
