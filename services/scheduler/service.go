package scheduler

import (
	"context"
	"fmt"
	"time"

	eventRepo "schedcore/database/repository/event"
	"schedcore/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultEventScheduler is the production implementation backed by the event
// repository. It is the sole writer of ScheduledEvent records.
type DefaultEventScheduler struct {
	Repo   eventRepo.EventRepository
	Logger *zap.Logger
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewDefaultEventScheduler(repo eventRepo.EventRepository, logger *zap.Logger) *DefaultEventScheduler {
	return &DefaultEventScheduler{Repo: repo, Logger: logger, Now: time.Now}
}

func (s *DefaultEventScheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultEventScheduler) Schedule(ctx context.Context, req ScheduleRequest) (string, error) {
	loc, err := time.LoadLocation(req.ResourceTZ)
	if err != nil {
		return "", &InvalidTimezoneError{Zone: req.ResourceTZ, Err: err}
	}
	for _, zone := range []string{req.UserTZ, req.ExecutionTZ} {
		if zone == "" {
			continue
		}
		if _, err := time.LoadLocation(zone); err != nil {
			return "", &InvalidTimezoneError{Zone: zone, Err: err}
		}
	}
	if req.Recurrence != nil {
		if err := req.Recurrence.Validate(); err != nil {
			return "", fmt.Errorf("invalid recurrence: %w", err)
		}
	}

	// Interpret the wall-clock fields in the resource timezone; store UTC.
	local := req.FireAtLocal
	fireAt := time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), 0, loc).UTC()

	now := s.now().UTC()
	if !fireAt.After(now) {
		return "", &PastTimeError{FireAt: fireAt, Now: now}
	}

	ev := &models.ScheduledEvent{
		ID:            uuid.New().String(),
		Type:          req.Type,
		OwnerID:       req.OwnerID,
		FireAt:        fireAt,
		NextAttemptAt: fireAt,
		ResourceTZ:    req.ResourceTZ,
		UserTZ:        req.UserTZ,
		ExecutionTZ:   req.ExecutionTZ,
		Payload:       req.Payload,
		Recurrence:    req.Recurrence,
		Status:        models.EventPending,
		CreatedAt:     now,
	}

	if err := s.Repo.Create(ctx, ev); err != nil {
		return "", err
	}

	s.Logger.Debug("scheduled event",
		zap.String("eventID", ev.ID),
		zap.String("type", ev.Type),
		zap.String("ownerID", ev.OwnerID),
		zap.Time("fireAt", ev.FireAt))
	return ev.ID, nil
}

func (s *DefaultEventScheduler) Cancel(ctx context.Context, eventID string) (bool, error) {
	cancelled, err := s.Repo.CancelPending(ctx, eventID)
	if err != nil {
		return false, err
	}
	if !cancelled {
		s.Logger.Debug("cancel was a no-op", zap.String("eventID", eventID))
	}
	return cancelled, nil
}

func (s *DefaultEventScheduler) Upcoming(ctx context.Context, q UpcomingQuery) ([]models.ScheduledEvent, error) {
	from := q.From
	if from.IsZero() {
		from = s.now().UTC()
	}
	to := q.To
	if to.IsZero() {
		to = from.AddDate(0, 0, 7)
	}

	events, err := s.Repo.Upcoming(ctx, q.OwnerID, from, to)
	if err != nil {
		return nil, err
	}

	if q.DisplayTZ != "" {
		loc, err := time.LoadLocation(q.DisplayTZ)
		if err != nil {
			return nil, &InvalidTimezoneError{Zone: q.DisplayTZ, Err: err}
		}
		for i := range events {
			events[i].FireAt = events[i].FireAt.In(loc)
		}
	}
	return events, nil
}

func (s *DefaultEventScheduler) DeadLetters(ctx context.Context, limit int) ([]models.ScheduledEvent, error) {
	return s.Repo.ListFailed(ctx, limit)
}
