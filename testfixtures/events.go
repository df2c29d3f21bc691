package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	eventRepo "schedcore/database/repository/event"
	"schedcore/models"
)

// FakeEventRepo is an in-memory EventRepository with the same claim-with-lease
// guards as the MongoDB implementation: completion, requeue and failure are all
// conditional on the worker still owning the claim.
type FakeEventRepo struct {
	mu    sync.Mutex
	items map[string]*models.ScheduledEvent
}

func NewFakeEventRepo() *FakeEventRepo {
	return &FakeEventRepo{items: make(map[string]*models.ScheduledEvent)}
}

func (r *FakeEventRepo) Create(_ context.Context, ev *models.ScheduledEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ev
	r.items[ev.ID] = &cp
	return nil
}

func (r *FakeEventRepo) GetByID(_ context.Context, id string) (*models.ScheduledEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.items[id]
	if !ok {
		return nil, eventRepo.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (r *FakeEventRepo) CancelPending(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.items[id]
	if !ok {
		return false, eventRepo.ErrNotFound
	}
	if ev.Status != models.EventPending {
		return false, nil
	}
	ev.Status = models.EventCancelled
	return true, nil
}

func (r *FakeEventRepo) Upcoming(_ context.Context, ownerID string, from, to time.Time) ([]models.ScheduledEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ScheduledEvent
	for _, ev := range r.items {
		if ev.Status != models.EventPending {
			continue
		}
		if ownerID != "" && ev.OwnerID != ownerID {
			continue
		}
		if ev.FireAt.Before(from) || !ev.FireAt.Before(to) {
			continue
		}
		out = append(out, *ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out, nil
}

func (r *FakeEventRepo) ClaimDue(_ context.Context, workerID string, now time.Time, leaseTTL time.Duration, limit int) ([]models.ScheduledEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*models.ScheduledEvent
	for _, ev := range r.items {
		if ev.NextAttemptAt.After(now) {
			continue
		}
		switch {
		case ev.Status == models.EventPending:
			due = append(due, ev)
		case ev.Status == models.EventClaimed && ev.LeaseExpiresAt != nil && ev.LeaseExpiresAt.Before(now):
			due = append(due, ev)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].FireAt.Before(due[j].FireAt) })

	if len(due) > limit {
		due = due[:limit]
	}
	expiry := now.Add(leaseTTL)
	var claimed []models.ScheduledEvent
	for _, ev := range due {
		ev.Status = models.EventClaimed
		ev.LeaseOwner = workerID
		exp := expiry
		ev.LeaseExpiresAt = &exp
		claimed = append(claimed, *ev)
	}
	return claimed, nil
}

func (r *FakeEventRepo) MarkDispatched(_ context.Context, id, workerID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.items[id]
	if !ok || ev.Status != models.EventClaimed || ev.LeaseOwner != workerID {
		return false, nil
	}
	ev.Status = models.EventDispatched
	ev.DispatchedAt = &at
	ev.LeaseOwner = ""
	ev.LeaseExpiresAt = nil
	return true, nil
}

func (r *FakeEventRepo) Requeue(_ context.Context, id, workerID string, nextAttempt time.Time, attempts int, lastErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.items[id]
	if !ok || ev.Status != models.EventClaimed || ev.LeaseOwner != workerID {
		return nil
	}
	ev.Status = models.EventPending
	ev.NextAttemptAt = nextAttempt
	ev.Attempts = attempts
	ev.LastError = lastErr
	ev.LeaseOwner = ""
	ev.LeaseExpiresAt = nil
	return nil
}

func (r *FakeEventRepo) MarkFailed(_ context.Context, id, workerID string, lastErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.items[id]
	if !ok || ev.Status != models.EventClaimed || ev.LeaseOwner != workerID {
		return nil
	}
	ev.Status = models.EventFailed
	ev.LastError = lastErr
	ev.LeaseOwner = ""
	ev.LeaseExpiresAt = nil
	return nil
}

func (r *FakeEventRepo) ListFailed(_ context.Context, limit int) ([]models.ScheduledEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ScheduledEvent
	for _, ev := range r.items {
		if ev.Status == models.EventFailed {
			out = append(out, *ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.After(out[j].FireAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// All returns a snapshot of every stored event, for assertions.
func (r *FakeEventRepo) All() []models.ScheduledEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ScheduledEvent, 0, len(r.items))
	for _, ev := range r.items {
		out = append(out, *ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}
