package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"schedcore/models"
	"schedcore/testfixtures"

	"go.uber.org/zap"
)

func newSchedulerHarness(now time.Time) (*DefaultEventScheduler, *testfixtures.FakeEventRepo, *testfixtures.Clock) {
	repo := testfixtures.NewFakeEventRepo()
	clock := testfixtures.NewClock(now)
	svc := NewDefaultEventScheduler(repo, zap.NewNop())
	svc.Now = clock.Now
	return svc, repo, clock
}

func TestScheduleInterpretsWallClockInResourceTimezone(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, repo, _ := newSchedulerHarness(now)

	// 09:00 wall clock in New York during EDT is 13:00 UTC.
	local := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	id, err := svc.Schedule(context.Background(), ScheduleRequest{
		Type:        "reminder",
		OwnerID:     "owner-1",
		FireAtLocal: local,
		ResourceTZ:  "America/New_York",
	})
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	ev, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	want := time.Date(2025, time.June, 2, 13, 0, 0, 0, time.UTC)
	if !ev.FireAt.Equal(want) {
		t.Fatalf("expected fire at %v, got %v", want, ev.FireAt)
	}
	if ev.Status != models.EventPending {
		t.Fatalf("expected PENDING, got %s", ev.Status)
	}
}

func TestScheduleRejectsBadInput(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newSchedulerHarness(now)
	ctx := context.Background()
	future := now.Add(48 * time.Hour)

	_, err := svc.Schedule(ctx, ScheduleRequest{Type: "x", FireAtLocal: future, ResourceTZ: "Not/AZone"})
	var tzErr *InvalidTimezoneError
	if !errors.As(err, &tzErr) {
		t.Fatalf("expected InvalidTimezoneError, got %v", err)
	}

	_, err = svc.Schedule(ctx, ScheduleRequest{Type: "x", FireAtLocal: future, ResourceTZ: "UTC", UserTZ: "Bad/Zone"})
	if !errors.As(err, &tzErr) {
		t.Fatalf("expected InvalidTimezoneError for user tz, got %v", err)
	}

	_, err = svc.Schedule(ctx, ScheduleRequest{Type: "x", FireAtLocal: now.Add(-time.Hour), ResourceTZ: "UTC"})
	var pastErr *PastTimeError
	if !errors.As(err, &pastErr) {
		t.Fatalf("expected PastTimeError, got %v", err)
	}

	_, err = svc.Schedule(ctx, ScheduleRequest{
		Type:        "x",
		FireAtLocal: future,
		ResourceTZ:  "UTC",
		Recurrence:  &models.Recurrence{Frequency: models.FrequencyDaily, Interval: 0, Timezone: "UTC"},
	})
	if err == nil {
		t.Fatal("expected an error for invalid recurrence")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newSchedulerHarness(now)
	ctx := context.Background()

	id, err := svc.Schedule(ctx, ScheduleRequest{Type: "reminder", FireAtLocal: now.Add(time.Hour), ResourceTZ: "UTC"})
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, id)
	if err != nil || !cancelled {
		t.Fatalf("first cancel: cancelled=%v err=%v", cancelled, err)
	}

	// Second cancel reports false, not an error.
	cancelled, err = svc.Cancel(ctx, id)
	if err != nil {
		t.Fatalf("second cancel errored: %v", err)
	}
	if cancelled {
		t.Fatal("expected second cancel to be a no-op")
	}
}

func TestUpcomingConvertsDisplayTimezone(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newSchedulerHarness(now)
	ctx := context.Background()

	fireLocal := now.Add(26 * time.Hour)
	if _, err := svc.Schedule(ctx, ScheduleRequest{
		Type: "reminder", OwnerID: "owner-1", FireAtLocal: fireLocal, ResourceTZ: "UTC",
	}); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	events, err := svc.Upcoming(ctx, UpcomingQuery{OwnerID: "owner-1", DisplayTZ: "Asia/Tokyo"})
	if err != nil {
		t.Fatalf("Upcoming failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 upcoming event, got %d", len(events))
	}
	if zone, _ := events[0].FireAt.Zone(); zone != "JST" {
		t.Fatalf("expected JST presentation, got %s", zone)
	}
	// Presentation only: the instant is unchanged.
	if !events[0].FireAt.Equal(fireLocal) {
		t.Fatalf("display conversion moved the instant: %v", events[0].FireAt)
	}

	_, err = svc.Upcoming(ctx, UpcomingQuery{DisplayTZ: "Bad/Zone"})
	var tzErr *InvalidTimezoneError
	if !errors.As(err, &tzErr) {
		t.Fatalf("expected InvalidTimezoneError, got %v", err)
	}
}
