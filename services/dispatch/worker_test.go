package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"schedcore/config"
	"schedcore/models"
	"schedcore/testfixtures"

	"go.uber.org/zap"
)

func testDispatchConfig() config.DispatchConfig {
	return config.DispatchConfig{
		Workers:      1,
		PollInterval: time.Second,
		BatchSize:    10,
		LeaseTTL:     2 * time.Minute,
		MaxAttempts:  3,
		BackoffBase:  30 * time.Second,
		BackoffMax:   5 * time.Minute,
	}
}

func newDispatchHarness(now time.Time, deliver *testfixtures.RecordingDeliverer) (*Coordinator, *testfixtures.FakeEventRepo, *testfixtures.Clock) {
	events := testfixtures.NewFakeEventRepo()
	clock := testfixtures.NewClock(now)
	coord := NewCoordinator(events, deliver, nil, testDispatchConfig(), zap.NewNop())
	coord.Now = clock.Now
	return coord, events, clock
}

func dueEvent(id string, fireAt time.Time) *models.ScheduledEvent {
	return &models.ScheduledEvent{
		ID:            id,
		Type:          "reminder",
		OwnerID:       "appt-1",
		FireAt:        fireAt,
		NextAttemptAt: fireAt,
		ResourceTZ:    "UTC",
		Payload:       map[string]string{"recipients": "alice,bob", "appointmentId": "appt-1"},
		Status:        models.EventPending,
		CreatedAt:     fireAt.Add(-time.Hour),
	}
}

func TestDispatchDeliversDueEventExactlyOnce(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	deliver := &testfixtures.RecordingDeliverer{}
	coord, events, _ := newDispatchHarness(now, deliver)
	ctx := context.Background()

	events.Create(ctx, dueEvent("ev-1", now.Add(-time.Minute)))
	events.Create(ctx, dueEvent("ev-future", now.Add(time.Hour)))

	if err := coord.pollOnce(ctx, "w1", coord.Logger); err != nil {
		t.Fatalf("pollOnce failed: %v", err)
	}

	delivered := deliver.Delivered()
	if len(delivered) != 1 {
		t.Fatalf("expected exactly 1 delivery, got %d", len(delivered))
	}
	if len(delivered[0].Recipients) != 2 || delivered[0].Recipients[0] != "alice" {
		t.Fatalf("unexpected recipients: %v", delivered[0].Recipients)
	}

	ev, _ := events.GetByID(ctx, "ev-1")
	if ev.Status != models.EventDispatched {
		t.Fatalf("expected DISPATCHED, got %s", ev.Status)
	}
	if ev.DispatchedAt == nil {
		t.Fatal("expected a dispatch timestamp")
	}
	future, _ := events.GetByID(ctx, "ev-future")
	if future.Status != models.EventPending {
		t.Fatalf("future event must stay PENDING, got %s", future.Status)
	}

	// A second poll finds nothing new.
	if err := coord.pollOnce(ctx, "w1", coord.Logger); err != nil {
		t.Fatalf("second pollOnce failed: %v", err)
	}
	if deliver.Attempts() != 1 {
		t.Fatalf("expected no redelivery, got %d attempts", deliver.Attempts())
	}
}

func TestDispatchRetriesWithBackoffThenSucceeds(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	deliver := &testfixtures.RecordingDeliverer{FailFirst: 1, Err: errors.New("smtp down")}
	coord, events, clock := newDispatchHarness(now, deliver)
	ctx := context.Background()

	events.Create(ctx, dueEvent("ev-1", now.Add(-time.Minute)))

	if err := coord.pollOnce(ctx, "w1", coord.Logger); err != nil {
		t.Fatalf("pollOnce failed: %v", err)
	}
	ev, _ := events.GetByID(ctx, "ev-1")
	if ev.Status != models.EventPending {
		t.Fatalf("expected requeue to PENDING, got %s", ev.Status)
	}
	if ev.Attempts != 1 {
		t.Fatalf("expected 1 recorded attempt, got %d", ev.Attempts)
	}
	if !ev.NextAttemptAt.Equal(now.Add(30 * time.Second)) {
		t.Fatalf("expected retry at now+30s, got %v", ev.NextAttemptAt)
	}
	if !ev.FireAt.Equal(now.Add(-time.Minute)) {
		t.Fatalf("requeue must not move the occurrence instant, got %v", ev.FireAt)
	}
	if ev.LastError != "smtp down" {
		t.Fatalf("expected the failure to be recorded, got %q", ev.LastError)
	}

	// Not due again until the backoff elapses.
	if err := coord.pollOnce(ctx, "w1", coord.Logger); err != nil {
		t.Fatalf("pollOnce failed: %v", err)
	}
	if deliver.Attempts() != 1 {
		t.Fatalf("retried before the backoff elapsed: %d attempts", deliver.Attempts())
	}

	clock.Advance(time.Minute)
	if err := coord.pollOnce(ctx, "w1", coord.Logger); err != nil {
		t.Fatalf("pollOnce failed: %v", err)
	}
	ev, _ = events.GetByID(ctx, "ev-1")
	if ev.Status != models.EventDispatched {
		t.Fatalf("expected DISPATCHED after successful retry, got %s", ev.Status)
	}
	if got := len(deliver.Delivered()); got != 1 {
		t.Fatalf("expected exactly 1 successful delivery, got %d", got)
	}
}

func TestDispatchDeadLettersAfterMaxAttempts(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	deliver := &testfixtures.RecordingDeliverer{FailAlways: true, Err: errors.New("permanent failure")}
	coord, events, clock := newDispatchHarness(now, deliver)
	ctx := context.Background()

	events.Create(ctx, dueEvent("ev-1", now.Add(-time.Minute)))

	for i := 0; i < 5; i++ {
		if err := coord.pollOnce(ctx, "w1", coord.Logger); err != nil {
			t.Fatalf("pollOnce failed: %v", err)
		}
		clock.Advance(10 * time.Minute)
	}

	ev, _ := events.GetByID(ctx, "ev-1")
	if ev.Status != models.EventFailed {
		t.Fatalf("expected FAILED after exhausting retries, got %s", ev.Status)
	}
	if ev.LastError != "permanent failure" {
		t.Fatalf("expected last error recorded, got %q", ev.LastError)
	}
	if deliver.Attempts() != 3 {
		t.Fatalf("expected exactly MaxAttempts deliveries, got %d", deliver.Attempts())
	}

	failed, _ := events.ListFailed(ctx, 10)
	if len(failed) != 1 || failed[0].ID != "ev-1" {
		t.Fatalf("expected the event in the dead-letter list, got %v", failed)
	}
}

func TestDispatchReclaimsExpiredLease(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	deliver := &testfixtures.RecordingDeliverer{}
	coord, events, _ := newDispatchHarness(now, deliver)
	ctx := context.Background()

	// A crashed worker left the event claimed with an expired lease.
	abandoned := dueEvent("ev-1", now.Add(-10*time.Minute))
	abandoned.Status = models.EventClaimed
	abandoned.LeaseOwner = "w-crashed"
	expired := now.Add(-time.Minute)
	abandoned.LeaseExpiresAt = &expired
	events.Create(ctx, abandoned)

	if err := coord.pollOnce(ctx, "w2", coord.Logger); err != nil {
		t.Fatalf("pollOnce failed: %v", err)
	}

	ev, _ := events.GetByID(ctx, "ev-1")
	if ev.Status != models.EventDispatched {
		t.Fatalf("expected reclaimed event to be dispatched, got %s", ev.Status)
	}
	if len(deliver.Delivered()) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(deliver.Delivered()))
	}
}

func TestLostLeaseCannotDoubleComplete(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	deliver := &testfixtures.RecordingDeliverer{}
	_, events, clock := newDispatchHarness(now, deliver)
	ctx := context.Background()

	events.Create(ctx, dueEvent("ev-1", now.Add(-time.Minute)))

	// Worker A claims, then stalls past its lease; worker B reclaims.
	claimedA, err := events.ClaimDue(ctx, "w-a", clock.Now(), time.Minute, 1)
	if err != nil || len(claimedA) != 1 {
		t.Fatalf("worker A claim: %v (%d)", err, len(claimedA))
	}
	clock.Advance(2 * time.Minute)
	claimedB, err := events.ClaimDue(ctx, "w-b", clock.Now(), time.Minute, 1)
	if err != nil || len(claimedB) != 1 {
		t.Fatalf("worker B reclaim: %v (%d)", err, len(claimedB))
	}

	// A wakes up and tries to finish: the guard rejects it.
	done, err := events.MarkDispatched(ctx, "ev-1", "w-a", clock.Now())
	if err != nil {
		t.Fatalf("MarkDispatched errored: %v", err)
	}
	if done {
		t.Fatal("worker A completed despite a reclaimed lease")
	}
	done, err = events.MarkDispatched(ctx, "ev-1", "w-b", clock.Now())
	if err != nil || !done {
		t.Fatalf("worker B should own completion: done=%v err=%v", done, err)
	}
}

func TestDispatchMaterializesNextOccurrence(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	deliver := &testfixtures.RecordingDeliverer{}
	coord, events, _ := newDispatchHarness(now, deliver)
	ctx := context.Background()

	ev := dueEvent("ev-1", now.Add(-time.Minute))
	ev.Recurrence = &models.Recurrence{Frequency: models.FrequencyDaily, Interval: 1, Timezone: "UTC"}
	events.Create(ctx, ev)

	if err := coord.pollOnce(ctx, "w1", coord.Logger); err != nil {
		t.Fatalf("pollOnce failed: %v", err)
	}

	all := events.All()
	if len(all) != 2 {
		t.Fatalf("expected original + next occurrence, got %d events", len(all))
	}
	if all[0].ID != "ev-1" || all[0].Status != models.EventDispatched {
		t.Fatalf("expected the original dispatched, got %s in %s", all[0].ID, all[0].Status)
	}
	next := all[1]
	if next.Status != models.EventPending {
		t.Fatalf("expected next occurrence PENDING, got %s", next.Status)
	}
	wantNext := ev.FireAt.Add(24 * time.Hour)
	if !next.FireAt.Equal(wantNext) {
		t.Fatalf("expected next occurrence at %v, got %v", wantNext, next.FireAt)
	}
	if next.Recurrence == nil {
		t.Fatal("next occurrence must carry the recurrence forward")
	}
}

func TestDispatchStopsExhaustedSeries(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	deliver := &testfixtures.RecordingDeliverer{}
	coord, events, _ := newDispatchHarness(now, deliver)
	ctx := context.Background()

	until := now.Add(time.Hour)
	ev := dueEvent("ev-1", now.Add(-time.Minute))
	ev.Recurrence = &models.Recurrence{Frequency: models.FrequencyDaily, Interval: 1, Timezone: "UTC", Until: &until}
	events.Create(ctx, ev)

	if err := coord.pollOnce(ctx, "w1", coord.Logger); err != nil {
		t.Fatalf("pollOnce failed: %v", err)
	}

	if all := events.All(); len(all) != 1 {
		t.Fatalf("expected no next occurrence past Until, got %d events", len(all))
	}
}

func TestRetryDoesNotDriftRecurringSeries(t *testing.T) {
	fireAt := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	now := fireAt.Add(time.Minute)
	deliver := &testfixtures.RecordingDeliverer{FailFirst: 1, Err: errors.New("smtp down")}
	coord, events, clock := newDispatchHarness(now, deliver)
	ctx := context.Background()

	ev := dueEvent("ev-1", fireAt)
	ev.Recurrence = &models.Recurrence{Frequency: models.FrequencyDaily, Interval: 1, Timezone: "UTC"}
	events.Create(ctx, ev)

	// First delivery fails and backs off, the second succeeds.
	if err := coord.pollOnce(ctx, "w1", coord.Logger); err != nil {
		t.Fatalf("pollOnce failed: %v", err)
	}
	clock.Advance(time.Minute)
	if err := coord.pollOnce(ctx, "w1", coord.Logger); err != nil {
		t.Fatalf("pollOnce failed: %v", err)
	}

	all := events.All()
	if len(all) != 2 {
		t.Fatalf("expected original + next occurrence, got %d events", len(all))
	}
	// The next occurrence must advance from the original 09:00, not from the
	// retried attempt's delayed instant.
	wantNext := fireAt.Add(24 * time.Hour)
	next := all[1]
	if !next.FireAt.Equal(wantNext) {
		t.Fatalf("recurring series drifted: expected %v, got %v", wantNext, next.FireAt)
	}
	if !next.NextAttemptAt.Equal(wantNext) {
		t.Fatalf("next occurrence should be claimable at %v, got %v", wantNext, next.NextAttemptAt)
	}
}

func TestDeadLetterKeepsRecurringSeriesAlive(t *testing.T) {
	fireAt := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	now := fireAt.Add(time.Minute)
	deliver := &testfixtures.RecordingDeliverer{FailAlways: true, Err: errors.New("permanent failure")}
	coord, events, clock := newDispatchHarness(now, deliver)
	ctx := context.Background()

	ev := dueEvent("ev-1", fireAt)
	ev.Recurrence = &models.Recurrence{Frequency: models.FrequencyDaily, Interval: 1, Timezone: "UTC"}
	events.Create(ctx, ev)

	for i := 0; i < 5; i++ {
		if err := coord.pollOnce(ctx, "w1", coord.Logger); err != nil {
			t.Fatalf("pollOnce failed: %v", err)
		}
		clock.Advance(10 * time.Minute)
	}

	all := events.All()
	if len(all) != 2 {
		t.Fatalf("expected dead-lettered occurrence + next occurrence, got %d events", len(all))
	}
	if all[0].ID != "ev-1" || all[0].Status != models.EventFailed {
		t.Fatalf("expected the original occurrence FAILED, got %s in %s", all[0].ID, all[0].Status)
	}
	next := all[1]
	if next.Status != models.EventPending {
		t.Fatalf("expected next occurrence PENDING, got %s", next.Status)
	}
	if !next.FireAt.Equal(fireAt.Add(24 * time.Hour)) {
		t.Fatalf("expected next occurrence at %v, got %v", fireAt.Add(24*time.Hour), next.FireAt)
	}
}
