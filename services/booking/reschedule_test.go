package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingRepo "schedcore/database/repository/booking"
	"schedcore/models"
)

func TestRescheduleMovesIntervalAndRegeneratesEvents(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)
	ctx := context.Background()

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	appt := h.book(t, "alice", start, start.Add(time.Hour))
	oldEventIDs := append([]string(nil), appt.EventIDs...)

	newStart := time.Date(2025, time.June, 3, 16, 0, 0, 0, time.UTC)
	updated, err := h.svc.Reschedule(ctx, "alice", appt.ID, newStart, newStart.Add(time.Hour))
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if !updated.Start.Equal(newStart) {
		t.Fatalf("expected start %v, got %v", newStart, updated.Start)
	}
	if len(updated.EventIDs) != 4 {
		t.Fatalf("expected a fresh reminder set, got %d events", len(updated.EventIDs))
	}

	// Old events are cancelled, new ones pend against the new times.
	byID := make(map[string]models.ScheduledEvent)
	for _, ev := range h.events.All() {
		byID[ev.ID] = ev
	}
	for _, id := range oldEventIDs {
		if byID[id].Status != models.EventCancelled {
			t.Errorf("old event %s: expected CANCELLED, got %s", id, byID[id].Status)
		}
	}
	for _, id := range updated.EventIDs {
		if byID[id].Status != models.EventPending {
			t.Errorf("new event %s: expected PENDING, got %s", id, byID[id].Status)
		}
	}
	if first := byID[updated.EventIDs[0]]; !first.FireAt.Equal(newStart.Add(-24 * time.Hour)) {
		t.Errorf("expected first reminder at %v, got %v", newStart.Add(-24*time.Hour), first.FireAt)
	}
}

func TestRescheduleConflictLeavesAppointmentUntouched(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)
	ctx := context.Background()

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	blocker := h.book(t, "alice", start, start.Add(time.Hour))

	movableStart := start.Add(3 * time.Hour)
	movable := h.book(t, "alice", movableStart, movableStart.Add(time.Hour))
	eventIDs := append([]string(nil), movable.EventIDs...)

	_, err := h.svc.Reschedule(ctx, "alice", movable.ID, start.Add(30*time.Minute), start.Add(90*time.Minute))
	var conflict *bookingRepo.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ConflictingID != blocker.ID {
		t.Fatalf("conflict names %s, want %s", conflict.ConflictingID, blocker.ID)
	}

	// Interval and event set stayed exactly as they were.
	stored, err := h.appts.GetByID(ctx, movable.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !stored.Start.Equal(movableStart) {
		t.Fatalf("conflicting reschedule mutated the interval: %v", stored.Start)
	}
	byID := make(map[string]models.ScheduledEvent)
	for _, ev := range h.events.All() {
		byID[ev.ID] = ev
	}
	for _, id := range eventIDs {
		if byID[id].Status != models.EventPending {
			t.Errorf("event %s: expected still PENDING after failed reschedule, got %s", id, byID[id].Status)
		}
	}
}

func TestRescheduleRejectsTerminalAppointments(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)
	ctx := context.Background()

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	appt := h.book(t, "alice", start, start.Add(time.Hour))
	if _, err := h.svc.Cancel(ctx, "alice", appt.ID, ""); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	_, err := h.svc.Reschedule(ctx, "alice", appt.ID, start.Add(24*time.Hour), start.Add(25*time.Hour))
	var transition *TransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected TransitionError rescheduling a cancelled appointment, got %v", err)
	}
}
