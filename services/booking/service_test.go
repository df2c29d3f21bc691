package booking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"schedcore/config"
	bookingRepo "schedcore/database/repository/booking"
	"schedcore/models"
	"schedcore/services/scheduler"
	"schedcore/testfixtures"

	"go.uber.org/zap"
)

type bookingHarness struct {
	svc    *DefaultBookingService
	appts  *testfixtures.FakeAppointmentRepo
	slots  *testfixtures.FakeTimeSlotRepo
	events *testfixtures.FakeEventRepo
	clock  *testfixtures.Clock
}

func newBookingHarness(t *testing.T, now time.Time) *bookingHarness {
	t.Helper()

	appts := testfixtures.NewFakeAppointmentRepo()
	slots := testfixtures.NewFakeTimeSlotRepo()
	events := testfixtures.NewFakeEventRepo()
	clock := testfixtures.NewClock(now)

	sched := scheduler.NewDefaultEventScheduler(events, zap.NewNop())
	sched.Now = clock.Now

	svc := &DefaultBookingService{
		Appointments: appts,
		Bookings:     testfixtures.NewFakeBookingRepo(appts, slots),
		Scheduler:    sched,
		Reminders: config.ReminderConfig{
			Offsets:  []time.Duration{24 * time.Hour, 2 * time.Hour, 30 * time.Minute},
			FollowUp: 24 * time.Hour,
		},
		Logger: zap.NewNop(),
		Now:    clock.Now,
	}
	return &bookingHarness{svc: svc, appts: appts, slots: slots, events: events, clock: clock}
}

func (h *bookingHarness) book(t *testing.T, caller string, start, end time.Time) *models.Appointment {
	t.Helper()
	appt, err := h.svc.Book(context.Background(), caller, BookRequest{
		Start:      start,
		End:        end,
		ResourceTZ: "America/New_York",
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	return appt
}

func TestBookCreatesAppointmentWithReminderSet(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	appt := h.book(t, "alice", start, end)

	if appt.Status != models.AppointmentScheduled {
		t.Fatalf("expected SCHEDULED, got %s", appt.Status)
	}
	if appt.OrganizerID != "alice" {
		t.Fatalf("expected caller as organizer, got %s", appt.OrganizerID)
	}
	if len(appt.EventIDs) != 4 {
		t.Fatalf("expected 3 reminders + 1 follow-up, got %d events", len(appt.EventIDs))
	}

	events := h.events.All()
	wantFireAts := []time.Time{
		start.Add(-24 * time.Hour),
		start.Add(-2 * time.Hour),
		start.Add(-30 * time.Minute),
		end.Add(24 * time.Hour),
	}
	if len(events) != len(wantFireAts) {
		t.Fatalf("expected %d events, got %d", len(wantFireAts), len(events))
	}
	for i, want := range wantFireAts {
		if !events[i].FireAt.Equal(want) {
			t.Errorf("event %d: expected fire at %v, got %v", i, want, events[i].FireAt)
		}
		if events[i].Status != models.EventPending {
			t.Errorf("event %d: expected PENDING, got %s", i, events[i].Status)
		}
		if events[i].Payload["appointmentId"] != appt.ID {
			t.Errorf("event %d: payload does not reference the appointment", i)
		}
	}
	if events[3].Type != EventTypeFollowUp {
		t.Errorf("expected last event to be the follow-up, got %s", events[3].Type)
	}
}

func TestBookSkipsRemindersAlreadyInThePast(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)

	// Booked one hour ahead: the 24h and 2h reminders cannot fire anymore.
	start := now.Add(time.Hour)
	appt := h.book(t, "alice", start, start.Add(time.Hour))

	if len(appt.EventIDs) != 2 {
		t.Fatalf("expected 30m reminder + follow-up only, got %d events", len(appt.EventIDs))
	}
}

func TestBookRejectsOverlapNamingExistingAppointment(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	first := h.book(t, "alice", start, start.Add(time.Hour))

	_, err := h.svc.Book(context.Background(), "alice", BookRequest{
		Start:      start.Add(30 * time.Minute),
		End:        start.Add(90 * time.Minute),
		ResourceTZ: "America/New_York",
	})
	var conflict *bookingRepo.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ConflictingID != first.ID {
		t.Fatalf("conflict names %s, want %s", conflict.ConflictingID, first.ID)
	}

	// The loser left no trace.
	all, _ := h.appts.List(context.Background(), models.AppointmentFilter{OwnerID: "alice"})
	if len(all) != 1 {
		t.Fatalf("expected 1 stored appointment, got %d", len(all))
	}
}

func TestConcurrentOverlappingBookingsOneWins(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	const racers = 8
	var wins, conflicts int64
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			_, err := h.svc.Book(context.Background(), "alice", BookRequest{
				Start:      start,
				End:        end,
				ResourceTZ: "America/New_York",
			})
			var conflict *bookingRepo.ConflictError
			switch {
			case err == nil:
				atomic.AddInt64(&wins, 1)
			case errors.As(err, &conflict):
				atomic.AddInt64(&conflicts, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || conflicts != racers-1 {
		t.Fatalf("expected exactly 1 winner and %d conflicts, got %d/%d", racers-1, wins, conflicts)
	}
	all, _ := h.appts.List(context.Background(), models.AppointmentFilter{OwnerID: "alice"})
	if len(all) != 1 {
		t.Fatalf("expected exactly 1 stored appointment, got %d", len(all))
	}
}

func TestBookAllowsBackToBackIntervals(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	h.book(t, "alice", start, start.Add(time.Hour))

	// [15:00, 16:00) after [14:00, 15:00): half-open intervals do not collide.
	h.book(t, "alice", start.Add(time.Hour), start.Add(2*time.Hour))
}

func TestBookDetectsParticipantOverlap(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	if _, err := h.svc.Book(context.Background(), "alice", BookRequest{
		ParticipantIDs: []string{"bob"},
		Start:          start,
		End:            start.Add(time.Hour),
		ResourceTZ:     "America/New_York",
	}); err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	// Bob organizes his own overlapping appointment: his time is already taken.
	_, err := h.svc.Book(context.Background(), "bob", BookRequest{
		Start:      start,
		End:        start.Add(time.Hour),
		ResourceTZ: "America/New_York",
	})
	var conflict *bookingRepo.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError for shared participant, got %v", err)
	}
}

func TestBookValidatesInput(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)
	start := now.Add(48 * time.Hour)

	cases := []struct {
		name string
		req  BookRequest
	}{
		{"end before start", BookRequest{Start: start, End: start.Add(-time.Hour), ResourceTZ: "UTC"}},
		{"equal interval", BookRequest{Start: start, End: start, ResourceTZ: "UTC"}},
		{"missing interval", BookRequest{ResourceTZ: "UTC"}},
		{"bad resource tz", BookRequest{Start: start, End: start.Add(time.Hour), ResourceTZ: "Not/AZone"}},
		{"bad user tz", BookRequest{Start: start, End: start.Add(time.Hour), ResourceTZ: "UTC", UserTZ: "EST5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Book(context.Background(), "alice", tc.req)
			var v *ValidationError
			if !errors.As(err, &v) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCancelReleasesSlotsAndCancelsEvents(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)

	// 14:00 UTC on June 2 is 10:00 in New York; seed the matching local slot.
	h.slots.CreateMany(context.Background(), []models.TimeSlot{
		{ID: "s1", ResourceID: "alice", Date: "2025-06-02", Start: 600, End: 660, Available: true},
	})

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	appt := h.book(t, "alice", start, start.Add(time.Hour))

	occupied, _ := h.slots.ListByAppointment(context.Background(), appt.ID)
	if len(occupied) != 1 || occupied[0].Available {
		t.Fatalf("expected the slot to be occupied by the booking, got %+v", occupied)
	}

	cancelled, err := h.svc.Cancel(context.Background(), "alice", appt.ID, "plans changed")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != models.AppointmentCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.CancelReason != "plans changed" {
		t.Fatalf("expected reason to be recorded, got %q", cancelled.CancelReason)
	}

	free, _ := h.slots.ListAvailable(context.Background(), "alice", "2025-06-02", "2025-06-02")
	if len(free) != 1 {
		t.Fatalf("expected the slot to be freed, got %d available", len(free))
	}
	for _, ev := range h.events.All() {
		if ev.Status != models.EventCancelled {
			t.Fatalf("expected every event cancelled, found %s in %s", ev.ID, ev.Status)
		}
	}
}

func TestLifecycleTransitions(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	appt := h.book(t, "alice", start, start.Add(time.Hour))
	ctx := context.Background()

	// Completing a SCHEDULED appointment skips states and must fail.
	if _, err := h.svc.Complete(ctx, "alice", appt.ID); err == nil {
		t.Fatal("expected Complete from SCHEDULED to fail")
	}

	confirmed, err := h.svc.Confirm(ctx, "alice", appt.ID)
	if err != nil || confirmed.Status != models.AppointmentConfirmed {
		t.Fatalf("Confirm: status=%v err=%v", confirmed, err)
	}
	started, err := h.svc.Begin(ctx, "alice", appt.ID)
	if err != nil || started.Status != models.AppointmentInProgress {
		t.Fatalf("Begin: status=%v err=%v", started, err)
	}
	done, err := h.svc.Complete(ctx, "alice", appt.ID)
	if err != nil || done.Status != models.AppointmentCompleted {
		t.Fatalf("Complete: status=%v err=%v", done, err)
	}

	// Terminal states cannot be exited.
	_, err = h.svc.Cancel(ctx, "alice", appt.ID, "")
	var transition *TransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected TransitionError cancelling a completed appointment, got %v", err)
	}
}

func TestMarkNoShowRequiresStartTimePassed(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	appt := h.book(t, "alice", start, start.Add(time.Hour))
	ctx := context.Background()

	_, err := h.svc.MarkNoShow(ctx, "alice", appt.ID)
	var v *ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected ValidationError before start time, got %v", err)
	}

	h.clock.Set(start.Add(5 * time.Minute))
	marked, err := h.svc.MarkNoShow(ctx, "alice", appt.ID)
	if err != nil {
		t.Fatalf("MarkNoShow failed: %v", err)
	}
	if marked.Status != models.AppointmentNoShow {
		t.Fatalf("expected NO_SHOW, got %s", marked.Status)
	}
}

func TestAccessIsLimitedToInvolvedParties(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newBookingHarness(t, now)

	start := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	appt := h.book(t, "alice", start, start.Add(time.Hour))

	_, err := h.svc.Get(context.Background(), "mallory", appt.ID)
	var perm *PermissionError
	if !errors.As(err, &perm) {
		t.Fatalf("expected PermissionError for uninvolved caller, got %v", err)
	}

	// Listing is always scoped to the caller.
	list, err := h.svc.List(context.Background(), "mallory", models.AppointmentFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list for uninvolved caller, got %d", len(list))
	}
}
