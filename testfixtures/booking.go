package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	appointmentRepo "schedcore/database/repository/appointment"
	bookingRepo "schedcore/database/repository/booking"
	"schedcore/models"
)

// FakeBookingRepo is an in-memory BookingRepository. A single mutex stands in
// for the MongoDB transaction: every reserve, reschedule and release runs its
// overlap check and mutation atomically against the shared appointment and
// timeslot fakes.
type FakeBookingRepo struct {
	mu           sync.Mutex
	Appointments *FakeAppointmentRepo
	Slots        *FakeTimeSlotRepo
}

func NewFakeBookingRepo(appts *FakeAppointmentRepo, slots *FakeTimeSlotRepo) *FakeBookingRepo {
	return &FakeBookingRepo{Appointments: appts, Slots: slots}
}

func (r *FakeBookingRepo) ReserveTransactionally(ctx context.Context, appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failOnOverlap(ctx, appt.ResourceIDs(), appt.Start, appt.End, ""); err != nil {
		return err
	}
	r.Appointments.Put(appt)
	r.occupy(appt.OrganizerID, appt.ID, appt.Start, appt.End, appt.ResourceTZ)
	return nil
}

func (r *FakeBookingRepo) RescheduleTransactionally(ctx context.Context, apptID string, newStart, newEnd time.Time) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, err := r.Appointments.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if err := r.failOnOverlap(ctx, appt.ResourceIDs(), newStart, newEnd, apptID); err != nil {
		return nil, err
	}

	appt.Start = newStart
	appt.End = newEnd
	appt.UpdatedAt = time.Now().UTC()
	r.Appointments.Put(appt)

	r.Slots.free(apptID)
	r.occupy(appt.OrganizerID, apptID, newStart, newEnd, appt.ResourceTZ)
	return appt, nil
}

func (r *FakeBookingRepo) ReleaseTransactionally(ctx context.Context, apptID string, from []models.AppointmentStatus, to models.AppointmentStatus, reason string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	released, err := r.Appointments.TransitionStatus(ctx, apptID, from, to, reason)
	if err == appointmentRepo.ErrInvalidTransition {
		return nil, bookingRepo.ErrNotReleasable
	}
	if err != nil {
		return nil, err
	}
	r.Slots.free(apptID)
	return released, nil
}

// failOnOverlap mirrors the production query: the conflict names an existing
// active appointment sharing any involved resource whose half-open interval
// intersects the candidate's.
func (r *FakeBookingRepo) failOnOverlap(ctx context.Context, resourceIDs []string, start, end time.Time, excludeID string) error {
	existing, err := r.Appointments.List(ctx, models.AppointmentFilter{})
	if err != nil {
		return err
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i].CreatedAt.Before(existing[j].CreatedAt) })

	for i := range existing {
		other := &existing[i]
		if other.ID == excludeID || other.Status.Terminal() || !other.Overlaps(start, end) {
			continue
		}
		if !sharesResource(other, resourceIDs) {
			continue
		}
		return &bookingRepo.ConflictError{
			ConflictingID: other.ID,
			ResourceID:    other.OrganizerID,
			Start:         other.Start,
			End:           other.End,
		}
	}
	return nil
}

func (r *FakeBookingRepo) occupy(resourceID, apptID string, start, end time.Time, tz string) {
	windows, err := bookingRepo.LocalDayWindows(start, end, tz)
	if err != nil {
		panic(fmt.Sprintf("fake booking repo: %v", err))
	}
	for _, w := range windows {
		r.Slots.occupy(resourceID, w.Date, w.StartMin, w.EndMin, apptID)
	}
}

func sharesResource(appt *models.Appointment, resourceIDs []string) bool {
	for _, id := range resourceIDs {
		if involves(appt, id) {
			return true
		}
	}
	return false
}
