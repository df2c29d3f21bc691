package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"schedcore/models"
)

// FakeTimeSlotRepo is an in-memory TimeSlotRepository enforcing the same
// (resource, date, start) uniqueness as the production unique index.
type FakeTimeSlotRepo struct {
	mu    sync.Mutex
	items map[string]*models.TimeSlot
}

func NewFakeTimeSlotRepo() *FakeTimeSlotRepo {
	return &FakeTimeSlotRepo{items: make(map[string]*models.TimeSlot)}
}

func slotKey(resourceID, date string, start int) string {
	return fmt.Sprintf("%s|%s|%d", resourceID, date, start)
}

func (r *FakeTimeSlotRepo) CreateMany(_ context.Context, slots []models.TimeSlot) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for i := range slots {
		key := slotKey(slots[i].ResourceID, slots[i].Date, slots[i].Start)
		if _, exists := r.items[key]; exists {
			continue
		}
		cp := slots[i]
		r.items[key] = &cp
		inserted++
	}
	return inserted, nil
}

func (r *FakeTimeSlotRepo) ListForRange(_ context.Context, resourceID, fromDate, toDate string) ([]models.TimeSlot, error) {
	return r.list(func(s *models.TimeSlot) bool {
		return s.ResourceID == resourceID && s.Date >= fromDate && s.Date <= toDate
	}), nil
}

func (r *FakeTimeSlotRepo) ListAvailable(_ context.Context, resourceID, fromDate, toDate string) ([]models.TimeSlot, error) {
	return r.list(func(s *models.TimeSlot) bool {
		return s.ResourceID == resourceID && s.Available && s.Date >= fromDate && s.Date <= toDate
	}), nil
}

func (r *FakeTimeSlotRepo) ListByAppointment(_ context.Context, appointmentID string) ([]models.TimeSlot, error) {
	return r.list(func(s *models.TimeSlot) bool {
		return s.AppointmentID == appointmentID
	}), nil
}

func (r *FakeTimeSlotRepo) list(match func(*models.TimeSlot) bool) []models.TimeSlot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.TimeSlot
	for _, s := range r.items {
		if match(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Start < out[j].Start
	})
	return out
}

// occupy marks every slot of the resource intersecting the window on the date.
func (r *FakeTimeSlotRepo) occupy(resourceID, date string, startMin, endMin int, appointmentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.ResourceID == resourceID && s.Date == date && s.Start < endMin && s.End > startMin {
			s.Available = false
			s.AppointmentID = appointmentID
		}
	}
}

// free releases every slot referencing the appointment.
func (r *FakeTimeSlotRepo) free(appointmentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.AppointmentID == appointmentID {
			s.Available = true
			s.AppointmentID = ""
		}
	}
}
