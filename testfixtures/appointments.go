package testfixtures

import (
	"context"
	"sync"
	"time"

	appointmentRepo "schedcore/database/repository/appointment"
	"schedcore/models"
)

// FakeAppointmentRepo is an in-memory AppointmentRepository.
type FakeAppointmentRepo struct {
	mu    sync.Mutex
	items map[string]*models.Appointment
}

func NewFakeAppointmentRepo() *FakeAppointmentRepo {
	return &FakeAppointmentRepo{items: make(map[string]*models.Appointment)}
}

// Put stores an appointment directly, bypassing the booking transaction.
func (r *FakeAppointmentRepo) Put(appt *models.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *appt
	r.items[appt.ID] = &cp
}

func (r *FakeAppointmentRepo) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.items[id]
	if !ok {
		return nil, appointmentRepo.ErrNotFound
	}
	cp := *appt
	return &cp, nil
}

func (r *FakeAppointmentRepo) List(_ context.Context, filter models.AppointmentFilter) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, appt := range r.items {
		if filter.OwnerID != "" && !involves(appt, filter.OwnerID) {
			continue
		}
		if filter.Status != "" && appt.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && !appt.End.After(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !appt.Start.Before(filter.To) {
			continue
		}
		out = append(out, *appt)
	}
	return out, nil
}

func (r *FakeAppointmentRepo) TransitionStatus(_ context.Context, id string, from []models.AppointmentStatus, to models.AppointmentStatus, reason string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.items[id]
	if !ok {
		return nil, appointmentRepo.ErrNotFound
	}
	if !statusIn(appt.Status, from) {
		return nil, appointmentRepo.ErrInvalidTransition
	}
	appt.Status = to
	if reason != "" {
		appt.CancelReason = reason
	}
	appt.UpdatedAt = time.Now().UTC()
	cp := *appt
	return &cp, nil
}

func (r *FakeAppointmentRepo) SetEventIDs(_ context.Context, id string, eventIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.items[id]
	if !ok {
		return appointmentRepo.ErrNotFound
	}
	appt.EventIDs = append([]string(nil), eventIDs...)
	return nil
}

func involves(appt *models.Appointment, id string) bool {
	for _, rid := range appt.ResourceIDs() {
		if rid == id {
			return true
		}
	}
	return false
}

func statusIn(s models.AppointmentStatus, set []models.AppointmentStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
