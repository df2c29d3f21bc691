package booking

import (
	"context"
	"time"

	"schedcore/models"

	"go.uber.org/zap"
)

// Reschedule moves an appointment to a new interval. The order is deliberate:
// the conflict check runs before anything else is touched, so on conflict the
// appointment keeps its original interval and event set untouched. Only after
// the transactional interval move commits are the old events cancelled and the
// reminder/follow-up set regenerated against the new times.
func (s *DefaultBookingService) Reschedule(ctx context.Context, callerID, apptID string, newStart, newEnd time.Time) (*models.Appointment, error) {
	if err := validateInterval(newStart, newEnd); err != nil {
		return nil, err
	}

	appt, err := s.Get(ctx, callerID, apptID)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, &TransitionError{
			AppointmentID: apptID,
			Current:       string(appt.Status),
			Requested:     "reschedule",
		}
	}

	updated, err := s.Bookings.RescheduleTransactionally(ctx, apptID, newStart.UTC(), newEnd.UTC())
	if err != nil {
		return nil, err
	}
	updated.EventIDs = appt.EventIDs

	s.cancelAppointmentEvents(ctx, updated)

	eventIDs := s.scheduleAppointmentEvents(ctx, updated)
	if err := s.Appointments.SetEventIDs(ctx, apptID, eventIDs); err != nil {
		s.Logger.Error("rescheduled appointment but failed to record its event ids",
			zap.String("appointmentID", apptID), zap.Error(err))
	}
	updated.EventIDs = eventIDs

	s.invalidateAvailability(ctx, updated.OrganizerID)
	s.Logger.Info("appointment rescheduled",
		zap.String("appointmentID", apptID),
		zap.Time("newStart", updated.Start),
		zap.Time("newEnd", updated.End),
		zap.Int("events", len(eventIDs)))
	return updated, nil
}
