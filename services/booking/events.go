package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"schedcore/models"
	"schedcore/services/scheduler"

	"go.uber.org/zap"
)

const (
	EventTypeReminder = "reminder"
	EventTypeFollowUp = "follow-up"
)

// scheduleAppointmentEvents registers the reminder set before the appointment
// start and one follow-up after its end. Offsets that already lie in the past
// (a booking made twenty minutes ahead cannot get a 24h reminder) are skipped,
// not treated as errors.
func (s *DefaultBookingService) scheduleAppointmentEvents(ctx context.Context, appt *models.Appointment) []string {
	var eventIDs []string

	for _, offset := range s.Reminders.Offsets {
		id := s.scheduleOne(ctx, appt, EventTypeReminder, appt.Start.Add(-offset))
		if id != "" {
			eventIDs = append(eventIDs, id)
		}
	}
	if id := s.scheduleOne(ctx, appt, EventTypeFollowUp, appt.End.Add(s.Reminders.FollowUp)); id != "" {
		eventIDs = append(eventIDs, id)
	}
	return eventIDs
}

func (s *DefaultBookingService) scheduleOne(ctx context.Context, appt *models.Appointment, eventType string, fireAt time.Time) string {
	loc, err := time.LoadLocation(appt.ResourceTZ)
	if err != nil {
		s.Logger.Error("appointment carries an unloadable timezone",
			zap.String("appointmentID", appt.ID), zap.String("tz", appt.ResourceTZ), zap.Error(err))
		return ""
	}

	id, err := s.Scheduler.Schedule(ctx, scheduler.ScheduleRequest{
		Type:        eventType,
		OwnerID:     appt.ID,
		FireAtLocal: fireAt.In(loc),
		ResourceTZ:  appt.ResourceTZ,
		UserTZ:      appt.UserTZ,
		Payload: map[string]string{
			"appointmentId": appt.ID,
			"recipients":    strings.Join(appt.ResourceIDs(), ","),
			"start":         appt.Start.Format(time.RFC3339),
			"end":           appt.End.Format(time.RFC3339),
		},
	})
	if err != nil {
		var past *scheduler.PastTimeError
		if errors.As(err, &past) {
			s.Logger.Debug("skipping event whose fire time already passed",
				zap.String("appointmentID", appt.ID), zap.String("type", eventType))
			return ""
		}
		s.Logger.Error("failed to schedule appointment event",
			zap.String("appointmentID", appt.ID), zap.String("type", eventType), zap.Error(err))
		return ""
	}
	return id
}

// cancelAppointmentEvents cancels every scheduled event tied to the
// appointment. Cancel is idempotent, so events already dispatched or claimed
// in flight report false and are left alone.
func (s *DefaultBookingService) cancelAppointmentEvents(ctx context.Context, appt *models.Appointment) {
	for _, eventID := range appt.EventIDs {
		cancelled, err := s.Scheduler.Cancel(ctx, eventID)
		if err != nil {
			s.Logger.Error("failed to cancel appointment event",
				zap.String("appointmentID", appt.ID), zap.String("eventID", eventID), zap.Error(err))
			continue
		}
		if !cancelled {
			s.Logger.Debug("event already finished or in flight, cancel skipped",
				zap.String("appointmentID", appt.ID), zap.String("eventID", eventID))
		}
	}
}
