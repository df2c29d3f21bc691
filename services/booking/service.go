package booking

import (
	"context"
	"errors"
	"time"

	"schedcore/config"
	appointmentRepo "schedcore/database/repository/appointment"
	bookingRepo "schedcore/database/repository/booking"
	"schedcore/models"
	"schedcore/services/availability"
	"schedcore/services/scheduler"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBookingService is the production implementation. The conflict check
// itself lives in the booking repository's transaction; this service owns
// validation, permissions, the state machine, and the reminder event set.
type DefaultBookingService struct {
	Appointments appointmentRepo.AppointmentRepository
	Bookings     bookingRepo.BookingRepository
	Scheduler    scheduler.EventScheduler
	Availability *availability.Service
	Reminders    config.ReminderConfig
	Logger       *zap.Logger
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultBookingService) Book(ctx context.Context, callerID string, req BookRequest) (*models.Appointment, error) {
	if err := validateInterval(req.Start, req.End); err != nil {
		return nil, err
	}
	if _, err := time.LoadLocation(req.ResourceTZ); err != nil {
		return nil, &ValidationError{Field: "resourceTz", Message: err.Error()}
	}
	if req.UserTZ != "" {
		if _, err := time.LoadLocation(req.UserTZ); err != nil {
			return nil, &ValidationError{Field: "userTz", Message: err.Error()}
		}
	}
	if req.OrganizerID == "" {
		req.OrganizerID = callerID
	}

	now := s.now().UTC()
	appt := &models.Appointment{
		ID:             uuid.New().String(),
		OrganizerID:    req.OrganizerID,
		ParticipantIDs: req.ParticipantIDs,
		Start:          req.Start.UTC(),
		End:            req.End.UTC(),
		ResourceTZ:     req.ResourceTZ,
		UserTZ:         req.UserTZ,
		Status:         models.AppointmentScheduled,
		Metadata:       req.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.Bookings.ReserveTransactionally(ctx, appt); err != nil {
		return nil, err
	}

	eventIDs := s.scheduleAppointmentEvents(ctx, appt)
	if len(eventIDs) > 0 {
		if err := s.Appointments.SetEventIDs(ctx, appt.ID, eventIDs); err != nil {
			s.Logger.Error("booked appointment but failed to record its event ids",
				zap.String("appointmentID", appt.ID), zap.Error(err))
		}
		appt.EventIDs = eventIDs
	}

	s.invalidateAvailability(ctx, appt.OrganizerID)
	s.Logger.Info("appointment booked",
		zap.String("appointmentID", appt.ID),
		zap.String("organizerID", appt.OrganizerID),
		zap.Time("start", appt.Start),
		zap.Int("events", len(eventIDs)))
	return appt, nil
}

func (s *DefaultBookingService) Get(ctx context.Context, callerID, apptID string) (*models.Appointment, error) {
	appt, err := s.Appointments.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(callerID, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *DefaultBookingService) List(ctx context.Context, callerID string, filter models.AppointmentFilter) ([]models.Appointment, error) {
	// Callers only ever see appointments they are involved in.
	filter.OwnerID = callerID
	return s.Appointments.List(ctx, filter)
}

func (s *DefaultBookingService) Confirm(ctx context.Context, callerID, apptID string) (*models.Appointment, error) {
	return s.transition(ctx, callerID, apptID, models.AppointmentConfirmed, "")
}

func (s *DefaultBookingService) Begin(ctx context.Context, callerID, apptID string) (*models.Appointment, error) {
	return s.transition(ctx, callerID, apptID, models.AppointmentInProgress, "")
}

func (s *DefaultBookingService) Complete(ctx context.Context, callerID, apptID string) (*models.Appointment, error) {
	return s.transition(ctx, callerID, apptID, models.AppointmentCompleted, "")
}

func (s *DefaultBookingService) MarkNoShow(ctx context.Context, callerID, apptID string) (*models.Appointment, error) {
	appt, err := s.Get(ctx, callerID, apptID)
	if err != nil {
		return nil, err
	}
	// No-show is a post-hoc judgement: the start time must already be behind us.
	if s.now().UTC().Before(appt.Start) {
		return nil, &ValidationError{Field: "time", Message: "appointment has not started yet"}
	}
	return s.release(ctx, appt, models.AppointmentNoShow, "")
}

func (s *DefaultBookingService) Cancel(ctx context.Context, callerID, apptID, reason string) (*models.Appointment, error) {
	appt, err := s.Get(ctx, callerID, apptID)
	if err != nil {
		return nil, err
	}
	return s.release(ctx, appt, models.AppointmentCancelled, reason)
}

// transition applies a plain state-machine move with no slot or event side
// effects. The repository guard makes the check-and-set atomic.
func (s *DefaultBookingService) transition(ctx context.Context, callerID, apptID string, to models.AppointmentStatus, reason string) (*models.Appointment, error) {
	appt, err := s.Get(ctx, callerID, apptID)
	if err != nil {
		return nil, err
	}
	updated, err := s.Appointments.TransitionStatus(ctx, apptID, allowedSources(to), to, reason)
	if errors.Is(err, appointmentRepo.ErrInvalidTransition) {
		return nil, &TransitionError{
			AppointmentID: apptID,
			Current:       string(appt.Status),
			Requested:     string(to),
		}
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// release moves the appointment to a terminal occupancy-freeing state:
// slots are freed in the same transaction as the status change, then every
// associated scheduled event is cancelled. Events already claimed by a
// dispatch worker stay in flight; cancellation still blocks any future
// occurrence of a recurring series.
func (s *DefaultBookingService) release(ctx context.Context, appt *models.Appointment, to models.AppointmentStatus, reason string) (*models.Appointment, error) {
	released, err := s.Bookings.ReleaseTransactionally(ctx, appt.ID, allowedSources(to), to, reason)
	if errors.Is(err, bookingRepo.ErrNotReleasable) {
		return nil, &TransitionError{
			AppointmentID: appt.ID,
			Current:       string(appt.Status),
			Requested:     string(to),
		}
	}
	if err != nil {
		return nil, err
	}

	s.cancelAppointmentEvents(ctx, released)
	s.invalidateAvailability(ctx, released.OrganizerID)
	s.Logger.Info("appointment released",
		zap.String("appointmentID", released.ID),
		zap.String("status", string(to)),
		zap.String("reason", reason))
	return released, nil
}

func (s *DefaultBookingService) authorize(callerID string, appt *models.Appointment) error {
	if callerID == "" {
		return &PermissionError{CallerID: callerID, AppointmentID: appt.ID}
	}
	for _, id := range appt.ResourceIDs() {
		if id == callerID {
			return nil
		}
	}
	return &PermissionError{CallerID: callerID, AppointmentID: appt.ID}
}

func (s *DefaultBookingService) invalidateAvailability(ctx context.Context, resourceID string) {
	if s.Availability != nil {
		s.Availability.InvalidateResource(ctx, resourceID)
	}
}

func validateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return &ValidationError{Field: "interval", Message: "start and end are required"}
	}
	if !start.Before(end) {
		return &ValidationError{Field: "interval", Message: "start must be before end"}
	}
	return nil
}
