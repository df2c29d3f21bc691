package booking

import (
	"context"
	"time"

	"schedcore/models"
)

// BookRequest carries everything needed to create an appointment. Start and
// End are UTC instants; the timezone identifiers are IANA names used for slot
// bookkeeping and display.
type BookRequest struct {
	OrganizerID    string
	ParticipantIDs []string
	Start          time.Time
	End            time.Time
	ResourceTZ     string
	UserTZ         string
	Metadata       map[string]string
}

// BookingService is the appointment surface: conflict-checked creation, the
// state machine, and reschedule. All mutations verify the caller is involved
// in the appointment.
type BookingService interface {
	Book(ctx context.Context, callerID string, req BookRequest) (*models.Appointment, error)
	Get(ctx context.Context, callerID, apptID string) (*models.Appointment, error)
	List(ctx context.Context, callerID string, filter models.AppointmentFilter) ([]models.Appointment, error)
	Confirm(ctx context.Context, callerID, apptID string) (*models.Appointment, error)
	Begin(ctx context.Context, callerID, apptID string) (*models.Appointment, error)
	Complete(ctx context.Context, callerID, apptID string) (*models.Appointment, error)
	MarkNoShow(ctx context.Context, callerID, apptID string) (*models.Appointment, error)
	Cancel(ctx context.Context, callerID, apptID, reason string) (*models.Appointment, error)
	Reschedule(ctx context.Context, callerID, apptID string, newStart, newEnd time.Time) (*models.Appointment, error)
}
