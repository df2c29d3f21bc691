package booking

import "fmt"

// ValidationError reports malformed booking input. Rejected synchronously,
// never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PermissionError reports that the caller is neither organizer nor participant
// of the appointment it tried to touch.
type PermissionError struct {
	CallerID      string
	AppointmentID string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("caller %s has no access to appointment %s", e.CallerID, e.AppointmentID)
}

// TransitionError reports a state-machine transition the current status does
// not allow.
type TransitionError struct {
	AppointmentID string
	Current       string
	Requested     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("appointment %s cannot move from %s to %s", e.AppointmentID, e.Current, e.Requested)
}
