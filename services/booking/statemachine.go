package booking

import "schedcore/models"

// The appointment lifecycle:
//
//	SCHEDULED -> CONFIRMED -> IN_PROGRESS -> COMPLETED
//	SCHEDULED / CONFIRMED  -> CANCELLED
//	SCHEDULED / CONFIRMED  -> NO_SHOW (post-hoc, after start time passes)
//
// COMPLETED, CANCELLED and NO_SHOW are terminal and can never be exited.
var transitionSources = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.AppointmentConfirmed:  {models.AppointmentScheduled},
	models.AppointmentInProgress: {models.AppointmentConfirmed},
	models.AppointmentCompleted:  {models.AppointmentInProgress},
	models.AppointmentCancelled:  {models.AppointmentScheduled, models.AppointmentConfirmed},
	models.AppointmentNoShow:     {models.AppointmentScheduled, models.AppointmentConfirmed},
}

// allowedSources returns the states from which target may be entered.
func allowedSources(target models.AppointmentStatus) []models.AppointmentStatus {
	return transitionSources[target]
}

// canTransition reports whether from -> to is a legal move.
func canTransition(from, to models.AppointmentStatus) bool {
	for _, s := range allowedSources(to) {
		if s == from {
			return true
		}
	}
	return false
}
