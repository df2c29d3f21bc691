package booking

import (
	"testing"

	"schedcore/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.AppointmentStatus
		want     bool
	}{
		{models.AppointmentScheduled, models.AppointmentConfirmed, true},
		{models.AppointmentConfirmed, models.AppointmentInProgress, true},
		{models.AppointmentInProgress, models.AppointmentCompleted, true},
		{models.AppointmentScheduled, models.AppointmentCancelled, true},
		{models.AppointmentConfirmed, models.AppointmentCancelled, true},
		{models.AppointmentScheduled, models.AppointmentNoShow, true},
		{models.AppointmentConfirmed, models.AppointmentNoShow, true},

		{models.AppointmentScheduled, models.AppointmentInProgress, false},
		{models.AppointmentScheduled, models.AppointmentCompleted, false},
		{models.AppointmentInProgress, models.AppointmentCancelled, false},
		{models.AppointmentInProgress, models.AppointmentNoShow, false},
		{models.AppointmentCompleted, models.AppointmentConfirmed, false},
		{models.AppointmentCancelled, models.AppointmentConfirmed, false},
		{models.AppointmentNoShow, models.AppointmentCancelled, false},
		{models.AppointmentConfirmed, models.AppointmentScheduled, false},
	}
	for _, tc := range cases {
		if got := canTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("canTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []models.AppointmentStatus{
		models.AppointmentCompleted,
		models.AppointmentCancelled,
		models.AppointmentNoShow,
	}
	targets := []models.AppointmentStatus{
		models.AppointmentScheduled,
		models.AppointmentConfirmed,
		models.AppointmentInProgress,
		models.AppointmentCompleted,
		models.AppointmentCancelled,
		models.AppointmentNoShow,
	}
	for _, from := range terminals {
		if !from.Terminal() {
			t.Errorf("%s should report Terminal", from)
		}
		for _, to := range targets {
			if canTransition(from, to) {
				t.Errorf("terminal state %s must not transition to %s", from, to)
			}
		}
	}
}
