package handlers

import "schedcore/services/identity"

// HandlerBundle aggregates the wired handlers so route registration takes a
// single dependency.
type HandlerBundle struct {
	Appointments *AppointmentHandler
	Availability *AvailabilityHandler
	Events       *EventHandler
	Identity     identity.Resolver
}
