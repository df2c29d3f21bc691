package notification

import "context"

// Deliverer is the narrow seam to the notification delivery collaborator.
// The dispatch coordinator hands it due events; any error it returns feeds the
// retry/backoff policy. Downstream delivery is assumed idempotent.
type Deliverer interface {
	Deliver(ctx context.Context, recipients []string, templateTag string, payload map[string]string) error
}
