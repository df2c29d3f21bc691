package testfixtures

import (
	"context"
	"sync"
)

// Delivery records one Deliver call.
type Delivery struct {
	Recipients  []string
	TemplateTag string
	Payload     map[string]string
}

// RecordingDeliverer captures deliveries and can be scripted to fail the
// first N attempts, or every attempt.
type RecordingDeliverer struct {
	mu         sync.Mutex
	Deliveries []Delivery
	FailFirst  int
	FailAlways bool
	Err        error
	attempts   int
}

func (d *RecordingDeliverer) Deliver(_ context.Context, recipients []string, templateTag string, payload map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.attempts++
	if d.FailAlways || d.attempts <= d.FailFirst {
		return d.Err
	}
	d.Deliveries = append(d.Deliveries, Delivery{
		Recipients:  recipients,
		TemplateTag: templateTag,
		Payload:     payload,
	})
	return nil
}

func (d *RecordingDeliverer) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

func (d *RecordingDeliverer) Delivered() []Delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Delivery(nil), d.Deliveries...)
}
