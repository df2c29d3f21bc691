package scheduler

import (
	"fmt"
	"time"
)

// InvalidTimezoneError reports a malformed IANA timezone identifier. Never
// retried: the caller must fix the request.
type InvalidTimezoneError struct {
	Zone string
	Err  error
}

func (e *InvalidTimezoneError) Error() string {
	return fmt.Sprintf("invalid timezone %q: %v", e.Zone, e.Err)
}

func (e *InvalidTimezoneError) Unwrap() error { return e.Err }

// PastTimeError reports an attempt to schedule an event at an instant that has
// already passed.
type PastTimeError struct {
	FireAt time.Time
	Now    time.Time
}

func (e *PastTimeError) Error() string {
	return fmt.Sprintf("fire time %s is in the past (now %s)",
		e.FireAt.Format(time.RFC3339), e.Now.Format(time.RFC3339))
}
