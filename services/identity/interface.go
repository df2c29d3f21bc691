package identity

import "context"

// Resolver validates a bearer credential and returns the caller identity.
// The scheduling core treats the subject as an opaque string and never stores
// or validates credentials itself.
type Resolver interface {
	Resolve(ctx context.Context, bearerToken string) (string, error)
}
