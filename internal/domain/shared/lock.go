package shared

import (
	"context"
	"time"
)

// Locker hands out short-lived exclusive leases keyed by string. It serializes
// mutations on a single aggregate across processes.
type Locker interface {
	// Acquire returns a release func when the lease was obtained, or
	// ErrLockHeld when another holder owns the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// ErrLockHeld is returned when a lease is already held by someone else.
var ErrLockHeld = NewDomainError(CodeConcurrencyConflict, "Another operation on this resource is in progress")
