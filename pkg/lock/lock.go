// Package lock provides the per-device read-write locking abstraction used
// to guard Device.Reader/Writer scopes against same-process races. The
// engine makes no claim about concurrent writers across processes or
// machines; this package only serialises goroutines within one process.
package lock

import (
	"context"
	"time"
)

// RWLocker provides read-write locking semantics keyed by device name.
// Multiple readers may hold a key concurrently; a writer has exclusive
// access. The ttl parameter exists for interface symmetry with a
// hypothetical distributed backend; the local implementation ignores it.
type RWLocker interface {
	// Lock acquires exclusive access to key, blocking until it is available.
	Lock(ctx context.Context, key string, ttl time.Duration) error

	// Unlock releases exclusive access to key.
	Unlock(ctx context.Context, key string) error

	// RLock acquires shared access to key, blocking until no writer holds it.
	RLock(ctx context.Context, key string, ttl time.Duration) error

	// RUnlock releases shared access to key.
	RUnlock(ctx context.Context, key string) error
}
