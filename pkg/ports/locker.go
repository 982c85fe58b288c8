package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a RunLocker.
type UnlockFunc func(ctx context.Context) error

// RunLocker serializes runs that share a key, across processes when the
// implementation is distributed. Runs of one engine are already sequential;
// the locker extends that guarantee to several replicas serving the same
// bakefile.
type RunLocker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The returned UnlockFunc must be called to release it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
