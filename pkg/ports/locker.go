package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed ownership of an axis.
// Two panels must never drive the same axis at once.
type DistributedLocker interface {
	// Lock attempts to acquire a lock for the given key (e.g. an axis name).
	// It blocks until the lock is acquired or the context is canceled.
	// The lock expires after ttl unless released earlier with the returned UnlockFunc.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
