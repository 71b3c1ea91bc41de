package cache

import (
	"context"
	"time"
)

// Store is the shared key/value surface behind rate limiting and short-lived
// server state. Implementations must be safe for concurrent use; the redis
// backing makes the counters meaningful across replicas, the database backing
// keeps single-node deployments dependency-free.
type Store interface {
	// IncrementWithTTL bumps the counter at key, starting the window on the
	// first increment, and returns the new count with the remaining window.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value and whether the key exists and is unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	Delete(ctx context.Context, keys ...string) error
}
