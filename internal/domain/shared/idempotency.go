package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already processed: webhook event
// IDs and checkout idempotency keys.
type IdempotencyStore interface {
	// Reserve records key with value if absent. It returns true when the key
	// was newly recorded and false when it already existed.
	Reserve(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get returns the value stored for key, or "" when absent
	Get(ctx context.Context, key string) (string, error)
	// Set overwrites the value stored for key
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Release forgets key so a failed operation can be retried
	Release(ctx context.Context, key string) error
}
