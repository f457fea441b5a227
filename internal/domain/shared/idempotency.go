package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request IDs that have already been billed so that
// retried usage reports can be short-circuited before hitting the journal.
// The journal remains the authoritative record; this store is a fast path only.
type IdempotencyStore interface {
	// MarkProcessed marks a request as processed with a TTL.
	// Returns true if the request was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, requestID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a request has already been processed
	IsProcessed(ctx context.Context, requestID string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed request IDs.
	// After this duration the fast path expires and a retry falls through to
	// the journal lookup, which still replays the stored record.
	TTL time.Duration

	// Enabled determines whether the fast-path store is consulted
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
