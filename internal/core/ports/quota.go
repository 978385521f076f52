package ports

import (
	"context"
	"time"

	"github.com/quotagate/quotagate/internal/core/domain/quota"
)

// BucketUpdateFn mutates a bucket in place during an atomic update. It may be
// invoked more than once when the repository retries an optimistic
// transaction, so it must be free of side effects beyond the bucket itself.
type BucketUpdateFn func(b *quota.Bucket)

// BucketRepository provides atomic read-modify-write access to quota
// counters. Implementations must serialize concurrent updates to the same
// key (a storage transaction, a compare-and-swap primitive, or a per-key
// lock) so tokens are never over-consumed by interleaved checks.
type BucketRepository interface {
	// Update loads the bucket stored at key, creating it from seed when
	// absent, applies fn, persists the result, and returns the stored state.
	Update(ctx context.Context, key string, seed quota.Bucket, fn BucketUpdateFn) (quota.Bucket, error)
	// Get returns the stored bucket, or nil when the key has never been used.
	Get(ctx context.Context, key string) (*quota.Bucket, error)
	// PurgeExpired removes buckets idle longer than staleAfter and clears
	// blocks that have already lapsed. Returns the number of buckets removed.
	PurgeExpired(ctx context.Context, staleAfter time.Duration) (int, error)
}

// RateLimiterService is the token bucket check. Implementations MUST be safe
// for concurrent use against the same identity and operation.
type RateLimiterService interface {
	// Check consumes tokens for one request. costOverride replaces the
	// configured per-request cost when positive. Errors are storage
	// failures only; a denial is an allowed=false decision, not an error.
	Check(ctx context.Context, id quota.Identity, operation string, costOverride int) (quota.Decision, error)
	// Inspect reports the current bucket state for an identity and operation
	// without consuming tokens. The bucket is never created or mutated.
	Inspect(ctx context.Context, id quota.Identity, operation string) (quota.Bucket, quota.OperationConfig, error)
}
