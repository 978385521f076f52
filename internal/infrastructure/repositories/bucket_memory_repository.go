package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/quotagate/quotagate/internal/core/domain/quota"
	"github.com/quotagate/quotagate/internal/core/ports"
)

// MemoryBucketRepository keeps buckets in process memory and serializes
// concurrent updates to one key behind a per-key mutex. Used for tests and
// single-instance deployments; counters do not survive a restart.
type MemoryBucketRepository struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

type memoryBucket struct {
	mu sync.Mutex
	b  quota.Bucket
}

func NewMemoryBucketRepository() *MemoryBucketRepository {
	return &MemoryBucketRepository{buckets: make(map[string]*memoryBucket)}
}

func (r *MemoryBucketRepository) entry(key string, seed quota.Bucket) *memoryBucket {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.buckets[key]
	if !ok {
		e = &memoryBucket{b: seed}
		r.buckets[key] = e
	}
	return e
}

func (r *MemoryBucketRepository) Update(ctx context.Context, key string, seed quota.Bucket, fn ports.BucketUpdateFn) (quota.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return quota.Bucket{}, err
	}
	e := r.entry(key, seed)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.b)
	return e.b, nil
}

func (r *MemoryBucketRepository) Get(ctx context.Context, key string) (*quota.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	e, ok := r.buckets[key]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	b := e.b
	return &b, nil
}

func (r *MemoryBucketRepository) PurgeExpired(ctx context.Context, staleAfter time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := time.Now()
	cutoff := now.Add(-staleAfter)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, e := range r.buckets {
		e.mu.Lock()
		if e.b.BlockedUntil != nil && !e.b.BlockedUntil.After(now) {
			e.b.BlockedUntil = nil
		}
		stale := e.b.LastRefill.Before(cutoff) && e.b.BlockedUntil == nil
		e.mu.Unlock()
		if stale {
			delete(r.buckets, key)
			removed++
		}
	}
	return removed, nil
}
