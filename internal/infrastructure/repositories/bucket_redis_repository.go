package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/quotagate/quotagate/internal/core/domain/quota"
	"github.com/quotagate/quotagate/internal/core/ports"
)

// RedisBucketRepository stores quota counters as JSON values in Redis.
// Update runs as an optimistic WATCH transaction: the bucket is read, the
// mutation applied, and the write committed only if no other client touched
// the key in between, retrying on contention. Retention is handled by key
// TTL rather than an explicit sweep.
type RedisBucketRepository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *logrus.Logger
}

const bucketUpdateRetries = 10

func NewRedisBucketRepository(client *redis.Client, keyPrefix string, ttl time.Duration, logger *logrus.Logger) *RedisBucketRepository {
	if keyPrefix == "" {
		keyPrefix = "quota:bucket"
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &RedisBucketRepository{client: client, keyPrefix: keyPrefix, ttl: ttl, logger: logger}
}

func (r *RedisBucketRepository) key(key string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, key)
}

func (r *RedisBucketRepository) Update(ctx context.Context, key string, seed quota.Bucket, fn ports.BucketUpdateFn) (quota.Bucket, error) {
	rkey := r.key(key)
	var out quota.Bucket

	txf := func(tx *redis.Tx) error {
		b := seed
		data, err := tx.Get(ctx, rkey).Bytes()
		if err == nil {
			if uerr := json.Unmarshal(data, &b); uerr != nil {
				return fmt.Errorf("decode bucket %s: %w", key, uerr)
			}
		} else if err != redis.Nil {
			return err
		}

		fn(&b)

		payload, err := json.Marshal(&b)
		if err != nil {
			return fmt.Errorf("encode bucket %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rkey, payload, r.ttl)
			return nil
		})
		if err == nil {
			out = b
		}
		return err
	}

	for attempt := 0; attempt < bucketUpdateRetries; attempt++ {
		err := r.client.Watch(ctx, txf, rkey)
		if err == nil {
			return out, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return quota.Bucket{}, err
	}
	if r.logger != nil {
		r.logger.WithField("key", key).Warn("redis: bucket update exhausted optimistic retries")
	}
	return quota.Bucket{}, fmt.Errorf("bucket update for %s aborted after %d optimistic retries", key, bucketUpdateRetries)
}

func (r *RedisBucketRepository) Get(ctx context.Context, key string) (*quota.Bucket, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b quota.Bucket
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bucket %s: %w", key, err)
	}
	return &b, nil
}

// PurgeExpired is a no-op here: every key carries a TTL, so Redis retires
// idle buckets on its own.
func (r *RedisBucketRepository) PurgeExpired(ctx context.Context, staleAfter time.Duration) (int, error) {
	return 0, nil
}
