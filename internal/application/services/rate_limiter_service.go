package services

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/quotagate/quotagate/internal/core/domain/quota"
	"github.com/quotagate/quotagate/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// RateLimiterService implements the token bucket check. The whole
// read-modify-write runs inside the repository's atomic update, so the
// concurrency guarantee is uniform across storage backends.
type RateLimiterService struct {
	repo     ports.BucketRepository
	registry *quota.Registry
	logger   *logrus.Logger
	now      func() time.Time

	warnDegraded sync.Once
}

// RateLimiterConfig groups configuration parameters for the rate limiter.
type RateLimiterConfig struct {
	// Clock overrides the time source; nil means time.Now.
	Clock func() time.Time
}

func NewRateLimiterService(repo ports.BucketRepository, registry *quota.Registry, cfg *RateLimiterConfig, logger *logrus.Logger) *RateLimiterService {
	now := time.Now
	if cfg != nil && cfg.Clock != nil {
		now = cfg.Clock
	}
	return &RateLimiterService{repo: repo, registry: registry, logger: logger, now: now}
}

// Check consumes tokens for one request against the bucket derived from
// identity and operation. Buckets are created lazily at full capacity; a
// denial increments the violation count and may impose an escalating block,
// while any successful consumption resets violations to zero.
func (s *RateLimiterService) Check(ctx context.Context, id quota.Identity, operation string, costOverride int) (quota.Decision, error) {
	cfg := s.registry.Resolve(operation)
	cost := cfg.CostPerRequest
	if costOverride > 0 {
		cost = costOverride
	}

	if id.Degraded() {
		s.warnDegraded.Do(func() {
			if s.logger != nil {
				s.logger.WithField("operation", operation).Warn("rate limiting unidentifiable callers on the shared unknown bucket; per-caller isolation is degraded")
			}
		})
	}

	key := id.BucketKey(operation)
	seed := quota.NewBucket(key, cfg, s.now())

	var d quota.Decision
	// The closure may run more than once under optimistic retries, so the
	// decision is recomputed from scratch on every attempt.
	_, err := s.repo.Update(ctx, key, seed, func(b *quota.Bucket) {
		now := s.now()
		d = quota.Decision{}

		if b.Blocked(now) {
			d.Reason = quota.DenyBlocked
			d.TokensRemaining = b.Tokens
			d.ResetInSeconds = secondsUntil(now, *b.BlockedUntil)
			return
		}

		b.Refill(cfg, now)

		if b.Tokens >= cost {
			b.Tokens -= cost
			b.Violations = 0
			b.BlockedUntil = nil
			d.Allowed = true
			d.TokensRemaining = b.Tokens
			return
		}

		b.Violations++
		d.Reason = quota.DenyInsufficientTokens
		d.TokensRemaining = b.Tokens
		if blockFor := quota.Escalate(b.Violations); blockFor > 0 {
			until := now.Add(blockFor)
			b.BlockedUntil = &until
			d.ResetInSeconds = secondsUntil(now, until)
		} else {
			d.ResetInSeconds = refillWait(cost-b.Tokens, cfg.RefillRate)
		}
	})
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"key": key, "operation": operation}).WithError(err).Error("rate limiter: bucket update failed")
		}
		return quota.Decision{}, err
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"key":       key,
			"operation": operation,
			"allowed":   d.Allowed,
			"remaining": d.TokensRemaining,
			"reason":    d.Reason,
		}).Debug("rate limit decision")
	}
	return d, nil
}

// Inspect reports the bucket an identity would be charged against, with the
// refill applied virtually. Nothing is created or persisted; an untouched
// pair reports a full bucket.
func (s *RateLimiterService) Inspect(ctx context.Context, id quota.Identity, operation string) (quota.Bucket, quota.OperationConfig, error) {
	cfg := s.registry.Resolve(operation)
	key := id.BucketKey(operation)
	now := s.now()

	stored, err := s.repo.Get(ctx, key)
	if err != nil {
		return quota.Bucket{}, cfg, err
	}
	if stored == nil {
		return quota.NewBucket(key, cfg, now), cfg, nil
	}
	b := *stored
	if !b.Blocked(now) {
		b.Refill(cfg, now)
	}
	return b, cfg, nil
}

// secondsUntil reports the whole seconds until t, always at least 1 so the
// caller gets usable retry guidance.
func secondsUntil(now, t time.Time) int {
	s := int(math.Ceil(t.Sub(now).Seconds()))
	if s < 1 {
		s = 1
	}
	return s
}

// refillWait reports how long until the refill grants enough tokens to cover
// the shortfall, rounded up to whole seconds, minimum 1.
func refillWait(shortfall, refillRate int) int {
	s := (shortfall*60 + refillRate - 1) / refillRate
	if s < 1 {
		s = 1
	}
	return s
}
