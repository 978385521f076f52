package quota

import "time"

// Bucket is one persisted quota counter, keyed by identity and operation.
// Violations counts consecutive denials since the last successful
// consumption; BlockedUntil is set when escalation imposes a lockout.
type Bucket struct {
	Key          string     `json:"key" db:"key"`
	Tokens       int        `json:"tokens" db:"tokens"`
	LastRefill   time.Time  `json:"last_refill" db:"last_refill"`
	Violations   int        `json:"violations" db:"violations"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty" db:"blocked_until"`
}

// NewBucket creates a full bucket for a key, as done lazily on the first
// request for an (identity, operation) pair.
func NewBucket(key string, cfg OperationConfig, now time.Time) Bucket {
	return Bucket{
		Key:        key,
		Tokens:     cfg.MaxTokens,
		LastRefill: now,
	}
}

// Refill grants floor(elapsed minutes * refill rate) tokens, capped at
// MaxTokens. Fractional tokens are never granted; LastRefill only advances
// when at least one whole token is added, so partial intervals accumulate.
func (b *Bucket) Refill(cfg OperationConfig, now time.Time) {
	elapsed := now.Sub(b.LastRefill)
	if elapsed <= 0 {
		return
	}
	add := int(elapsed.Minutes() * float64(cfg.RefillRate))
	if add <= 0 {
		return
	}
	b.Tokens += add
	if b.Tokens > cfg.MaxTokens {
		b.Tokens = cfg.MaxTokens
	}
	b.LastRefill = now
}

// Blocked reports whether the bucket is under an active escalation block.
func (b *Bucket) Blocked(now time.Time) bool {
	return b.BlockedUntil != nil && b.BlockedUntil.After(now)
}
