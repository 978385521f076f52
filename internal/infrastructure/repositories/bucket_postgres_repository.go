package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quotagate/quotagate/internal/core/domain/quota"
	"github.com/quotagate/quotagate/internal/core/ports"
	"github.com/quotagate/quotagate/internal/infrastructure/db"
)

// PostgresBucketRepository stores quota counters in the quota_buckets table.
// Update serializes the read-modify-write on one key with a row lock
// (SELECT ... FOR UPDATE) inside a single transaction, so concurrent checks
// against the same bucket can never over-consume tokens.
type PostgresBucketRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewPostgresBucketRepository(database *db.Database, logger *logrus.Logger) *PostgresBucketRepository {
	return &PostgresBucketRepository{db: database, logger: logger}
}

type bucketRow struct {
	Key          string       `db:"key"`
	Tokens       int          `db:"tokens"`
	LastRefill   time.Time    `db:"last_refill"`
	Violations   int          `db:"violations"`
	BlockedUntil sql.NullTime `db:"blocked_until"`
}

func (row *bucketRow) toBucket() quota.Bucket {
	b := quota.Bucket{
		Key:        row.Key,
		Tokens:     row.Tokens,
		LastRefill: row.LastRefill,
		Violations: row.Violations,
	}
	if row.BlockedUntil.Valid {
		t := row.BlockedUntil.Time
		b.BlockedUntil = &t
	}
	return b
}

func blockedParam(b *quota.Bucket) any {
	if b.BlockedUntil == nil {
		return nil
	}
	return *b.BlockedUntil
}

func (r *PostgresBucketRepository) Update(ctx context.Context, key string, seed quota.Bucket, fn ports.BucketUpdateFn) (quota.Bucket, error) {
	tx, err := r.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return quota.Bucket{}, fmt.Errorf("begin bucket update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Lazy creation: insert the seed row if the key has never been used. The
	// ON CONFLICT no-op keeps concurrent first requests safe.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO quota_buckets (key, tokens, last_refill, violations, blocked_until)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO NOTHING`,
		seed.Key, seed.Tokens, seed.LastRefill, seed.Violations, blockedParam(&seed),
	)
	if err != nil {
		return quota.Bucket{}, fmt.Errorf("seed bucket %s: %w", key, err)
	}

	var row bucketRow
	err = tx.GetContext(ctx, &row, `
		SELECT key, tokens, last_refill, violations, blocked_until
		FROM quota_buckets WHERE key = $1 FOR UPDATE`, key)
	if err != nil {
		return quota.Bucket{}, fmt.Errorf("lock bucket %s: %w", key, err)
	}

	b := row.toBucket()
	fn(&b)

	_, err = tx.ExecContext(ctx, `
		UPDATE quota_buckets
		SET tokens = $2, last_refill = $3, violations = $4, blocked_until = $5
		WHERE key = $1`,
		key, b.Tokens, b.LastRefill, b.Violations, blockedParam(&b),
	)
	if err != nil {
		return quota.Bucket{}, fmt.Errorf("persist bucket %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return quota.Bucket{}, fmt.Errorf("commit bucket %s: %w", key, err)
	}
	return b, nil
}

func (r *PostgresBucketRepository) Get(ctx context.Context, key string) (*quota.Bucket, error) {
	var row bucketRow
	err := r.db.DB.GetContext(ctx, &row, `
		SELECT key, tokens, last_refill, violations, blocked_until
		FROM quota_buckets WHERE key = $1`, key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b := row.toBucket()
	return &b, nil
}

// PurgeExpired is the retention sweep: expired blocks are cleared and
// buckets idle longer than staleAfter are deleted.
func (r *PostgresBucketRepository) PurgeExpired(ctx context.Context, staleAfter time.Duration) (int, error) {
	now := time.Now()

	if _, err := r.db.DB.ExecContext(ctx, `
		UPDATE quota_buckets SET blocked_until = NULL
		WHERE blocked_until IS NOT NULL AND blocked_until < $1`, now); err != nil {
		return 0, fmt.Errorf("clear expired blocks: %w", err)
	}

	res, err := r.db.DB.ExecContext(ctx, `
		DELETE FROM quota_buckets
		WHERE last_refill < $1 AND blocked_until IS NULL`, now.Add(-staleAfter))
	if err != nil {
		return 0, fmt.Errorf("purge stale buckets: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if r.logger != nil && removed > 0 {
		r.logger.WithField("removed", removed).Debug("db: purged stale quota buckets")
	}
	return int(removed), nil
}
