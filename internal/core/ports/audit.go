package ports

import (
	"context"

	"github.com/quotagate/quotagate/internal/core/domain/audit"
)

// AuditRepository defines the interface for audit record data operations.
type AuditRepository interface {
	Create(ctx context.Context, rec *audit.Record) error
	List(ctx context.Context, filter *audit.Filter) ([]*audit.Record, error)
	Count(ctx context.Context, filter *audit.Filter) (int, error)
}

// AuditService appends decision records. Record is best-effort: a failed
// write is logged and swallowed so auditing can never block or fail the
// operation it describes.
type AuditService interface {
	Record(ctx context.Context, rec *audit.Record)
	GetRecords(ctx context.Context, filter *audit.Filter) ([]*audit.Record, int, error)
}
