package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/quotagate/quotagate/internal/core/domain/document"
)

// DocumentStore is the collaborator document store boundary. This layer only
// issues keyed gets, equality-filtered scans, and single-document writes; the
// store's own query engine is out of scope.
type DocumentStore interface {
	// Get returns the document, or nil when it does not exist. No tenant
	// filtering happens here; callers go through the tenant scope.
	Get(ctx context.Context, kind string, id uuid.UUID) (*document.Document, error)
	// SelectByTenant returns all documents of a kind owned by one tenant.
	SelectByTenant(ctx context.Context, kind string, tenantID uuid.UUID) ([]*document.Document, error)
	Insert(ctx context.Context, doc *document.Document) error
	// Patch merges fields into the stored document payload.
	Patch(ctx context.Context, kind string, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, kind string, id uuid.UUID) error
}
