package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/quotagate/quotagate/internal/core/domain/document"
)

// Operation names one guarded entry point. Name follows the
// "<family>.<action>.<resource>" convention used by the config registry.
type Operation struct {
	Name string
	// Resource is the document kind the handler is scoped to.
	Resource string
	// Permission is the "resource.action" string required to run the
	// handler; empty means no permission check beyond authentication.
	Permission string
	// Cost overrides the configured per-request token cost when positive.
	Cost int
}

// TenantScope is the row-level-secured accessor handed to operation
// handlers. Every method is bound to the resolved tenant; handlers never see
// raw storage.
type TenantScope interface {
	List(ctx context.Context) ([]*document.Document, error)
	// ByID fails with CodeNotFound for missing documents and
	// CodeCrossTenantAccess when the document belongs to another tenant.
	ByID(ctx context.Context, id uuid.UUID) (*document.Document, error)
	// Insert stores data under the scope's tenant, ignoring any tenant id
	// present in the payload.
	Insert(ctx context.Context, data map[string]any, requiredPermission string) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any, requiredPermission string) error
	Delete(ctx context.Context, id uuid.UUID, requiredPermission string) error
}

// OperationHandler is the business logic invoked once the guard checks pass.
type OperationHandler func(ctx context.Context, scope TenantScope) (any, error)

// GuardService is the composition point every inbound operation passes
// through: resolve identity, rate limit, check permission, run the handler
// against a tenant scope, audit the outcome. The order is fixed.
type GuardService interface {
	Execute(ctx context.Context, raw RawIdentity, op Operation, handler OperationHandler) (any, error)
}
