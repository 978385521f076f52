package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quotagate/quotagate/internal/core/domain/document"
	"github.com/quotagate/quotagate/internal/core/domain/security"
	"github.com/quotagate/quotagate/internal/core/ports"
)

// TenantScope enforces row-level security for one document kind on behalf of
// a resolved security context. Every read is filtered to the context's
// tenant and every write stores the context's tenant id, never a
// caller-supplied one. There is no superuser bypass: cross-tenant
// administration does not go through this type.
type TenantScope struct {
	store  ports.DocumentStore
	sec    *security.Context
	kind   string
	logger *logrus.Logger
}

// NewTenantScope binds a scope to a context and kind. It refuses to exist
// without an established tenant id, which is what keeps every downstream
// path tenant-bound.
func NewTenantScope(store ports.DocumentStore, sec *security.Context, kind string, logger *logrus.Logger) (*TenantScope, error) {
	if sec == nil || sec.TenantID == uuid.Nil {
		return nil, ports.NewGuardError(ports.CodeUnauthenticated, "tenant scope requires a resolved security context")
	}
	if kind == "" {
		return nil, fmt.Errorf("tenant scope requires a document kind")
	}
	return &TenantScope{store: store, sec: sec, kind: kind, logger: logger}, nil
}

// Kind returns the document kind this scope is bound to.
func (t *TenantScope) Kind() string {
	return t.kind
}

// List returns every document of the scope's kind owned by the tenant.
func (t *TenantScope) List(ctx context.Context) ([]*document.Document, error) {
	return t.store.SelectByTenant(ctx, t.kind, t.sec.TenantID)
}

// ByID loads one document. A document owned by another tenant fails with
// CodeCrossTenantAccess, distinguishable from CodeNotFound so the attempt
// can be audited as a security event, even though the HTTP layer presents
// both identically to avoid leaking document existence.
func (t *TenantScope) ByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	doc, err := t.store.Get(ctx, t.kind, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ports.NewGuardError(ports.CodeNotFound, fmt.Sprintf("%s %s not found", t.kind, id))
	}
	if doc.TenantID != t.sec.TenantID {
		if t.logger != nil {
			t.logger.WithFields(logrus.Fields{
				"kind":         t.kind,
				"document_id":  id,
				"tenant_id":    t.sec.TenantID,
				"owner_tenant": doc.TenantID,
				"user_id":      t.sec.UserID,
			}).Warn("cross-tenant document access attempt")
		}
		return nil, ports.NewGuardError(ports.CodeCrossTenantAccess, fmt.Sprintf("%s %s belongs to another tenant", t.kind, id))
	}
	return doc, nil
}

// Insert stores data as a new document owned by the scope's tenant. Any
// tenant id in the payload is discarded before storage.
func (t *TenantScope) Insert(ctx context.Context, data map[string]any, requiredPermission string) (uuid.UUID, error) {
	if err := t.require(requiredPermission); err != nil {
		return uuid.Nil, err
	}
	now := time.Now()
	doc := &document.Document{
		ID:        uuid.New(),
		TenantID:  t.sec.TenantID,
		Kind:      t.kind,
		Data:      document.StripTenantFields(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.store.Insert(ctx, doc); err != nil {
		return uuid.Nil, err
	}
	return doc.ID, nil
}

// Update patches an existing document. The load goes through ByID, so the
// cross-tenant guard applies before any write; tenant id keys are stripped
// from the patch.
func (t *TenantScope) Update(ctx context.Context, id uuid.UUID, patch map[string]any, requiredPermission string) error {
	if err := t.require(requiredPermission); err != nil {
		return err
	}
	if _, err := t.ByID(ctx, id); err != nil {
		return err
	}
	clean := document.StripTenantFields(patch)
	if len(clean) == 0 {
		return nil
	}
	return t.store.Patch(ctx, t.kind, id, clean)
}

// Delete removes a document, with the same ownership guard as Update.
func (t *TenantScope) Delete(ctx context.Context, id uuid.UUID, requiredPermission string) error {
	if err := t.require(requiredPermission); err != nil {
		return err
	}
	if _, err := t.ByID(ctx, id); err != nil {
		return err
	}
	return t.store.Delete(ctx, t.kind, id)
}

func (t *TenantScope) require(permission string) error {
	if permission == "" {
		return nil
	}
	if !t.sec.Permissions.Has(permission) {
		return ports.NewGuardError(ports.CodePermissionDenied, fmt.Sprintf("permission %q required", permission))
	}
	return nil
}
