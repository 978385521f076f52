package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/application/services"
	"github.com/quotagate/quotagate/internal/core/domain/document"
	"github.com/quotagate/quotagate/internal/core/domain/security"
	"github.com/quotagate/quotagate/internal/core/ports"
)

func seedDoc(store *docStoreMock, tenantID uuid.UUID, kind string) *document.Document {
	doc := &document.Document{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Kind:      kind,
		Data:      map[string]any{"title": "q3 master agreement"},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	store.seed(doc)
	return doc
}

func TestNewTenantScope_RequiresTenant(t *testing.T) {
	store := newDocStoreMock()

	_, err := services.NewTenantScope(store, nil, "contracts", nil)
	require.Error(t, err)
	require.True(t, ports.IsGuardCode(err, ports.CodeUnauthenticated))

	_, err = services.NewTenantScope(store, &security.Context{TenantID: uuid.Nil}, "contracts", nil)
	require.Error(t, err)
	require.True(t, ports.IsGuardCode(err, ports.CodeUnauthenticated))
}

func TestTenantScope_ListIsTenantFiltered(t *testing.T) {
	store := newDocStoreMock()
	sec := memberContext(security.RoleMember)
	mine := seedDoc(store, sec.TenantID, "contracts")
	seedDoc(store, uuid.New(), "contracts")
	seedDoc(store, sec.TenantID, "reports")

	scope, err := services.NewTenantScope(store, sec, "contracts", nil)
	require.NoError(t, err)

	docs, err := scope.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, mine.ID, docs[0].ID)
}

func TestTenantScope_ByIDDistinguishesCrossTenantFromMissing(t *testing.T) {
	store := newDocStoreMock()
	sec := memberContext(security.RoleMember)
	foreign := seedDoc(store, uuid.New(), "contracts")

	scope, err := services.NewTenantScope(store, sec, "contracts", nil)
	require.NoError(t, err)
	ctx := context.Background()

	// Another tenant's document must never be returned, and the failure code
	// must identify the cross-tenant attempt for the audit trail.
	doc, err := scope.ByID(ctx, foreign.ID)
	require.Nil(t, doc)
	require.True(t, ports.IsGuardCode(err, ports.CodeCrossTenantAccess))

	doc, err = scope.ByID(ctx, uuid.New())
	require.Nil(t, doc)
	require.True(t, ports.IsGuardCode(err, ports.CodeNotFound))
}

func TestTenantScope_InsertInjectsTenantAndStripsPayloadTenant(t *testing.T) {
	store := newDocStoreMock()
	sec := memberContext(security.RoleMember)
	scope, err := services.NewTenantScope(store, sec, "contracts", nil)
	require.NoError(t, err)

	attacker := uuid.New().String()
	id, err := scope.Insert(context.Background(), map[string]any{
		"title":     "smuggled",
		"tenant_id": attacker,
		"tenantId":  attacker,
	}, security.Perm("contracts", "create"))
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), "contracts", id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, sec.TenantID, stored.TenantID)
	require.NotContains(t, stored.Data, "tenant_id")
	require.NotContains(t, stored.Data, "tenantId")
	require.Equal(t, "smuggled", stored.Data["title"])
}

func TestTenantScope_UpdateStripsTenantKeysAndGuardsOwnership(t *testing.T) {
	store := newDocStoreMock()
	sec := memberContext(security.RoleMember)
	mine := seedDoc(store, sec.TenantID, "contracts")
	foreign := seedDoc(store, uuid.New(), "contracts")

	scope, err := services.NewTenantScope(store, sec, "contracts", nil)
	require.NoError(t, err)
	ctx := context.Background()
	perm := security.Perm("contracts", "update")

	err = scope.Update(ctx, foreign.ID, map[string]any{"title": "hijack"}, perm)
	require.True(t, ports.IsGuardCode(err, ports.CodeCrossTenantAccess))
	require.Equal(t, 0, store.patches, "no write may follow a failed ownership check")

	err = scope.Update(ctx, mine.ID, map[string]any{"title": "renewed", "tenant_id": "x"}, perm)
	require.NoError(t, err)

	stored, err := store.Get(ctx, "contracts", mine.ID)
	require.NoError(t, err)
	require.Equal(t, "renewed", stored.Data["title"])
	require.NotContains(t, stored.Data, "tenant_id")
}

func TestTenantScope_UpdateAllTenantKeysIsNoOp(t *testing.T) {
	store := newDocStoreMock()
	sec := memberContext(security.RoleMember)
	mine := seedDoc(store, sec.TenantID, "contracts")

	scope, err := services.NewTenantScope(store, sec, "contracts", nil)
	require.NoError(t, err)

	err = scope.Update(context.Background(), mine.ID, map[string]any{"tenant_id": "x"}, "")
	require.NoError(t, err)
	require.Equal(t, 0, store.patches, "a patch emptied by stripping writes nothing")
}

func TestTenantScope_DeleteGuardsOwnership(t *testing.T) {
	store := newDocStoreMock()
	sec := memberContext(security.RoleMember)
	foreign := seedDoc(store, uuid.New(), "contracts")

	scope, err := services.NewTenantScope(store, sec, "contracts", nil)
	require.NoError(t, err)

	err = scope.Delete(context.Background(), foreign.ID, security.Perm("contracts", "delete"))
	require.True(t, ports.IsGuardCode(err, ports.CodeCrossTenantAccess))
	require.Equal(t, 0, store.deletes)
}

func TestTenantScope_PermissionCheckedBeforeAnyStoreAccess(t *testing.T) {
	store := newDocStoreMock()
	sec := memberContext(security.RoleViewer)
	mine := seedDoc(store, sec.TenantID, "contracts")

	scope, err := services.NewTenantScope(store, sec, "contracts", nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = scope.Insert(ctx, map[string]any{"title": "nope"}, security.Perm("contracts", "create"))
	require.True(t, ports.IsGuardCode(err, ports.CodePermissionDenied))

	err = scope.Update(ctx, mine.ID, map[string]any{"title": "nope"}, security.Perm("contracts", "update"))
	require.True(t, ports.IsGuardCode(err, ports.CodePermissionDenied))

	err = scope.Delete(ctx, mine.ID, security.Perm("contracts", "delete"))
	require.True(t, ports.IsGuardCode(err, ports.CodePermissionDenied))

	require.Equal(t, 0, store.writeCount())
}
