package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/application/services"
	"github.com/quotagate/quotagate/internal/core/domain/security"
	"github.com/quotagate/quotagate/internal/core/ports"
)

func activeAccount(role security.Role) *security.Account {
	return &security.Account{
		ID:       uuid.New(),
		Subject:  "auth0|abc123",
		TenantID: uuid.New(),
		Role:     role,
		Active:   true,
	}
}

func TestResolver_EmptyCredentialIsUnauthenticated(t *testing.T) {
	svc := services.NewSecurityContextResolverService(&providerMock{}, &accountRepoMock{}, nil)

	sec, err := svc.Resolve(context.Background(), ports.RawIdentity{Origin: "192.0.2.1"})
	require.Nil(t, sec)
	require.True(t, ports.IsGuardCode(err, ports.CodeUnauthenticated))
}

func TestResolver_ProviderRejectionIsUnauthenticated(t *testing.T) {
	provider := &providerMock{resolveFn: func(ctx context.Context, credential string) (*ports.Subject, error) {
		return nil, errors.New("signature mismatch")
	}}
	svc := services.NewSecurityContextResolverService(provider, &accountRepoMock{}, nil)

	sec, err := svc.Resolve(context.Background(), ports.RawIdentity{Credential: "garbage"})
	require.Nil(t, sec)
	require.True(t, ports.IsGuardCode(err, ports.CodeUnauthenticated))
}

func TestResolver_UnknownSubjectIsUnauthenticated(t *testing.T) {
	provider := &providerMock{resolveFn: func(ctx context.Context, credential string) (*ports.Subject, error) {
		return &ports.Subject{ID: "auth0|nobody"}, nil
	}}
	svc := services.NewSecurityContextResolverService(provider, &accountRepoMock{}, nil)

	sec, err := svc.Resolve(context.Background(), ports.RawIdentity{Credential: "valid"})
	require.Nil(t, sec)
	require.True(t, ports.IsGuardCode(err, ports.CodeUnauthenticated))
}

func TestResolver_InactiveAccount(t *testing.T) {
	account := activeAccount(security.RoleMember)
	account.Active = false
	provider := &providerMock{resolveFn: func(ctx context.Context, credential string) (*ports.Subject, error) {
		return &ports.Subject{ID: account.Subject}, nil
	}}
	accounts := &accountRepoMock{getFn: func(ctx context.Context, subject string) (*security.Account, error) {
		return account, nil
	}}
	svc := services.NewSecurityContextResolverService(provider, accounts, nil)

	sec, err := svc.Resolve(context.Background(), ports.RawIdentity{Credential: "valid"})
	require.Nil(t, sec)
	require.True(t, ports.IsGuardCode(err, ports.CodeAccountInactive))
}

func TestResolver_StorageFailureIsNotPartOfTheTaxonomy(t *testing.T) {
	provider := &providerMock{resolveFn: func(ctx context.Context, credential string) (*ports.Subject, error) {
		return &ports.Subject{ID: "auth0|abc123"}, nil
	}}
	accounts := &accountRepoMock{getFn: func(ctx context.Context, subject string) (*security.Account, error) {
		return nil, errors.New("connection refused")
	}}
	svc := services.NewSecurityContextResolverService(provider, accounts, nil)

	sec, err := svc.Resolve(context.Background(), ports.RawIdentity{Credential: "valid"})
	require.Nil(t, sec)
	require.Error(t, err)
	// The lookup failure surfaces as an internal error, never as a denial.
	require.Equal(t, ports.CodeInternal, ports.GuardCodeOf(err))
}

func TestResolver_BuildsContextWithRoleCapabilities(t *testing.T) {
	account := activeAccount(security.RoleViewer)
	provider := &providerMock{resolveFn: func(ctx context.Context, credential string) (*ports.Subject, error) {
		return &ports.Subject{ID: account.Subject, Claims: map[string]any{"iss": "quotagate"}}, nil
	}}
	accounts := &accountRepoMock{getFn: func(ctx context.Context, subject string) (*security.Account, error) {
		require.Equal(t, account.Subject, subject)
		return account, nil
	}}
	svc := services.NewSecurityContextResolverService(provider, accounts, nil)

	sec, err := svc.Resolve(context.Background(), ports.RawIdentity{Credential: "valid"})
	require.NoError(t, err)
	require.Equal(t, account.ID, sec.UserID)
	require.Equal(t, account.TenantID, sec.TenantID)
	require.Equal(t, security.RoleViewer, sec.Role)
	require.True(t, sec.Permissions.Has("contracts.read"))
	require.False(t, sec.Permissions.Has("contracts.create"))
}
