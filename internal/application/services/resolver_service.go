package services

import (
	"context"
	"fmt"

	"github.com/quotagate/quotagate/internal/core/domain/security"
	"github.com/quotagate/quotagate/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// SecurityContextResolverService resolves raw identities through the external
// identity provider and the account store. Contexts are built fresh on every
// call; there is no caching, so a role or status change is effective on the
// very next request.
type SecurityContextResolverService struct {
	provider ports.IdentityProvider
	accounts ports.AccountRepository
	logger   *logrus.Logger
}

func NewSecurityContextResolverService(provider ports.IdentityProvider, accounts ports.AccountRepository, logger *logrus.Logger) *SecurityContextResolverService {
	return &SecurityContextResolverService{provider: provider, accounts: accounts, logger: logger}
}

func (s *SecurityContextResolverService) Resolve(ctx context.Context, raw ports.RawIdentity) (*security.Context, error) {
	if raw.Credential == "" {
		return nil, ports.NewGuardError(ports.CodeUnauthenticated, "no identity supplied")
	}

	subject, err := s.provider.Resolve(ctx, raw.Credential)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Debug("identity provider rejected credential")
		}
		return nil, ports.NewGuardError(ports.CodeUnauthenticated, "identity could not be resolved")
	}

	account, err := s.accounts.GetBySubject(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("account lookup for subject %q: %w", subject.ID, err)
	}
	if account == nil {
		return nil, ports.NewGuardError(ports.CodeUnauthenticated, "subject has no account")
	}
	if !account.Active {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"subject": subject.ID, "tenant_id": account.TenantID}).Warn("inactive account attempted access")
		}
		return nil, ports.NewGuardError(ports.CodeAccountInactive, "account is inactive")
	}

	return &security.Context{
		UserID:      account.ID,
		TenantID:    account.TenantID,
		Role:        account.Role,
		Permissions: security.RoleCapabilities(account.Role),
	}, nil
}
