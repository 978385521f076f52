package ports

import (
	"context"

	"github.com/quotagate/quotagate/internal/core/domain/security"
)

// RawIdentity is the unresolved caller identity attached to a request:
// a bearer credential for the identity provider (may be empty) and the
// network origin used as the rate-limiting fallback.
type RawIdentity struct {
	Credential string
	Origin     string
}

// Subject is what the external identity provider resolves a credential to:
// an opaque subject identifier plus its claims. This layer never validates
// credentials itself.
type Subject struct {
	ID     string
	Claims map[string]any
}

// IdentityProvider is the collaborator boundary to the external identity
// system.
type IdentityProvider interface {
	Resolve(ctx context.Context, credential string) (*Subject, error)
}

// AccountRepository looks up the stored account a subject maps to. A missing
// subject returns (nil, nil), not an error.
type AccountRepository interface {
	GetBySubject(ctx context.Context, subject string) (*security.Account, error)
}

// SecurityContextResolver turns a raw identity into a full security context.
// Resolution happens fresh on every call; contexts are never cached across
// requests, so permission changes take effect immediately.
type SecurityContextResolver interface {
	// Resolve fails with CodeUnauthenticated when no usable identity is
	// present and CodeAccountInactive when the account is disabled.
	Resolve(ctx context.Context, raw RawIdentity) (*security.Context, error)
}
