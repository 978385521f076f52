package quota

import (
	"fmt"

	"github.com/google/uuid"
)

// IdentityKind distinguishes how a caller was identified for rate limiting.
type IdentityKind string

const (
	IdentityUser    IdentityKind = "user"
	IdentityOrigin  IdentityKind = "origin"
	IdentityUnknown IdentityKind = "unknown"
)

// Identity is the rate-limiting subject: an authenticated user when
// available, the caller's network origin otherwise. Callers with no usable
// origin collapse into a single shared "unknown" bucket, which is a degraded
// isolation mode the limiter warns about.
type Identity struct {
	Kind  IdentityKind
	Value string
}

// UserIdentity builds an identity from an authenticated user id.
func UserIdentity(id uuid.UUID) Identity {
	return Identity{Kind: IdentityUser, Value: id.String()}
}

// OriginIdentity builds an identity from a caller-supplied network origin.
// An empty origin yields the shared unknown identity.
func OriginIdentity(origin string) Identity {
	if origin == "" {
		return UnknownIdentity()
	}
	return Identity{Kind: IdentityOrigin, Value: origin}
}

// UnknownIdentity is the shared fallback bucket for callers with no
// resolvable identity at all.
func UnknownIdentity() Identity {
	return Identity{Kind: IdentityUnknown, Value: "unknown"}
}

// Degraded reports whether this identity shares a bucket with every other
// unidentifiable caller.
func (i Identity) Degraded() bool {
	return i.Kind == IdentityUnknown
}

// String renders the identity portion of a bucket key.
func (i Identity) String() string {
	return fmt.Sprintf("%s:%s", i.Kind, i.Value)
}

// BucketKey derives the unique counter key for this identity and operation.
func (i Identity) BucketKey(operation string) string {
	return fmt.Sprintf("%s:%s:%s", i.Kind, i.Value, operation)
}
