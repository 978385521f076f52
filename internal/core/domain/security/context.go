package security

import (
	"time"

	"github.com/google/uuid"
)

// Context is the resolved identity for one request: who the caller is, which
// tenant they belong to, and what they may do. It is derived fresh per
// request and never cached or persisted, so a role change takes effect on the
// next call.
type Context struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID
	Role        Role
	Permissions Capability
}

// Account is the stored identity record a subject resolves to.
type Account struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Subject   string    `json:"subject" db:"subject"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Role      Role      `json:"role" db:"role"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
