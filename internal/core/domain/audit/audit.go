package audit

import (
	"time"

	"github.com/google/uuid"
)

// Record is one append-only allow/deny decision entry. Written once per
// guarded operation, read only by reporting.
type Record struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	TenantID        *uuid.UUID `json:"tenant_id,omitempty" db:"tenant_id"`
	UserID          *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	IdentityKey     string     `json:"identity_key" db:"identity_key"`
	Operation       string     `json:"operation" db:"operation"`
	Allowed         bool       `json:"allowed" db:"allowed"`
	Reason          string     `json:"reason,omitempty" db:"reason"`
	TokensRemaining int        `json:"tokens_remaining" db:"tokens_remaining"`
	IPAddress       string     `json:"ip_address" db:"ip_address"`
	Details         any        `json:"details,omitempty" db:"details"`
	Timestamp       time.Time  `json:"timestamp" db:"timestamp"`
}

// Denial reasons recorded with a Record. CrossTenant is logged distinctly
// from NotFound even when both surface to the caller as an opaque not-found.
const (
	ReasonRateLimited      = "rate_limited"
	ReasonBlocked          = "blocked"
	ReasonUnauthenticated  = "unauthenticated"
	ReasonAccountInactive  = "account_inactive"
	ReasonPermissionDenied = "permission_denied"
	ReasonCrossTenant      = "cross_tenant"
	ReasonNotFound         = "not_found"
	ReasonHandlerError     = "handler_error"
)

// Filter narrows audit record queries for reporting.
type Filter struct {
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Operation *string    `json:"operation,omitempty"`
	Allowed   *bool      `json:"allowed,omitempty"`
	Reason    *string    `json:"reason,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}
