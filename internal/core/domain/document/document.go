package document

import (
	"time"

	"github.com/google/uuid"
)

// Document is one tenant-owned business record in the collaborator document
// store. TenantID is load-bearing: every access path filters on it, and it is
// never taken from caller input.
type Document struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	TenantID  uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	Kind      string         `json:"kind" db:"kind"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// TenantFieldKeys are the payload keys stripped from caller-supplied data so
// a tenant id can never be smuggled in through the document body.
var TenantFieldKeys = []string{"tenant_id", "tenantId"}

// StripTenantFields returns a copy of data without any tenant id keys.
func StripTenantFields(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, k := range TenantFieldKeys {
		delete(out, k)
	}
	return out
}
