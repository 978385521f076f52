package security_test

import (
	"testing"

	"github.com/quotagate/quotagate/internal/core/domain/security"
)

func TestCapability_ExactMembership(t *testing.T) {
	caps := security.NewCapability("contracts.read", "contracts.create")

	if !caps.Has("contracts.read") {
		t.Fatal("expected contracts.read to be granted")
	}
	if caps.Has("contracts.delete") {
		t.Fatal("contracts.delete must not be granted")
	}
	// No prefix or pattern matching of any kind.
	if caps.Has("contracts") || caps.Has("contracts.") || caps.Has("contracts.read.extra") {
		t.Fatal("membership must be an exact string test")
	}
}

func TestCapability_WildcardShortCircuits(t *testing.T) {
	all := security.AllCapabilities()
	if !all.Has("anything.at.all") {
		t.Fatal("wildcard must grant every permission")
	}
	if !all.IsWildcard() {
		t.Fatal("expected wildcard capability")
	}
	if all.List() != nil {
		t.Fatal("wildcard has no finite permission list")
	}
}

func TestCapability_LiteralAsteriskIsJustData(t *testing.T) {
	// A "*" stored as an explicit permission is an ordinary string, not a
	// wildcard: it grants only itself.
	caps := security.NewCapability("*")
	if caps.IsWildcard() {
		t.Fatal("a literal asterisk entry must not become the wildcard")
	}
	if caps.Has("contracts.read") {
		t.Fatal("a literal asterisk must not match other permissions")
	}
	if !caps.Has("*") {
		t.Fatal("a literal asterisk should match itself exactly")
	}
}

func TestRoleCapabilities_TotalMapping(t *testing.T) {
	for _, role := range []security.Role{security.RoleAdmin, security.RoleMember, security.RoleViewer} {
		if !role.IsValid() {
			t.Fatalf("role %s should be valid", role)
		}
		// Every valid role resolves to a capability; resolution never fails.
		_ = security.RoleCapabilities(role)
	}

	if !security.RoleCapabilities(security.RoleAdmin).Has("contracts.delete") {
		t.Fatal("admin must hold the wildcard")
	}
	viewer := security.RoleCapabilities(security.RoleViewer)
	if !viewer.Has("contracts.read") {
		t.Fatal("viewer should read contracts")
	}
	if viewer.Has("contracts.create") {
		t.Fatal("viewer must not create contracts")
	}
}

func TestRoleCapabilities_UnknownRoleGrantsNothing(t *testing.T) {
	caps := security.RoleCapabilities(security.Role("intruder"))
	if caps.IsWildcard() || caps.Has("contracts.read") {
		t.Fatal("unknown roles must resolve to an empty capability set")
	}
}

func TestPerm_Composition(t *testing.T) {
	if got := security.Perm("contracts", "create"); got != "contracts.create" {
		t.Fatalf("Perm = %q", got)
	}
}
