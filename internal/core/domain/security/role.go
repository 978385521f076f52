package security

// Role is an account's assigned role. The role to capability mapping is
// static and total: every valid role resolves to a capability set.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	default:
		return false
	}
}

var roleCapabilities = map[Role]Capability{
	RoleAdmin: AllCapabilities(),
	RoleMember: NewCapability(
		"contracts.read",
		"contracts.create",
		"contracts.update",
		"contracts.delete",
		"contracts.export",
		"documents.read",
		"documents.create",
		"documents.update",
		"reports.read",
	),
	RoleViewer: NewCapability(
		"contracts.read",
		"documents.read",
		"reports.read",
	),
}

// RoleCapabilities resolves a role to its capability set. Unknown roles get
// an empty set rather than an error so a bad role value can never widen
// access.
func RoleCapabilities(r Role) Capability {
	if caps, ok := roleCapabilities[r]; ok {
		return caps
	}
	return NewCapability()
}
