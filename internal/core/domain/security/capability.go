package security

import "sort"

// Capability is the permission set a security context carries: either the
// full wildcard or an explicit finite set of "resource.action" strings.
// Modeling the wildcard as a tagged variant keeps permission checks exact;
// a literal "*" stored as data can never match anything.
type Capability struct {
	all bool
	set map[string]struct{}
}

// AllCapabilities returns the wildcard capability.
func AllCapabilities() Capability {
	return Capability{all: true}
}

// NewCapability builds an explicit capability set.
func NewCapability(permissions ...string) Capability {
	set := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return Capability{set: set}
}

// Has reports whether the capability grants a permission. The wildcard
// short-circuits true; otherwise this is an exact-string membership test
// with no prefix or pattern matching.
func (c Capability) Has(permission string) bool {
	if c.all {
		return true
	}
	_, ok := c.set[permission]
	return ok
}

// IsWildcard reports whether this capability grants everything.
func (c Capability) IsWildcard() bool {
	return c.all
}

// List returns the explicit permissions in sorted order; nil for the wildcard.
func (c Capability) List() []string {
	if c.all {
		return nil
	}
	out := make([]string, 0, len(c.set))
	for p := range c.set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Perm composes a "resource.action" permission string.
func Perm(resource, action string) string {
	return resource + "." + action
}
