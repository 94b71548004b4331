package domain

import "tenant-control-plane/backend/internal/platform/domainerr"

// ScopeType discriminates whether a scope id names an organization or a
// workspace.
type ScopeType string

const (
	ScopeOrganization ScopeType = "organization"
	ScopeWorkspace    ScopeType = "workspace"
)

// Scope is the boundary within which a role or assignment is valid. It is a
// tagged union constructed only through OrganizationScope/WorkspaceScope, so
// an unknown type/id combination is unrepresentable.
type Scope struct {
	typ ScopeType
	id  string
}

// OrganizationScope returns a scope naming an organization.
func OrganizationScope(organizationID string) Scope {
	return Scope{typ: ScopeOrganization, id: organizationID}
}

// WorkspaceScope returns a scope naming a workspace.
func WorkspaceScope(workspaceID string) Scope {
	return Scope{typ: ScopeWorkspace, id: workspaceID}
}

// ParseScope rebuilds a scope from its stored (type, id) pair.
func ParseScope(typ ScopeType, id string) (Scope, error) {
	switch typ {
	case ScopeOrganization, ScopeWorkspace:
	default:
		return Scope{}, &domainerr.Error{
			Kind:   domainerr.KindValidation,
			Entity: "scope",
			Field:  "type",
			Value:  string(typ),
			Msg:    "unknown scope type",
		}
	}
	if id == "" {
		return Scope{}, domainerr.Validation("scope", "id", "must not be empty")
	}
	return Scope{typ: typ, id: id}, nil
}

// Type returns the discriminator.
func (s Scope) Type() ScopeType { return s.typ }

// ID returns the organization or workspace id.
func (s Scope) ID() string { return s.id }

// IsZero reports whether the scope was never constructed.
func (s Scope) IsZero() bool { return s.typ == "" || s.id == "" }
