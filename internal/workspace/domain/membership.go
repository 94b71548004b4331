package domain

import "time"

// Membership links a user to a workspace with a role. (WorkspaceID, UserID)
// is unique; the constraint lives at the storage layer.
type Membership struct {
	ID          string
	WorkspaceID string
	UserID      string
	Role        MemberRole
	JoinedAt    time.Time
	InvitedBy   string
}

// MemberRole is the built-in workspace role of a member.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
	RoleViewer MemberRole = "viewer"
)

// Valid reports whether r is one of the known member roles.
func (r MemberRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	default:
		return false
	}
}
