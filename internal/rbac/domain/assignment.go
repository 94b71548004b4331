package domain

import (
	"time"

	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
)

// RoleAssignment grants a role to a user within a scope.
// (RoleID, UserID, ScopeID) is unique; the caller pre-checks existence and
// the storage constraint is the real guarantee.
type RoleAssignment struct {
	events.Recorder

	ID         string
	RoleID     string
	UserID     string
	Scope      Scope
	AssignedAt time.Time
	AssignedBy string
}

// NewAssignment creates a role assignment.
func NewAssignment(id, roleID, userID string, scope Scope, assignedBy string, now time.Time) (*RoleAssignment, error) {
	if roleID == "" {
		return nil, domainerr.Validation("role_assignment", "role_id", "must not be empty")
	}
	if userID == "" {
		return nil, domainerr.Validation("role_assignment", "user_id", "must not be empty")
	}
	if scope.IsZero() {
		return nil, domainerr.Validation("role_assignment", "scope", "must name an organization or workspace")
	}
	if assignedBy == "" {
		return nil, domainerr.Validation("role_assignment", "assigned_by", "must not be empty")
	}
	a := &RoleAssignment{
		ID:         id,
		RoleID:     roleID,
		UserID:     userID,
		Scope:      scope,
		AssignedAt: now,
		AssignedBy: assignedBy,
	}
	a.Record(AssignmentCreated{AssignmentID: id, RoleID: roleID, UserID: userID, Scope: scope, At: now})
	return a, nil
}

// Revoke raises the revocation event. Removing the row is the caller's
// responsibility.
func (a *RoleAssignment) Revoke(now time.Time) {
	a.Record(AssignmentRevoked{AssignmentID: a.ID, RoleID: a.RoleID, UserID: a.UserID, Scope: a.Scope, At: now})
}

// ResolvedAssignment pairs an assignment with its role, permissions loaded.
// This is the evaluator's input shape, produced by the assignment store.
type ResolvedAssignment struct {
	Assignment RoleAssignment
	Role       Role
}
