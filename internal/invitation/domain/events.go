package domain

import (
	"time"

	workspacedomain "tenant-control-plane/backend/internal/workspace/domain"
)

// Created is raised when an invitation is created. The token is
// deliberately absent: events feed audit and notification collaborators and
// must not leak the secret.
type Created struct {
	InvitationID string
	WorkspaceID  string
	Email        string
	Role         workspacedomain.MemberRole
	At           time.Time
}

func (Created) EventName() string       { return "invitation.created" }
func (e Created) OccurredAt() time.Time { return e.At }

// Accepted is raised when a pending invitation is accepted in time.
type Accepted struct {
	InvitationID string
	WorkspaceID  string
	Email        string
	At           time.Time
}

func (Accepted) EventName() string       { return "invitation.accepted" }
func (e Accepted) OccurredAt() time.Time { return e.At }

// Revoked is raised when a pending invitation is revoked.
type Revoked struct {
	InvitationID string
	WorkspaceID  string
	At           time.Time
}

func (Revoked) EventName() string       { return "invitation.revoked" }
func (e Revoked) OccurredAt() time.Time { return e.At }
