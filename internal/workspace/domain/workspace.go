package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
	"tenant-control-plane/backend/internal/slug"
)

// Workspace is the collaboration aggregate under an organization. It owns
// the membership set; invitations reference it by id only.
type Workspace struct {
	events.Recorder

	ID             string
	OrganizationID string
	Name           string
	Slug           slug.Slug
	Status         Status
	Memberships    []Membership
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Status is the workspace lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

var (
	// ErrAlreadyDeleted marks a mutation attempted on a deleted workspace.
	ErrAlreadyDeleted = errors.New("workspace already deleted")
	// ErrInactive marks a member mutation on a non-active workspace.
	ErrInactive = errors.New("workspace is not active")
	// ErrDuplicateMember marks an AddMember for a user already present.
	ErrDuplicateMember = errors.New("user is already a member")
	// ErrNotAMember marks a member mutation for a user not present.
	ErrNotAMember = errors.New("user is not a member")
)

// New creates an active workspace. Slug uniqueness is scoped to the
// organization and checked by the caller; the storage constraint is the
// real guarantee.
func New(id, organizationID, name string, s slug.Slug, now time.Time) (*Workspace, error) {
	if organizationID == "" {
		return nil, domainerr.Validation("workspace", "organization_id", "must not be empty")
	}
	if name == "" {
		return nil, domainerr.Validation("workspace", "name", "must not be empty")
	}
	if s == "" {
		return nil, domainerr.Validation("workspace", "slug", "must not be empty")
	}
	ws := &Workspace{
		ID:             id,
		OrganizationID: organizationID,
		Name:           name,
		Slug:           s,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	ws.Record(Created{WorkspaceID: id, OrganizationID: organizationID, Name: name, Slug: s.String(), At: now})
	return ws, nil
}

// Update renames the workspace.
func (w *Workspace) Update(name string, now time.Time) error {
	if err := w.ensureNotDeleted(); err != nil {
		return err
	}
	if name == "" {
		return domainerr.Validation("workspace", "name", "must not be empty")
	}
	w.Name = name
	w.UpdatedAt = now
	w.Record(Updated{WorkspaceID: w.ID, Name: name, At: now})
	return nil
}

// Suspend moves the workspace to suspended. Fails once deleted.
func (w *Workspace) Suspend(now time.Time) error {
	if err := w.ensureNotDeleted(); err != nil {
		return err
	}
	w.Status = StatusSuspended
	w.UpdatedAt = now
	w.Record(Updated{WorkspaceID: w.ID, Name: w.Name, At: now})
	return nil
}

// Activate moves the workspace back to active. Fails once deleted.
func (w *Workspace) Activate(now time.Time) error {
	if err := w.ensureNotDeleted(); err != nil {
		return err
	}
	w.Status = StatusActive
	w.UpdatedAt = now
	w.Record(Updated{WorkspaceID: w.ID, Name: w.Name, At: now})
	return nil
}

// Delete marks the workspace deleted. Child memberships and invitations are
// not cascade-mutated here; that is a persistence-layer concern.
func (w *Workspace) Delete(now time.Time) error {
	if err := w.ensureNotDeleted(); err != nil {
		return err
	}
	w.Status = StatusDeleted
	at := now
	w.DeletedAt = &at
	w.UpdatedAt = now
	w.Record(Deleted{WorkspaceID: w.ID, At: now})
	return nil
}

// IsDeleted reports whether the workspace was logically deleted.
func (w *Workspace) IsDeleted() bool { return w.Status == StatusDeleted }

// AddMember adds userID with the given role. invitedBy may be empty for
// direct adds. Fails unless the workspace is active; fails if userID is
// already a member.
func (w *Workspace) AddMember(userID string, role MemberRole, invitedBy string, now time.Time) (*Membership, error) {
	if userID == "" {
		return nil, domainerr.Validation("membership", "user_id", "must not be empty")
	}
	if !role.Valid() {
		return nil, &domainerr.Error{
			Kind:   domainerr.KindValidation,
			Entity: "membership",
			Field:  "role",
			Value:  string(role),
			Msg:    "unknown member role",
		}
	}
	if w.Status != StatusActive {
		return nil, &domainerr.Error{
			Kind:     domainerr.KindInvalidTransition,
			Entity:   "workspace",
			Field:    "status",
			Value:    string(w.Status),
			Msg:      "members can only be added to an active workspace",
			Sentinel: ErrInactive,
		}
	}
	if w.memberIndex(userID) >= 0 {
		return nil, &domainerr.Error{
			Kind:     domainerr.KindConflict,
			Entity:   "membership",
			Field:    "user_id",
			Value:    userID,
			Msg:      "user is already a member of this workspace",
			Sentinel: ErrDuplicateMember,
		}
	}
	m := Membership{
		ID:          uuid.New().String(),
		WorkspaceID: w.ID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    now,
		InvitedBy:   invitedBy,
	}
	w.Memberships = append(w.Memberships, m)
	w.UpdatedAt = now
	w.Record(MemberAdded{WorkspaceID: w.ID, MembershipID: m.ID, UserID: userID, Role: role, At: now})
	return &m, nil
}

// RemoveMember removes userID's membership. No last-owner guard is enforced;
// that policy is undecided.
func (w *Workspace) RemoveMember(userID string, now time.Time) error {
	i := w.memberIndex(userID)
	if i < 0 {
		return w.notAMember(userID)
	}
	removed := w.Memberships[i]
	w.Memberships = append(w.Memberships[:i], w.Memberships[i+1:]...)
	w.UpdatedAt = now
	w.Record(MemberRemoved{WorkspaceID: w.ID, MembershipID: removed.ID, UserID: userID, At: now})
	return nil
}

// ChangeMemberRole sets userID's role to newRole. Setting the role the
// member already has is a no-op and raises no event.
func (w *Workspace) ChangeMemberRole(userID string, newRole MemberRole, now time.Time) error {
	if !newRole.Valid() {
		return &domainerr.Error{
			Kind:   domainerr.KindValidation,
			Entity: "membership",
			Field:  "role",
			Value:  string(newRole),
			Msg:    "unknown member role",
		}
	}
	i := w.memberIndex(userID)
	if i < 0 {
		return w.notAMember(userID)
	}
	old := w.Memberships[i].Role
	if old == newRole {
		return nil
	}
	w.Memberships[i].Role = newRole
	w.UpdatedAt = now
	w.Record(MemberRoleChanged{WorkspaceID: w.ID, UserID: userID, OldRole: old, NewRole: newRole, At: now})
	return nil
}

// Member returns the membership for userID, or nil if absent.
func (w *Workspace) Member(userID string) *Membership {
	if i := w.memberIndex(userID); i >= 0 {
		return &w.Memberships[i]
	}
	return nil
}

func (w *Workspace) memberIndex(userID string) int {
	for i := range w.Memberships {
		if w.Memberships[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (w *Workspace) notAMember(userID string) error {
	return &domainerr.Error{
		Kind:     domainerr.KindNotFound,
		Entity:   "membership",
		Field:    "user_id",
		Value:    userID,
		Msg:      "user is not a member of this workspace",
		Sentinel: ErrNotAMember,
	}
}

func (w *Workspace) ensureNotDeleted() error {
	if w.Status == StatusDeleted {
		return &domainerr.Error{
			Kind:     domainerr.KindInvalidTransition,
			Entity:   "workspace",
			Field:    "status",
			Value:    string(StatusDeleted),
			Msg:      "workspace is deleted",
			Sentinel: ErrAlreadyDeleted,
		}
	}
	return nil
}
