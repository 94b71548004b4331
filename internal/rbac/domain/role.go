package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"

	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
)

// actionPattern is the resource:action format of a permission.
var actionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*:[a-z][a-z0-9_]*$`)

var (
	// ErrSystemRole marks any mutation of a platform-defined role.
	ErrSystemRole = errors.New("system role is immutable")
	// ErrDuplicatePermission marks adding an action the role already has.
	ErrDuplicatePermission = errors.New("permission already granted")
	// ErrPermissionNotFound marks removing an action the role does not have.
	ErrPermissionNotFound = errors.New("permission not granted")
)

// Permission grants one resource:action to its role.
type Permission struct {
	ID     string
	RoleID string
	Action string
}

// Role is a named permission bundle scoped to an organization or workspace.
// (Name, ScopeID, ScopeType) is unique; the constraint lives at the storage
// layer. System roles are platform-defined and immutable.
type Role struct {
	events.Recorder

	ID          string
	Name        string
	Description string
	Scope       Scope
	IsSystem    bool
	Permissions []Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New creates a tenant-defined role. Name uniqueness within the scope is
// pre-checked by the caller; the storage constraint is the real guarantee.
func New(id, name, description string, scope Scope, now time.Time) (*Role, error) {
	r, err := newRole(id, name, description, scope, false, now)
	if err != nil {
		return nil, err
	}
	r.Record(RoleCreated{RoleID: id, Name: name, Scope: scope, At: now})
	return r, nil
}

// NewSystem creates a platform-defined role with the given actions. Used by
// seeding and store hydration, never reachable from tenant commands.
func NewSystem(id, name, description string, scope Scope, actions []string, now time.Time) (*Role, error) {
	r, err := newRole(id, name, description, scope, true, now)
	if err != nil {
		return nil, err
	}
	for _, action := range actions {
		if err := validateAction(action); err != nil {
			return nil, err
		}
		r.Permissions = append(r.Permissions, Permission{ID: uuid.New().String(), RoleID: id, Action: action})
	}
	r.Record(RoleCreated{RoleID: id, Name: name, Scope: scope, At: now})
	return r, nil
}

func newRole(id, name, description string, scope Scope, system bool, now time.Time) (*Role, error) {
	if name == "" {
		return nil, domainerr.Validation("role", "name", "must not be empty")
	}
	if scope.IsZero() {
		return nil, domainerr.Validation("role", "scope", "must name an organization or workspace")
	}
	return &Role{
		ID:          id,
		Name:        name,
		Description: description,
		Scope:       scope,
		IsSystem:    system,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Update renames the role and replaces its description.
func (r *Role) Update(name, description string, now time.Time) error {
	if err := r.ensureMutable(); err != nil {
		return err
	}
	if name == "" {
		return domainerr.Validation("role", "name", "must not be empty")
	}
	r.Name = name
	r.Description = description
	r.UpdatedAt = now
	r.Record(RoleUpdated{RoleID: r.ID, Name: name, At: now})
	return nil
}

// AddPermission grants action to the role. Fails on system roles, malformed
// actions, and duplicates.
func (r *Role) AddPermission(action string, now time.Time) error {
	if err := r.ensureMutable(); err != nil {
		return err
	}
	if err := validateAction(action); err != nil {
		return err
	}
	if r.HasPermission(action) {
		return &domainerr.Error{
			Kind:     domainerr.KindConflict,
			Entity:   "permission",
			Field:    "action",
			Value:    action,
			Msg:      "role already has this permission",
			Sentinel: ErrDuplicatePermission,
		}
	}
	r.Permissions = append(r.Permissions, Permission{ID: uuid.New().String(), RoleID: r.ID, Action: action})
	r.UpdatedAt = now
	r.Record(RoleUpdated{RoleID: r.ID, Name: r.Name, At: now})
	return nil
}

// RemovePermission revokes action from the role.
func (r *Role) RemovePermission(action string, now time.Time) error {
	if err := r.ensureMutable(); err != nil {
		return err
	}
	for i := range r.Permissions {
		if r.Permissions[i].Action == action {
			r.Permissions = append(r.Permissions[:i], r.Permissions[i+1:]...)
			r.UpdatedAt = now
			r.Record(RoleUpdated{RoleID: r.ID, Name: r.Name, At: now})
			return nil
		}
	}
	return &domainerr.Error{
		Kind:     domainerr.KindNotFound,
		Entity:   "permission",
		Field:    "action",
		Value:    action,
		Msg:      "role does not have this permission",
		Sentinel: ErrPermissionNotFound,
	}
}

// Delete marks the role for removal and raises RoleDeleted. Existing
// assignments are not cascaded; that policy is undecided.
func (r *Role) Delete(now time.Time) error {
	if err := r.ensureMutable(); err != nil {
		return err
	}
	r.Record(RoleDeleted{RoleID: r.ID, Name: r.Name, At: now})
	return nil
}

// HasPermission reports whether the role grants action. Pure membership test.
func (r *Role) HasPermission(action string) bool {
	for i := range r.Permissions {
		if r.Permissions[i].Action == action {
			return true
		}
	}
	return false
}

func (r *Role) ensureMutable() error {
	if r.IsSystem {
		return &domainerr.Error{
			Kind:     domainerr.KindInvalidTransition,
			Entity:   "role",
			Field:    "is_system",
			Value:    r.Name,
			Msg:      "system roles cannot be modified",
			Sentinel: ErrSystemRole,
		}
	}
	return nil
}

func validateAction(action string) error {
	if !actionPattern.MatchString(action) {
		return &domainerr.Error{
			Kind:   domainerr.KindValidation,
			Entity: "permission",
			Field:  "action",
			Value:  action,
			Msg:    "must match resource:action with lowercase letters, digits, and underscores",
		}
	}
	return nil
}
