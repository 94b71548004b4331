package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tenant-control-plane/backend/internal/db"
	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
	"tenant-control-plane/backend/internal/rbac/domain"
	"tenant-control-plane/backend/internal/rbac/engine"
)

var testNow = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

// memRBACStore backs both RoleStore and RoleAssignmentStore. Assignments
// resolve against the live roles map, so an assignment whose role was deleted
// contributes nothing, same as the inner join in the Postgres store.
type memRBACStore struct {
	mu          sync.Mutex
	roles       map[string]*domain.Role
	assignments map[string]*domain.RoleAssignment
}

func newMemRBACStore() *memRBACStore {
	return &memRBACStore{
		roles:       make(map[string]*domain.Role),
		assignments: make(map[string]*domain.RoleAssignment),
	}
}

func snapshotRole(r *domain.Role) *domain.Role {
	cp := *r
	cp.Recorder = events.Recorder{}
	cp.Permissions = append([]domain.Permission(nil), r.Permissions...)
	return &cp
}

func (m *memRBACStore) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return nil, nil
	}
	return snapshotRole(r), nil
}

func (m *memRBACStore) GetByScope(ctx context.Context, scope domain.Scope) ([]*domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Role
	for _, r := range m.roles {
		if r.Scope == scope {
			out = append(out, snapshotRole(r))
		}
	}
	return out, nil
}

func (m *memRBACStore) NameExistsInScope(ctx context.Context, name string, scope domain.Scope) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Name == name && r.Scope == scope {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRBACStore) Create(ctx context.Context, role *domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[role.ID] = snapshotRole(role)
	return nil
}

func (m *memRBACStore) Update(ctx context.Context, role *domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[role.ID]; !ok {
		return errors.New("update of missing role")
	}
	m.roles[role.ID] = snapshotRole(role)
	return nil
}

func (m *memRBACStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles, id)
	return nil
}

// roleAssignments exposes the assignment side of the fake. The RoleStore and
// RoleAssignmentStore interfaces overlap on GetByID/Create/Delete, so the
// fake cannot implement both on one receiver.
type roleAssignments struct {
	store *memRBACStore
}

func (a roleAssignments) GetByID(ctx context.Context, id string) (*domain.RoleAssignment, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	row, ok := a.store.assignments[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	cp.Recorder = events.Recorder{}
	return &cp, nil
}

func (a roleAssignments) Exists(ctx context.Context, roleID, userID string, scope domain.Scope) (bool, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	for _, row := range a.store.assignments {
		if row.RoleID == roleID && row.UserID == userID && row.Scope == scope {
			return true, nil
		}
	}
	return false, nil
}

func (a roleAssignments) GetByUserAndScope(ctx context.Context, userID string, scope domain.Scope) ([]domain.ResolvedAssignment, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	var out []domain.ResolvedAssignment
	for _, row := range a.store.assignments {
		if row.UserID != userID || row.Scope != scope {
			continue
		}
		role, ok := a.store.roles[row.RoleID]
		if !ok {
			continue
		}
		out = append(out, domain.ResolvedAssignment{Assignment: *row, Role: *snapshotRole(role)})
	}
	return out, nil
}

func (a roleAssignments) Create(ctx context.Context, row *domain.RoleAssignment) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	cp := *row
	cp.Recorder = events.Recorder{}
	a.store.assignments[row.ID] = &cp
	return nil
}

func (a roleAssignments) Delete(ctx context.Context, id string) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	delete(a.store.assignments, id)
	return nil
}

type capturePublisher struct {
	mu    sync.Mutex
	names []string
}

func (p *capturePublisher) Publish(ctx context.Context, evs []events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ev := range evs {
		p.names = append(p.names, ev.EventName())
	}
	return nil
}

func (p *capturePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

func newTestService(t *testing.T) (*Service, *memRBACStore, *capturePublisher) {
	t.Helper()
	store := newMemRBACStore()
	pub := &capturePublisher{}
	svc := NewService(store, roleAssignments{store}, engine.UnionEvaluator{}, db.PassthroughRunner{}, pub)
	return svc, store, pub
}

func TestCreateRole(t *testing.T) {
	svc, _, pub := newTestService(t)
	scope := domain.WorkspaceScope("ws-1")

	role, err := svc.CreateRole(context.Background(), "editor", "can edit", scope)
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if role.IsSystem {
		t.Error("tenant-created role must not be a system role")
	}
	if got := pub.published(); len(got) != 1 || got[0] != "role.created" {
		t.Errorf("published = %v, want [role.created]", got)
	}

	if _, err := svc.CreateRole(context.Background(), "editor", "again", scope); !domainerr.IsKind(err, domainerr.KindConflict) {
		t.Errorf("duplicate name: kind = %q, want conflict", domainerr.KindOf(err))
	}
	// The same name is free in a different scope.
	if _, err := svc.CreateRole(context.Background(), "editor", "elsewhere", domain.WorkspaceScope("ws-2")); err != nil {
		t.Errorf("cross-scope reuse: %v", err)
	}
}

func TestPermissionMutationsPersist(t *testing.T) {
	svc, store, _ := newTestService(t)
	scope := domain.WorkspaceScope("ws-1")

	role, err := svc.CreateRole(context.Background(), "editor", "", scope)
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if _, err := svc.AddPermission(context.Background(), role.ID, "document:write"); err != nil {
		t.Fatalf("AddPermission: %v", err)
	}
	if _, err := svc.AddPermission(context.Background(), role.ID, "document:write"); !errors.Is(err, domain.ErrDuplicatePermission) {
		t.Errorf("duplicate grant: err = %v, want ErrDuplicatePermission", err)
	}
	if _, err := svc.AddPermission(context.Background(), role.ID, "Bad Action"); !domainerr.IsKind(err, domainerr.KindValidation) {
		t.Errorf("malformed action: kind = %q, want validation", domainerr.KindOf(err))
	}

	stored, err := store.GetByID(context.Background(), role.ID)
	if err != nil || stored == nil {
		t.Fatalf("role lookup: %v", err)
	}
	if len(stored.Permissions) != 1 || stored.Permissions[0].Action != "document:write" {
		t.Errorf("persisted permissions = %v", stored.Permissions)
	}

	if _, err := svc.RemovePermission(context.Background(), role.ID, "document:write"); err != nil {
		t.Fatalf("RemovePermission: %v", err)
	}
	if _, err := svc.RemovePermission(context.Background(), role.ID, "document:write"); !errors.Is(err, domain.ErrPermissionNotFound) {
		t.Errorf("second remove: err = %v, want ErrPermissionNotFound", err)
	}
}

func TestSystemRoleImmutable(t *testing.T) {
	svc, store, _ := newTestService(t)
	scope := domain.WorkspaceScope("ws-1")

	sys, err := domain.NewSystem("sys-1", "workspace_admin", "built in", scope, []string{"workspace:read"}, testNow)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	sys.DrainEvents()
	if err := store.Create(context.Background(), sys); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.UpdateRole(context.Background(), "sys-1", "renamed", ""); !errors.Is(err, domain.ErrSystemRole) {
		t.Errorf("update: err = %v, want ErrSystemRole", err)
	}
	if _, err := svc.AddPermission(context.Background(), "sys-1", "workspace:delete"); !errors.Is(err, domain.ErrSystemRole) {
		t.Errorf("add permission: err = %v, want ErrSystemRole", err)
	}
	if err := svc.DeleteRole(context.Background(), "sys-1"); !errors.Is(err, domain.ErrSystemRole) {
		t.Errorf("delete: err = %v, want ErrSystemRole", err)
	}
}

func TestAssignRole(t *testing.T) {
	svc, _, pub := newTestService(t)
	scope := domain.WorkspaceScope("ws-1")

	role, err := svc.CreateRole(context.Background(), "editor", "", scope)
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}

	a, err := svc.AssignRole(context.Background(), role.ID, "u1", scope, "admin-user")
	if err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if a.UserID != "u1" || a.RoleID != role.ID {
		t.Errorf("assignment = %+v", a)
	}
	if got := pub.published(); got[len(got)-1] != "role_assignment.created" {
		t.Errorf("last published = %q, want role_assignment.created", got[len(got)-1])
	}

	if _, err := svc.AssignRole(context.Background(), role.ID, "u1", scope, "admin-user"); !domainerr.IsKind(err, domainerr.KindConflict) {
		t.Errorf("duplicate grant: kind = %q, want conflict", domainerr.KindOf(err))
	}
	if _, err := svc.AssignRole(context.Background(), "missing-role", "u1", scope, "admin-user"); !domainerr.IsKind(err, domainerr.KindNotFound) {
		t.Errorf("missing role: kind = %q, want not found", domainerr.KindOf(err))
	}
}

func TestRevokeAssignment(t *testing.T) {
	svc, _, pub := newTestService(t)
	scope := domain.WorkspaceScope("ws-1")

	role, err := svc.CreateRole(context.Background(), "editor", "", scope)
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if _, err := svc.AddPermission(context.Background(), role.ID, "document:write"); err != nil {
		t.Fatalf("AddPermission: %v", err)
	}
	a, err := svc.AssignRole(context.Background(), role.ID, "u1", scope, "admin-user")
	if err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	ok, err := svc.HasPermission(context.Background(), "u1", scope, "document:write")
	if err != nil || !ok {
		t.Fatalf("HasPermission before revoke = %v, %v", ok, err)
	}

	if err := svc.RevokeAssignment(context.Background(), a.ID); err != nil {
		t.Fatalf("RevokeAssignment: %v", err)
	}
	if got := pub.published(); got[len(got)-1] != "role_assignment.revoked" {
		t.Errorf("last published = %q, want role_assignment.revoked", got[len(got)-1])
	}
	ok, err = svc.HasPermission(context.Background(), "u1", scope, "document:write")
	if err != nil || ok {
		t.Errorf("HasPermission after revoke = %v, %v", ok, err)
	}

	if err := svc.RevokeAssignment(context.Background(), a.ID); !domainerr.IsKind(err, domainerr.KindNotFound) {
		t.Errorf("second revoke: kind = %q, want not found", domainerr.KindOf(err))
	}
}

func TestPermissionsUnionAcrossRoles(t *testing.T) {
	svc, _, _ := newTestService(t)
	scope := domain.WorkspaceScope("ws-1")

	editor, err := svc.CreateRole(context.Background(), "editor", "", scope)
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	viewer, err := svc.CreateRole(context.Background(), "viewer", "", scope)
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	for roleID, actions := range map[string][]string{
		editor.ID: {"document:write", "document:read"},
		viewer.ID: {"document:read"},
	} {
		for _, action := range actions {
			if _, err := svc.AddPermission(context.Background(), roleID, action); err != nil {
				t.Fatalf("AddPermission %s: %v", action, err)
			}
		}
	}
	if _, err := svc.AssignRole(context.Background(), editor.ID, "u1", scope, "admin-user"); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if _, err := svc.AssignRole(context.Background(), viewer.ID, "u1", scope, "admin-user"); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	perms, err := svc.ListPermissions(context.Background(), "u1", scope)
	if err != nil {
		t.Fatalf("ListPermissions: %v", err)
	}
	want := []string{"document:read", "document:write"}
	if len(perms) != len(want) || perms[0] != want[0] || perms[1] != want[1] {
		t.Errorf("permissions = %v, want sorted distinct %v", perms, want)
	}
}

func TestDeletedRoleGrantsNothing(t *testing.T) {
	svc, _, _ := newTestService(t)
	scope := domain.WorkspaceScope("ws-1")

	role, err := svc.CreateRole(context.Background(), "editor", "", scope)
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if _, err := svc.AddPermission(context.Background(), role.ID, "document:write"); err != nil {
		t.Fatalf("AddPermission: %v", err)
	}
	if _, err := svc.AssignRole(context.Background(), role.ID, "u1", scope, "admin-user"); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if err := svc.DeleteRole(context.Background(), role.ID); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}

	// The assignment row survives the delete but resolves to nothing.
	ok, err := svc.HasPermission(context.Background(), "u1", scope, "document:write")
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if ok {
		t.Error("assignment to a deleted role must grant nothing")
	}
	perms, err := svc.ListPermissions(context.Background(), "u1", scope)
	if err != nil {
		t.Fatalf("ListPermissions: %v", err)
	}
	if len(perms) != 0 {
		t.Errorf("permissions = %v, want none", perms)
	}
}

func TestHasPermissionNoAssignments(t *testing.T) {
	svc, _, _ := newTestService(t)
	ok, err := svc.HasPermission(context.Background(), "nobody", domain.WorkspaceScope("ws-1"), "document:read")
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if ok {
		t.Error("user with no assignments must have no permissions")
	}
}
