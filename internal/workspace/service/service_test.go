package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tenant-control-plane/backend/internal/db"
	orgdomain "tenant-control-plane/backend/internal/organization/domain"
	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
	"tenant-control-plane/backend/internal/slug"
	"tenant-control-plane/backend/internal/workspace/domain"
)

var testNow = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

// memWorkspaceStore is an in-memory Store plus MembershipStore for tests.
// Memberships live in their own map so GetByIDWithMemberships exercises the
// same join shape as the Postgres store.
type memWorkspaceStore struct {
	mu         sync.Mutex
	workspaces map[string]*domain.Workspace
	members    map[string][]domain.Membership // workspaceID -> rows
}

func newMemWorkspaceStore() *memWorkspaceStore {
	return &memWorkspaceStore{
		workspaces: make(map[string]*domain.Workspace),
		members:    make(map[string][]domain.Membership),
	}
}

func (m *memWorkspaceStore) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, nil
	}
	cp := *ws
	return &cp, nil
}

func (m *memWorkspaceStore) GetByIDWithMemberships(ctx context.Context, id string) (*domain.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, nil
	}
	cp := *ws
	cp.Memberships = append([]domain.Membership(nil), m.members[id]...)
	return &cp, nil
}

func (m *memWorkspaceStore) GetByOrganizationID(ctx context.Context, organizationID string) ([]*domain.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Workspace
	for _, ws := range m.workspaces {
		if ws.OrganizationID == organizationID && ws.Status != domain.StatusDeleted {
			cp := *ws
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memWorkspaceStore) SlugExistsInOrganization(ctx context.Context, organizationID string, s slug.Slug) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ws := range m.workspaces {
		if ws.OrganizationID == organizationID && ws.Slug == s && ws.Status != domain.StatusDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (m *memWorkspaceStore) Create(ctx context.Context, w *domain.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspaces[w.ID] = snapshotWorkspace(w)
	return nil
}

func (m *memWorkspaceStore) Update(ctx context.Context, w *domain.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workspaces[w.ID]; !ok {
		return errors.New("update of missing row")
	}
	m.workspaces[w.ID] = snapshotWorkspace(w)
	return nil
}

func (m *memWorkspaceStore) GetByWorkspaceAndUser(ctx context.Context, workspaceID, userID string) (*domain.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.members[workspaceID] {
		if row.UserID == userID {
			cp := row
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memWorkspaceStore) GetByUserID(ctx context.Context, userID string) ([]*domain.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Membership
	for _, rows := range m.members {
		for _, row := range rows {
			if row.UserID == userID {
				cp := row
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (m *memWorkspaceStore) GetByWorkspaceID(ctx context.Context, workspaceID string) ([]*domain.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Membership
	for _, row := range m.members[workspaceID] {
		cp := row
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memWorkspaceStore) CreateMembership(ctx context.Context, row *domain.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.members[row.WorkspaceID] {
		if existing.UserID == row.UserID {
			return domainerr.Conflict("membership", "user_id", "already exists")
		}
	}
	m.members[row.WorkspaceID] = append(m.members[row.WorkspaceID], *row)
	return nil
}

func (m *memWorkspaceStore) Delete(ctx context.Context, workspaceID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.members[workspaceID]
	for i, row := range rows {
		if row.UserID == userID {
			m.members[workspaceID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return errors.New("delete of missing membership")
}

func (m *memWorkspaceStore) UpdateRole(ctx context.Context, workspaceID, userID string, role domain.MemberRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.members[workspaceID]
	for i := range rows {
		if rows[i].UserID == userID {
			rows[i].Role = role
			return nil
		}
	}
	return errors.New("role update of missing membership")
}

func snapshotWorkspace(w *domain.Workspace) *domain.Workspace {
	cp := *w
	cp.Recorder = events.Recorder{}
	cp.Memberships = nil
	return &cp
}

// membershipStoreAdapter exposes the fake through the MembershipStore
// interface (Create collides with the workspace Create method).
type membershipStoreAdapter struct {
	*memWorkspaceStore
}

func (a membershipStoreAdapter) Create(ctx context.Context, m *domain.Membership) error {
	return a.CreateMembership(ctx, m)
}

// memOrgStore is a minimal organization store for the existence check.
type memOrgStore struct {
	mu   sync.Mutex
	orgs map[string]*orgdomain.Organization
}

func newMemOrgStore() *memOrgStore {
	return &memOrgStore{orgs: make(map[string]*orgdomain.Organization)}
}

func (m *memOrgStore) add(t *testing.T, id string) {
	t.Helper()
	org, err := orgdomain.New(id, "Org "+id, slug.Slug("org-"+id), nil, testNow)
	if err != nil {
		t.Fatalf("org fixture: %v", err)
	}
	org.DrainEvents()
	m.mu.Lock()
	m.orgs[id] = org
	m.mu.Unlock()
}

func (m *memOrgStore) GetByID(ctx context.Context, id string) (*orgdomain.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	if !ok {
		return nil, nil
	}
	cp := *org
	return &cp, nil
}

func (m *memOrgStore) GetBySlug(ctx context.Context, s slug.Slug) (*orgdomain.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, org := range m.orgs {
		if org.Slug == s && !org.IsDeleted() {
			cp := *org
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memOrgStore) SlugExists(ctx context.Context, s slug.Slug) (bool, error) {
	org, err := m.GetBySlug(ctx, s)
	return org != nil, err
}

func (m *memOrgStore) Create(ctx context.Context, o *orgdomain.Organization) error { return nil }
func (m *memOrgStore) Update(ctx context.Context, o *orgdomain.Organization) error { return nil }

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

func newTestService(t *testing.T) (*Service, *memWorkspaceStore, *capturePublisher) {
	t.Helper()
	store := newMemWorkspaceStore()
	orgs := newMemOrgStore()
	orgs.add(t, "org-1")
	pub := &capturePublisher{}
	svc := NewService(store, membershipStoreAdapter{store}, orgs, db.PassthroughRunner{}, pub)
	return svc, store, pub
}

func TestCreate(t *testing.T) {
	svc, _, pub := newTestService(t)

	ws, err := svc.Create(context.Background(), "org-1", "Engineering", "Eng")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ws.Slug.String() != "eng" {
		t.Errorf("slug = %q, want normalized %q", ws.Slug, "eng")
	}
	if got := pub.published(); len(got) != 1 || got[0] != "workspace.created" {
		t.Errorf("published = %v, want [workspace.created]", got)
	}
}

func TestCreateMissingOrganization(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), "org-missing", "Engineering", "eng")
	if !domainerr.IsKind(err, domainerr.KindNotFound) {
		t.Errorf("kind = %q, want not found", domainerr.KindOf(err))
	}
}

func TestCreateSlugScopedToOrganization(t *testing.T) {
	store := newMemWorkspaceStore()
	orgs := newMemOrgStore()
	orgs.add(t, "org-1")
	orgs.add(t, "org-2")
	svc := NewService(store, membershipStoreAdapter{store}, orgs, db.PassthroughRunner{}, &capturePublisher{})

	if _, err := svc.Create(context.Background(), "org-1", "Engineering", "eng"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), "org-1", "Engineering Two", "eng"); !domainerr.IsKind(err, domainerr.KindConflict) {
		t.Errorf("same org duplicate: kind = %q, want conflict", domainerr.KindOf(err))
	}
	// The same slug is free in another organization.
	if _, err := svc.Create(context.Background(), "org-2", "Engineering", "eng"); err != nil {
		t.Errorf("cross-org reuse: %v", err)
	}
}

func TestAddMemberPersistsRow(t *testing.T) {
	svc, store, pub := newTestService(t)
	ws, err := svc.Create(context.Background(), "org-1", "Engineering", "eng")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	m, err := svc.AddMember(context.Background(), ws.ID, "u1", domain.RoleOwner, "")
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if m.Role != domain.RoleOwner {
		t.Errorf("role = %q, want owner", m.Role)
	}

	row, err := store.GetByWorkspaceAndUser(context.Background(), ws.ID, "u1")
	if err != nil || row == nil {
		t.Fatalf("membership row not persisted: %v", err)
	}

	// Duplicate add conflicts before touching the store.
	if _, err := svc.AddMember(context.Background(), ws.ID, "u1", domain.RoleMember, ""); !errors.Is(err, domain.ErrDuplicateMember) {
		t.Errorf("duplicate add: err = %v, want ErrDuplicateMember", err)
	}

	want := []string{"workspace.created", "workspace.member_added"}
	got := pub.published()
	if len(got) != len(want) || got[1] != want[1] {
		t.Errorf("published = %v, want %v", got, want)
	}
}

func TestChangeMemberRoleNoOpPersistsNothing(t *testing.T) {
	svc, store, pub := newTestService(t)
	ws, err := svc.Create(context.Background(), "org-1", "Engineering", "eng")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.AddMember(context.Background(), ws.ID, "u1", domain.RoleViewer, ""); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	before := len(pub.published())

	if err := svc.ChangeMemberRole(context.Background(), ws.ID, "u1", domain.RoleViewer); err != nil {
		t.Fatalf("same-role change: %v", err)
	}
	if got := pub.published(); len(got) != before {
		t.Errorf("same-role change published %v", got[before:])
	}

	if err := svc.ChangeMemberRole(context.Background(), ws.ID, "u1", domain.RoleAdmin); err != nil {
		t.Fatalf("ChangeMemberRole: %v", err)
	}
	row, err := store.GetByWorkspaceAndUser(context.Background(), ws.ID, "u1")
	if err != nil || row == nil {
		t.Fatalf("membership row missing: %v", err)
	}
	if row.Role != domain.RoleAdmin {
		t.Errorf("persisted role = %q, want admin", row.Role)
	}
}

func TestRemoveMember(t *testing.T) {
	svc, store, _ := newTestService(t)
	ws, err := svc.Create(context.Background(), "org-1", "Engineering", "eng")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.AddMember(context.Background(), ws.ID, "u1", domain.RoleMember, ""); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	if err := svc.RemoveMember(context.Background(), ws.ID, "u1"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	row, err := store.GetByWorkspaceAndUser(context.Background(), ws.ID, "u1")
	if err != nil {
		t.Fatalf("GetByWorkspaceAndUser: %v", err)
	}
	if row != nil {
		t.Error("membership row should be gone")
	}

	if err := svc.RemoveMember(context.Background(), ws.ID, "u1"); !errors.Is(err, domain.ErrNotAMember) {
		t.Errorf("second remove: err = %v, want ErrNotAMember", err)
	}
}

func TestListByOrganization(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Create(context.Background(), "org-1", "Engineering", "eng"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	ws2, err := svc.Create(context.Background(), "org-1", "Design", "design")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(context.Background(), ws2.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	list, err := svc.ListByOrganization(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("ListByOrganization: %v", err)
	}
	if len(list) != 1 || list[0].Slug.String() != "eng" {
		t.Errorf("list = %d workspaces, want only eng", len(list))
	}
}
