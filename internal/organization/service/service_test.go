package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tenant-control-plane/backend/internal/organization/domain"
	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
	"tenant-control-plane/backend/internal/slug"
)

// memOrgStore is an in-memory Store for tests.
type memOrgStore struct {
	mu   sync.Mutex
	orgs map[string]*domain.Organization
}

func newMemOrgStore() *memOrgStore {
	return &memOrgStore{orgs: make(map[string]*domain.Organization)}
}

func (m *memOrgStore) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	if !ok {
		return nil, nil
	}
	cp := *org
	return &cp, nil
}

func (m *memOrgStore) GetBySlug(ctx context.Context, s slug.Slug) (*domain.Organization, error) {
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

func (m *memOrgStore) Create(ctx context.Context, o *domain.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgs[o.ID] = snapshotOrg(o)
	return nil
}

func (m *memOrgStore) Update(ctx context.Context, o *domain.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[o.ID]; !ok {
		return errors.New("update of missing row")
	}
	m.orgs[o.ID] = snapshotOrg(o)
	return nil
}

// snapshotOrg copies the row state without the pending event recorder, the
// way a real store would.
func snapshotOrg(o *domain.Organization) *domain.Organization {
	cp := *o
	cp.Recorder = events.Recorder{}
	return &cp
}

// capturePublisher records published event names in order.
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

func TestCreate(t *testing.T) {
	store := newMemOrgStore()
	pub := &capturePublisher{}
	svc := NewService(store, pub)

	org, err := svc.Create(context.Background(), "Acme", "Acme", map[string]string{"tier": "free"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if org.Slug.String() != "acme" {
		t.Errorf("slug = %q, want normalized %q", org.Slug, "acme")
	}
	if org.Status != domain.StatusActive {
		t.Errorf("status = %q, want active", org.Status)
	}
	if got := pub.published(); len(got) != 1 || got[0] != "organization.created" {
		t.Errorf("published = %v, want [organization.created]", got)
	}
}

func TestCreateSlugConflict(t *testing.T) {
	store := newMemOrgStore()
	svc := NewService(store, nil)

	if _, err := svc.Create(context.Background(), "Acme", "acme", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Case differs but the normalized slug collides.
	_, err := svc.Create(context.Background(), "Other", "Acme", nil)
	if !domainerr.IsKind(err, domainerr.KindConflict) {
		t.Fatalf("duplicate slug: kind = %q, want conflict", domainerr.KindOf(err))
	}
}

func TestCreateInvalidSlug(t *testing.T) {
	svc := NewService(newMemOrgStore(), nil)
	if _, err := svc.Create(context.Background(), "Acme", "-bad-", nil); !domainerr.IsKind(err, domainerr.KindValidation) {
		t.Errorf("invalid slug: kind = %q, want validation", domainerr.KindOf(err))
	}
}

func TestGetNotFound(t *testing.T) {
	svc := NewService(newMemOrgStore(), nil)
	_, err := svc.Get(context.Background(), "missing")
	if !domainerr.IsKind(err, domainerr.KindNotFound) {
		t.Errorf("kind = %q, want not found", domainerr.KindOf(err))
	}
}

func TestDeleteFreesSlugForReads(t *testing.T) {
	store := newMemOrgStore()
	svc := NewService(store, nil)

	org, err := svc.Create(context.Background(), "Acme", "acme", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(context.Background(), org.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Deleted orgs stay readable by id but vanish from slug lookups.
	got, err := svc.Get(context.Background(), org.ID)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if !got.IsDeleted() {
		t.Error("Get after delete should return the deleted organization")
	}
	if _, err := svc.GetBySlug(context.Background(), "acme"); !domainerr.IsKind(err, domainerr.KindNotFound) {
		t.Errorf("GetBySlug after delete: kind = %q, want not found", domainerr.KindOf(err))
	}

	// And the slug may be reused.
	if _, err := svc.Create(context.Background(), "Acme Again", "acme", nil); err != nil {
		t.Errorf("Create with freed slug: %v", err)
	}
}

func TestDeleteTwice(t *testing.T) {
	store := newMemOrgStore()
	svc := NewService(store, nil)

	org, err := svc.Create(context.Background(), "Acme", "acme", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(context.Background(), org.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), org.ID); !errors.Is(err, domain.ErrAlreadyDeleted) {
		t.Errorf("second delete: err = %v, want ErrAlreadyDeleted", err)
	}
}

func TestSuspendActivatePublishUpdated(t *testing.T) {
	store := newMemOrgStore()
	pub := &capturePublisher{}
	svc := NewService(store, pub)

	org, err := svc.Create(context.Background(), "Acme", "acme", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Suspend(context.Background(), org.ID); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if _, err := svc.Activate(context.Background(), org.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	want := []string{"organization.created", "organization.updated", "organization.updated"}
	got := pub.published()
	if len(got) != len(want) {
		t.Fatalf("published = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("published[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
