package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tenant-control-plane/backend/internal/db"
	orgrepo "tenant-control-plane/backend/internal/organization/repository"
	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
	"tenant-control-plane/backend/internal/slug"
	"tenant-control-plane/backend/internal/workspace/domain"
	"tenant-control-plane/backend/internal/workspace/repository"
)

// Service is the workspace command handler. Member mutations run the
// aggregate operation in memory, then persist the row diff inside one
// transaction before publishing the drained events.
type Service struct {
	workspaces  repository.Store
	memberships repository.MembershipStore
	orgs        orgrepo.Store
	tx          db.TxRunner
	publisher   events.Publisher
}

// NewService returns a workspace service.
func NewService(
	workspaces repository.Store,
	memberships repository.MembershipStore,
	orgs orgrepo.Store,
	tx db.TxRunner,
	publisher events.Publisher,
) *Service {
	return &Service{
		workspaces:  workspaces,
		memberships: memberships,
		orgs:        orgs,
		tx:          tx,
		publisher:   publisher,
	}
}

// Create makes a new active workspace under an existing organization. Slug
// uniqueness is scoped to the organization; the pre-check gives a friendly
// conflict and the partial unique index catches the race.
func (s *Service) Create(ctx context.Context, organizationID, name, slugText string) (*domain.Workspace, error) {
	sl, err := slug.Parse(slugText)
	if err != nil {
		return nil, err
	}
	org, err := s.orgs.GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if org == nil || org.IsDeleted() {
		return nil, domainerr.NotFound("organization", organizationID)
	}
	taken, err := s.workspaces.SlugExistsInOrganization(ctx, organizationID, sl)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &domainerr.Error{
			Kind:   domainerr.KindConflict,
			Entity: "workspace",
			Field:  "slug",
			Value:  sl.String(),
			Msg:    "slug is already in use within this organization",
		}
	}
	ws, err := domain.New(uuid.New().String(), organizationID, name, sl, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.workspaces.Create(ctx, ws); err != nil {
		return nil, err
	}
	events.BestEffort(ctx, s.publisher, ws.DrainEvents())
	return ws, nil
}

// Get returns the workspace for id with memberships loaded.
func (s *Service) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	return s.load(ctx, id)
}

// ListByOrganization lists the organization's non-deleted workspaces.
func (s *Service) ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Workspace, error) {
	return s.workspaces.GetByOrganizationID(ctx, organizationID)
}

// Update renames the workspace.
func (s *Service) Update(ctx context.Context, id, name string) (*domain.Workspace, error) {
	ws, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ws.Update(name, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.save(ctx, ws)
}

// Suspend moves the workspace to suspended.
func (s *Service) Suspend(ctx context.Context, id string) (*domain.Workspace, error) {
	ws, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ws.Suspend(time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.save(ctx, ws)
}

// Activate moves the workspace back to active.
func (s *Service) Activate(ctx context.Context, id string) (*domain.Workspace, error) {
	ws, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ws.Activate(time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.save(ctx, ws)
}

// Delete logically deletes the workspace. Memberships and invitations are
// left in place; cleanup policy is undecided.
func (s *Service) Delete(ctx context.Context, id string) error {
	ws, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := ws.Delete(time.Now().UTC()); err != nil {
		return err
	}
	_, err = s.save(ctx, ws)
	return err
}

// AddMember adds userID with role. invitedBy may be empty for direct adds.
func (s *Service) AddMember(ctx context.Context, workspaceID, userID string, role domain.MemberRole, invitedBy string) (*domain.Membership, error) {
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	m, err := ws.AddMember(userID, role, invitedBy, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.memberships.Create(ctx, m); err != nil {
			return err
		}
		return s.workspaces.Update(ctx, ws)
	})
	if err != nil {
		return nil, err
	}
	events.BestEffort(ctx, s.publisher, ws.DrainEvents())
	return m, nil
}

// RemoveMember removes userID's membership. No last-owner guard; that
// policy is undecided.
func (s *Service) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return err
	}
	if err := ws.RemoveMember(userID, time.Now().UTC()); err != nil {
		return err
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.memberships.Delete(ctx, workspaceID, userID); err != nil {
			return err
		}
		return s.workspaces.Update(ctx, ws)
	})
	if err != nil {
		return err
	}
	events.BestEffort(ctx, s.publisher, ws.DrainEvents())
	return nil
}

// ChangeMemberRole sets userID's role. A no-op change persists nothing and
// publishes nothing.
func (s *Service) ChangeMemberRole(ctx context.Context, workspaceID, userID string, role domain.MemberRole) error {
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return err
	}
	if err := ws.ChangeMemberRole(userID, role, time.Now().UTC()); err != nil {
		return err
	}
	evs := ws.DrainEvents()
	if len(evs) == 0 {
		return nil
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.memberships.UpdateRole(ctx, workspaceID, userID, role); err != nil {
			return err
		}
		return s.workspaces.Update(ctx, ws)
	})
	if err != nil {
		return err
	}
	events.BestEffort(ctx, s.publisher, evs)
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Workspace, error) {
	ws, err := s.workspaces.GetByIDWithMemberships(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, domainerr.NotFound("workspace", id)
	}
	return ws, nil
}

func (s *Service) save(ctx context.Context, ws *domain.Workspace) (*domain.Workspace, error) {
	if err := s.workspaces.Update(ctx, ws); err != nil {
		return nil, err
	}
	events.BestEffort(ctx, s.publisher, ws.DrainEvents())
	return ws, nil
}
