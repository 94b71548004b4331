package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tenant-control-plane/backend/internal/db"
	"tenant-control-plane/backend/internal/invitation/domain"
	"tenant-control-plane/backend/internal/invitation/repository"
	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
	workspacedomain "tenant-control-plane/backend/internal/workspace/domain"
	workspacerepo "tenant-control-plane/backend/internal/workspace/repository"
)

// Service coordinates invitations with the workspace they target. Accept is
// the one cross-aggregate write in the system: the membership insert and the
// invitation state change commit in a single transaction so a concurrent
// accept of the same token can never leave a member without a consumed
// invitation, or the reverse.
type Service struct {
	invitations repository.Store
	workspaces  workspacerepo.Store
	memberships workspacerepo.MembershipStore
	tx          db.TxRunner
	publisher   events.Publisher
	ttl         time.Duration
}

// NewService returns an invitation service. ttl zero means the domain
// default expiry.
func NewService(
	invitations repository.Store,
	workspaces workspacerepo.Store,
	memberships workspacerepo.MembershipStore,
	tx db.TxRunner,
	publisher events.Publisher,
	ttl time.Duration,
) *Service {
	return &Service{
		invitations: invitations,
		workspaces:  workspaces,
		memberships: memberships,
		tx:          tx,
		publisher:   publisher,
		ttl:         ttl,
	}
}

// Create issues a pending invitation into an existing active workspace.
func (s *Service) Create(ctx context.Context, workspaceID, email string, role workspacedomain.MemberRole, invitedBy string) (*domain.Invitation, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil || ws.IsDeleted() {
		return nil, domainerr.NotFound("workspace", workspaceID)
	}
	if ws.Status != workspacedomain.StatusActive {
		return nil, &domainerr.Error{
			Kind:   domainerr.KindInvalidTransition,
			Entity: "workspace",
			Field:  "status",
			Value:  string(ws.Status),
			Msg:    "workspace must be active to invite members",
		}
	}
	inv, err := domain.New(uuid.New().String(), workspaceID, email, role, invitedBy, s.ttl, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, err
	}
	events.BestEffort(ctx, s.publisher, inv.DrainEvents())
	return inv, nil
}

// Accept redeems the token for userID. On success the accepting user is a
// member of the workspace with the invited role and the invitation is
// consumed, atomically. A pending invitation past its expiry is persisted as
// expired here and the call fails with domain.ErrExpired.
func (s *Service) Accept(ctx context.Context, token, userID string) (*workspacedomain.Membership, error) {
	if userID == "" {
		return nil, domainerr.Validation("invitation", "user_id", "must not be empty")
	}
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domainerr.NotFound("invitation", token)
	}

	now := time.Now().UTC()
	if err := inv.Accept(now); err != nil {
		if errors.Is(err, domain.ErrExpired) {
			// Lazy expiry: the failed accept is also the moment the
			// stored status flips to expired.
			if uerr := s.invitations.Update(ctx, inv); uerr != nil {
				return nil, uerr
			}
		}
		return nil, err
	}

	ws, err := s.workspaces.GetByIDWithMemberships(ctx, inv.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, domainerr.NotFound("workspace", inv.WorkspaceID)
	}
	m, err := ws.AddMember(userID, inv.Role, inv.InvitedBy, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.memberships.Create(ctx, m); err != nil {
			return err
		}
		return s.invitations.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	events.BestEffort(ctx, s.publisher, inv.DrainEvents())
	events.BestEffort(ctx, s.publisher, ws.DrainEvents())
	return m, nil
}

// Revoke cancels a pending invitation.
func (s *Service) Revoke(ctx context.Context, id string) (*domain.Invitation, error) {
	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domainerr.NotFound("invitation", id)
	}
	if err := inv.Revoke(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.invitations.Update(ctx, inv); err != nil {
		return nil, err
	}
	events.BestEffort(ctx, s.publisher, inv.DrainEvents())
	return inv, nil
}

// ListByWorkspace returns the workspace's invitations, oldest first.
func (s *Service) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Invitation, error) {
	return s.invitations.GetByWorkspaceID(ctx, workspaceID)
}
