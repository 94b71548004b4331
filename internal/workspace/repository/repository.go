package repository

import (
	"context"

	"tenant-control-plane/backend/internal/slug"
	"tenant-control-plane/backend/internal/workspace/domain"
)

// Store defines persistence for workspace rows. Reads return (nil, nil) when
// the row is absent.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Workspace, error)
	// GetByIDWithMemberships loads the workspace with its membership set, the
	// shape the aggregate operations need.
	GetByIDWithMemberships(ctx context.Context, id string) (*domain.Workspace, error)
	// GetByOrganizationID lists non-deleted workspaces of an organization.
	GetByOrganizationID(ctx context.Context, organizationID string) ([]*domain.Workspace, error)
	// SlugExistsInOrganization reports whether a non-deleted workspace of the
	// organization holds s.
	SlugExistsInOrganization(ctx context.Context, organizationID string, s slug.Slug) (bool, error)
	Create(ctx context.Context, w *domain.Workspace) error
	Update(ctx context.Context, w *domain.Workspace) error
}

// MembershipStore defines persistence for membership rows. The write
// operations mirror the aggregate's member mutations; the unique
// (workspace_id, user_id) constraint makes a concurrent duplicate add a
// ConflictError.
type MembershipStore interface {
	GetByWorkspaceAndUser(ctx context.Context, workspaceID, userID string) (*domain.Membership, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.Membership, error)
	GetByWorkspaceID(ctx context.Context, workspaceID string) ([]*domain.Membership, error)
	Create(ctx context.Context, m *domain.Membership) error
	Delete(ctx context.Context, workspaceID, userID string) error
	UpdateRole(ctx context.Context, workspaceID, userID string, role domain.MemberRole) error
}
