package repository

import (
	"context"

	"tenant-control-plane/backend/internal/invitation/domain"
)

// Store persists invitations. Lookups return (nil, nil) when no row
// matches.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Invitation, error)
	GetByToken(ctx context.Context, token string) (*domain.Invitation, error)
	GetByWorkspaceID(ctx context.Context, workspaceID string) ([]*domain.Invitation, error)
	Create(ctx context.Context, inv *domain.Invitation) error
	Update(ctx context.Context, inv *domain.Invitation) error
}
