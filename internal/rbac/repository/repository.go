package repository

import (
	"context"

	"tenant-control-plane/backend/internal/rbac/domain"
)

// RoleStore persists roles together with their permissions. Lookups return
// (nil, nil) when no row matches.
type RoleStore interface {
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetByScope(ctx context.Context, scope domain.Scope) ([]*domain.Role, error)
	NameExistsInScope(ctx context.Context, name string, scope domain.Scope) (bool, error)
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id string) error
}

// RoleAssignmentStore persists role assignments. GetByUserAndScope resolves
// each assignment's role with permissions loaded; assignments whose role no
// longer exists are skipped.
type RoleAssignmentStore interface {
	GetByID(ctx context.Context, id string) (*domain.RoleAssignment, error)
	Exists(ctx context.Context, roleID, userID string, scope domain.Scope) (bool, error)
	GetByUserAndScope(ctx context.Context, userID string, scope domain.Scope) ([]domain.ResolvedAssignment, error)
	Create(ctx context.Context, a *domain.RoleAssignment) error
	Delete(ctx context.Context, id string) error
}
