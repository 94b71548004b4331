package repository

import (
	"context"

	"tenant-control-plane/backend/internal/organization/domain"
	"tenant-control-plane/backend/internal/slug"
)

// Store defines persistence for organizations. Reads return (nil, nil) when
// the row is absent; errors are reserved for infrastructure failures.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	// GetBySlug resolves a non-deleted organization by slug.
	GetBySlug(ctx context.Context, s slug.Slug) (*domain.Organization, error)
	// SlugExists reports whether a non-deleted organization holds s. This is
	// the friendly pre-check; the partial unique index is the guarantee.
	SlugExists(ctx context.Context, s slug.Slug) (bool, error)
	Create(ctx context.Context, o *domain.Organization) error
	Update(ctx context.Context, o *domain.Organization) error
}
