package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tenant-control-plane/backend/internal/organization/domain"
	"tenant-control-plane/backend/internal/organization/repository"
	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
	"tenant-control-plane/backend/internal/slug"
)

// Service is the organization command handler: it loads the aggregate,
// invokes the operation, persists, and publishes the drained events.
type Service struct {
	orgs      repository.Store
	publisher events.Publisher
}

// NewService returns an organization service. publisher may be nil to skip
// event delivery.
func NewService(orgs repository.Store, publisher events.Publisher) *Service {
	return &Service{orgs: orgs, publisher: publisher}
}

// Create makes a new active organization. The slug pre-check gives a
// friendly conflict; the storage constraint catches the race.
func (s *Service) Create(ctx context.Context, name, slugText string, settings map[string]string) (*domain.Organization, error) {
	sl, err := slug.Parse(slugText)
	if err != nil {
		return nil, err
	}
	taken, err := s.orgs.SlugExists(ctx, sl)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &domainerr.Error{
			Kind:   domainerr.KindConflict,
			Entity: "organization",
			Field:  "slug",
			Value:  sl.String(),
			Msg:    "slug is already in use",
		}
	}
	org, err := domain.New(uuid.New().String(), name, sl, settings, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}
	events.BestEffort(ctx, s.publisher, org.DrainEvents())
	return org, nil
}

// Get returns the organization for id, including deleted ones.
func (s *Service) Get(ctx context.Context, id string) (*domain.Organization, error) {
	return s.load(ctx, id)
}

// GetBySlug returns the non-deleted organization holding the slug.
func (s *Service) GetBySlug(ctx context.Context, slugText string) (*domain.Organization, error) {
	sl, err := slug.Parse(slugText)
	if err != nil {
		return nil, err
	}
	org, err := s.orgs.GetBySlug(ctx, sl)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domainerr.NotFound("organization", sl.String())
	}
	return org, nil
}

// Update renames the organization and optionally replaces its settings.
func (s *Service) Update(ctx context.Context, id, name string, settings map[string]string) (*domain.Organization, error) {
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := org.Update(name, settings, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.save(ctx, org)
}

// Suspend moves the organization to suspended.
func (s *Service) Suspend(ctx context.Context, id string) (*domain.Organization, error) {
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := org.Suspend(time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.save(ctx, org)
}

// Activate moves the organization back to active.
func (s *Service) Activate(ctx context.Context, id string) (*domain.Organization, error) {
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := org.Activate(time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.save(ctx, org)
}

// Delete logically deletes the organization. A second delete fails with
// domain.ErrAlreadyDeleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	org, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := org.Delete(time.Now().UTC()); err != nil {
		return err
	}
	_, err = s.save(ctx, org)
	return err
}

func (s *Service) load(ctx context.Context, id string) (*domain.Organization, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domainerr.NotFound("organization", id)
	}
	return org, nil
}

func (s *Service) save(ctx context.Context, org *domain.Organization) (*domain.Organization, error) {
	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}
	events.BestEffort(ctx, s.publisher, org.DrainEvents())
	return org, nil
}
