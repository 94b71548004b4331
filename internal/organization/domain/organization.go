package domain

import (
	"errors"
	"time"

	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
	"tenant-control-plane/backend/internal/slug"
)

// Organization is the tenant root aggregate. Workspaces reference it by id;
// deletion is logical and the row stays queryable by id.
type Organization struct {
	events.Recorder

	ID        string
	Name      string
	Slug      slug.Slug
	Status    Status
	Settings  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Status is the organization lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

// ErrAlreadyDeleted marks a mutation attempted on a deleted organization.
var ErrAlreadyDeleted = errors.New("organization already deleted")

// New creates an active organization. Slug uniqueness is not checked here;
// the caller pre-checks for a friendly error and the storage constraint is
// the real guarantee.
func New(id, name string, s slug.Slug, settings map[string]string, now time.Time) (*Organization, error) {
	if name == "" {
		return nil, domainerr.Validation("organization", "name", "must not be empty")
	}
	if s == "" {
		return nil, domainerr.Validation("organization", "slug", "must not be empty")
	}
	org := &Organization{
		ID:        id,
		Name:      name,
		Slug:      s,
		Status:    StatusActive,
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
	}
	org.Record(Created{OrganizationID: id, Name: name, Slug: s.String(), At: now})
	return org, nil
}

// Update renames the organization and, when settings is non-nil, fully
// replaces the settings map. Partial merges are a caller concern.
func (o *Organization) Update(name string, settings map[string]string, now time.Time) error {
	if err := o.ensureNotDeleted(); err != nil {
		return err
	}
	if name == "" {
		return domainerr.Validation("organization", "name", "must not be empty")
	}
	o.Name = name
	if settings != nil {
		o.Settings = settings
	}
	o.UpdatedAt = now
	o.Record(Updated{OrganizationID: o.ID, Name: name, At: now})
	return nil
}

// Suspend moves the organization to suspended. Fails once deleted.
func (o *Organization) Suspend(now time.Time) error {
	if err := o.ensureNotDeleted(); err != nil {
		return err
	}
	o.Status = StatusSuspended
	o.UpdatedAt = now
	o.Record(Updated{OrganizationID: o.ID, Name: o.Name, At: now})
	return nil
}

// Activate moves the organization back to active. Fails once deleted.
func (o *Organization) Activate(now time.Time) error {
	if err := o.ensureNotDeleted(); err != nil {
		return err
	}
	o.Status = StatusActive
	o.UpdatedAt = now
	o.Record(Updated{OrganizationID: o.ID, Name: o.Name, At: now})
	return nil
}

// Delete marks the organization deleted. A second call fails with
// ErrAlreadyDeleted rather than silently succeeding.
func (o *Organization) Delete(now time.Time) error {
	if err := o.ensureNotDeleted(); err != nil {
		return err
	}
	o.Status = StatusDeleted
	at := now
	o.DeletedAt = &at
	o.UpdatedAt = now
	o.Record(Deleted{OrganizationID: o.ID, At: now})
	return nil
}

// IsDeleted reports whether the organization was logically deleted.
func (o *Organization) IsDeleted() bool { return o.Status == StatusDeleted }

func (o *Organization) ensureNotDeleted() error {
	if o.Status == StatusDeleted {
		return &domainerr.Error{
			Kind:     domainerr.KindInvalidTransition,
			Entity:   "organization",
			Field:    "status",
			Value:    string(StatusDeleted),
			Msg:      "organization is deleted",
			Sentinel: ErrAlreadyDeleted,
		}
	}
	return nil
}
