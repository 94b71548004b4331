package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"tenant-control-plane/backend/internal/db"
	"tenant-control-plane/backend/internal/organization/domain"
	"tenant-control-plane/backend/internal/slug"
)

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns an organization store that uses conn for persistence.
func NewPostgresStore(conn *sql.DB) *PostgresStore {
	return &PostgresStore{db: conn}
}

const orgColumns = "id, name, slug, status, settings, created_at, updated_at, deleted_at"

// GetByID returns the organization for id, or nil if not found. Deleted
// organizations remain queryable by id.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	row := db.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		"SELECT "+orgColumns+" FROM organizations WHERE id = $1", id)
	return scanOrganization(row)
}

// GetBySlug returns the non-deleted organization holding sl, or nil. Deleted
// rows are excluded so their slug can be reused.
func (s *PostgresStore) GetBySlug(ctx context.Context, sl slug.Slug) (*domain.Organization, error) {
	row := db.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		"SELECT "+orgColumns+" FROM organizations WHERE slug = $1 AND status <> $2",
		sl.String(), string(domain.StatusDeleted))
	return scanOrganization(row)
}

// SlugExists reports whether a non-deleted organization holds sl.
func (s *PostgresStore) SlugExists(ctx context.Context, sl slug.Slug) (bool, error) {
	var exists bool
	err := db.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM organizations WHERE slug = $1 AND status <> $2)",
		sl.String(), string(domain.StatusDeleted)).Scan(&exists)
	return exists, err
}

// Create persists the organization. A concurrent slug race surfaces as a
// ConflictError from the partial unique index.
func (s *PostgresStore) Create(ctx context.Context, o *domain.Organization) error {
	settings, err := json.Marshal(settingsOrEmpty(o.Settings))
	if err != nil {
		return err
	}
	_, err = db.QuerierFrom(ctx, s.db).ExecContext(ctx,
		`INSERT INTO organizations (id, name, slug, status, settings, created_at, updated_at, deleted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.Name, o.Slug.String(), string(o.Status), settings, o.CreatedAt, o.UpdatedAt, o.DeletedAt)
	return db.MapUnique(err, "organization", "slug")
}

// Update persists the current state of the organization.
func (s *PostgresStore) Update(ctx context.Context, o *domain.Organization) error {
	settings, err := json.Marshal(settingsOrEmpty(o.Settings))
	if err != nil {
		return err
	}
	_, err = db.QuerierFrom(ctx, s.db).ExecContext(ctx,
		`UPDATE organizations
		 SET name = $2, status = $3, settings = $4, updated_at = $5, deleted_at = $6
		 WHERE id = $1`,
		o.ID, o.Name, string(o.Status), settings, o.UpdatedAt, o.DeletedAt)
	return db.MapUnique(err, "organization", "slug")
}

func settingsOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func scanOrganization(row *sql.Row) (*domain.Organization, error) {
	var (
		o         domain.Organization
		slugText  string
		status    string
		settings  []byte
		deletedAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.Name, &slugText, &status, &settings, &o.CreatedAt, &o.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	o.Slug = slug.Slug(slugText)
	o.Status = domain.Status(status)
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &o.Settings); err != nil {
			return nil, err
		}
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		o.DeletedAt = &t
	}
	return &o, nil
}
