package repository

import (
	"context"
	"database/sql"
	"errors"

	"tenant-control-plane/backend/internal/db"
	"tenant-control-plane/backend/internal/slug"
	"tenant-control-plane/backend/internal/workspace/domain"
)

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a workspace store that uses conn for persistence.
func NewPostgresStore(conn *sql.DB) *PostgresStore {
	return &PostgresStore{db: conn}
}

const workspaceColumns = "id, organization_id, name, slug, status, created_at, updated_at, deleted_at"

// GetByID returns the workspace for id without memberships, or nil.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	row := db.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		"SELECT "+workspaceColumns+" FROM workspaces WHERE id = $1", id)
	return scanWorkspace(row)
}

// GetByIDWithMemberships returns the workspace for id with its membership
// set loaded, or nil.
func (s *PostgresStore) GetByIDWithMemberships(ctx context.Context, id string) (*domain.Workspace, error) {
	w, err := s.GetByID(ctx, id)
	if err != nil || w == nil {
		return w, err
	}
	rows, err := db.QuerierFrom(ctx, s.db).QueryContext(ctx,
		`SELECT id, workspace_id, user_id, role, joined_at, invited_by
		 FROM memberships WHERE workspace_id = $1 ORDER BY joined_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		w.Memberships = append(w.Memberships, *m)
	}
	return w, rows.Err()
}

// GetByOrganizationID lists the organization's non-deleted workspaces.
func (s *PostgresStore) GetByOrganizationID(ctx context.Context, organizationID string) ([]*domain.Workspace, error) {
	rows, err := db.QuerierFrom(ctx, s.db).QueryContext(ctx,
		"SELECT "+workspaceColumns+" FROM workspaces WHERE organization_id = $1 AND status <> $2 ORDER BY created_at",
		organizationID, string(domain.StatusDeleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Workspace
	for rows.Next() {
		w, err := scanWorkspaceRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SlugExistsInOrganization reports whether a non-deleted workspace of the
// organization holds sl.
func (s *PostgresStore) SlugExistsInOrganization(ctx context.Context, organizationID string, sl slug.Slug) (bool, error) {
	var exists bool
	err := db.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM workspaces
			WHERE organization_id = $1 AND slug = $2 AND status <> $3
		)`,
		organizationID, sl.String(), string(domain.StatusDeleted)).Scan(&exists)
	return exists, err
}

// Create persists the workspace row. Memberships are persisted through the
// MembershipStore.
func (s *PostgresStore) Create(ctx context.Context, w *domain.Workspace) error {
	_, err := db.QuerierFrom(ctx, s.db).ExecContext(ctx,
		`INSERT INTO workspaces (id, organization_id, name, slug, status, created_at, updated_at, deleted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.ID, w.OrganizationID, w.Name, w.Slug.String(), string(w.Status), w.CreatedAt, w.UpdatedAt, w.DeletedAt)
	return db.MapUnique(err, "workspace", "slug")
}

// Update persists the current state of the workspace row.
func (s *PostgresStore) Update(ctx context.Context, w *domain.Workspace) error {
	_, err := db.QuerierFrom(ctx, s.db).ExecContext(ctx,
		`UPDATE workspaces
		 SET name = $2, status = $3, updated_at = $4, deleted_at = $5
		 WHERE id = $1`,
		w.ID, w.Name, string(w.Status), w.UpdatedAt, w.DeletedAt)
	return db.MapUnique(err, "workspace", "slug")
}

func scanWorkspace(row *sql.Row) (*domain.Workspace, error) {
	var (
		w         domain.Workspace
		slugText  string
		status    string
		deletedAt sql.NullTime
	)
	err := row.Scan(&w.ID, &w.OrganizationID, &w.Name, &slugText, &status, &w.CreatedAt, &w.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	w.Slug = slug.Slug(slugText)
	w.Status = domain.Status(status)
	if deletedAt.Valid {
		t := deletedAt.Time
		w.DeletedAt = &t
	}
	return &w, nil
}

func scanWorkspaceRows(rows *sql.Rows) (*domain.Workspace, error) {
	var (
		w         domain.Workspace
		slugText  string
		status    string
		deletedAt sql.NullTime
	)
	err := rows.Scan(&w.ID, &w.OrganizationID, &w.Name, &slugText, &status, &w.CreatedAt, &w.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	w.Slug = slug.Slug(slugText)
	w.Status = domain.Status(status)
	if deletedAt.Valid {
		t := deletedAt.Time
		w.DeletedAt = &t
	}
	return &w, nil
}
