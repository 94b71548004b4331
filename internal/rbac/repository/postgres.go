package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tenant-control-plane/backend/internal/db"
	"tenant-control-plane/backend/internal/rbac/domain"
)

const roleColumns = "id, name, description, scope_id, scope_type, is_system, created_at, updated_at"

// PostgresRoleStore is the Postgres-backed role store. Permissions are
// loaded with the role; writes reconcile the role_permissions rows against
// the aggregate's current permission set.
type PostgresRoleStore struct {
	db db.Querier
}

// NewPostgresRoleStore creates a PostgresRoleStore.
func NewPostgresRoleStore(q db.Querier) *PostgresRoleStore {
	return &PostgresRoleStore{db: q}
}

func (s *PostgresRoleStore) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	q := db.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE id = $1", id)
	role, err := scanRole(row)
	if err != nil || role == nil {
		return role, err
	}
	if err := s.loadPermissions(ctx, q, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *PostgresRoleStore) GetByScope(ctx context.Context, scope domain.Scope) ([]*domain.Role, error) {
	q := db.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE scope_id = $1 AND scope_type = $2 ORDER BY name",
		scope.ID(), string(scope.Type()))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var out []*domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, role := range out {
		if err := s.loadPermissions(ctx, q, role); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresRoleStore) NameExistsInScope(ctx context.Context, name string, scope domain.Scope) (bool, error) {
	q := db.QuerierFrom(ctx, s.db)
	var exists bool
	err := q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1 AND scope_id = $2 AND scope_type = $3)",
		name, scope.ID(), string(scope.Type())).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role name: %w", err)
	}
	return exists, nil
}

func (s *PostgresRoleStore) Create(ctx context.Context, role *domain.Role) error {
	q := db.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO roles (id, name, description, scope_id, scope_type, is_system, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		role.ID, role.Name, role.Description, role.Scope.ID(), string(role.Scope.Type()),
		role.IsSystem, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		return db.MapUnique(err, "role", "name")
	}
	return s.insertPermissions(ctx, q, role)
}

// Update persists the role row and reconciles permissions by replacing the
// role_permissions rows. Callers run this inside a transaction when the
// permission set changed.
func (s *PostgresRoleStore) Update(ctx context.Context, role *domain.Role) error {
	q := db.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx,
		"UPDATE roles SET name = $2, description = $3, updated_at = $4 WHERE id = $1",
		role.ID, role.Name, role.Description, role.UpdatedAt)
	if err != nil {
		return db.MapUnique(err, "role", "name")
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM role_permissions WHERE role_id = $1", role.ID); err != nil {
		return fmt.Errorf("clear role permissions: %w", err)
	}
	return s.insertPermissions(ctx, q, role)
}

// Delete removes the role; its permission rows cascade. Assignments
// referencing the role stay behind.
func (s *PostgresRoleStore) Delete(ctx context.Context, id string) error {
	q := db.QuerierFrom(ctx, s.db)
	if _, err := q.ExecContext(ctx, "DELETE FROM roles WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

func (s *PostgresRoleStore) insertPermissions(ctx context.Context, q db.Querier, role *domain.Role) error {
	for _, p := range role.Permissions {
		_, err := q.ExecContext(ctx,
			"INSERT INTO role_permissions (id, role_id, action) VALUES ($1, $2, $3)",
			p.ID, p.RoleID, p.Action)
		if err != nil {
			return db.MapUnique(err, "permission", "action")
		}
	}
	return nil
}

func (s *PostgresRoleStore) loadPermissions(ctx context.Context, q db.Querier, role *domain.Role) error {
	rows, err := q.QueryContext(ctx,
		"SELECT id, role_id, action FROM role_permissions WHERE role_id = $1 ORDER BY action",
		role.ID)
	if err != nil {
		return fmt.Errorf("load role permissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.RoleID, &p.Action); err != nil {
			return fmt.Errorf("scan permission: %w", err)
		}
		role.Permissions = append(role.Permissions, p)
	}
	return rows.Err()
}

func scanRole(row rowScanner) (*domain.Role, error) {
	var (
		role      domain.Role
		scopeID   string
		scopeType string
	)
	err := row.Scan(&role.ID, &role.Name, &role.Description, &scopeID, &scopeType,
		&role.IsSystem, &role.CreatedAt, &role.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan role: %w", err)
	}
	scope, err := domain.ParseScope(domain.ScopeType(scopeType), scopeID)
	if err != nil {
		return nil, err
	}
	role.Scope = scope
	return &role, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
