package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tenant-control-plane/backend/internal/db"
	"tenant-control-plane/backend/internal/rbac/domain"
)

// PostgresRoleAssignmentStore is the Postgres-backed assignment store.
type PostgresRoleAssignmentStore struct {
	db db.Querier
}

// NewPostgresRoleAssignmentStore creates a PostgresRoleAssignmentStore.
func NewPostgresRoleAssignmentStore(q db.Querier) *PostgresRoleAssignmentStore {
	return &PostgresRoleAssignmentStore{db: q}
}

func (s *PostgresRoleAssignmentStore) GetByID(ctx context.Context, id string) (*domain.RoleAssignment, error) {
	q := db.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx,
		`SELECT id, role_id, user_id, scope_id, scope_type, assigned_at, assigned_by
		 FROM role_assignments WHERE id = $1`, id)
	return scanAssignment(row)
}

func (s *PostgresRoleAssignmentStore) Exists(ctx context.Context, roleID, userID string, scope domain.Scope) (bool, error) {
	q := db.QuerierFrom(ctx, s.db)
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM role_assignments
		   WHERE role_id = $1 AND user_id = $2 AND scope_id = $3 AND scope_type = $4
		 )`,
		roleID, userID, scope.ID(), string(scope.Type())).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role assignment: %w", err)
	}
	return exists, nil
}

// GetByUserAndScope joins assignments with their roles and permissions. An
// inner join drops assignments whose role was deleted, so orphans grant
// nothing.
func (s *PostgresRoleAssignmentStore) GetByUserAndScope(ctx context.Context, userID string, scope domain.Scope) ([]domain.ResolvedAssignment, error) {
	q := db.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx,
		`SELECT a.id, a.role_id, a.user_id, a.scope_id, a.scope_type, a.assigned_at, a.assigned_by,
		        r.id, r.name, r.description, r.scope_id, r.scope_type, r.is_system, r.created_at, r.updated_at
		 FROM role_assignments a
		 JOIN roles r ON r.id = a.role_id
		 WHERE a.user_id = $1 AND a.scope_id = $2 AND a.scope_type = $3
		 ORDER BY r.name`,
		userID, scope.ID(), string(scope.Type()))
	if err != nil {
		return nil, fmt.Errorf("resolve assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.ResolvedAssignment
	for rows.Next() {
		var (
			ra         domain.ResolvedAssignment
			aScopeID   string
			aScopeType string
			rScopeID   string
			rScopeType string
		)
		err := rows.Scan(
			&ra.Assignment.ID, &ra.Assignment.RoleID, &ra.Assignment.UserID,
			&aScopeID, &aScopeType, &ra.Assignment.AssignedAt, &ra.Assignment.AssignedBy,
			&ra.Role.ID, &ra.Role.Name, &ra.Role.Description, &rScopeID, &rScopeType,
			&ra.Role.IsSystem, &ra.Role.CreatedAt, &ra.Role.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan resolved assignment: %w", err)
		}
		if ra.Assignment.Scope, err = domain.ParseScope(domain.ScopeType(aScopeType), aScopeID); err != nil {
			return nil, err
		}
		if ra.Role.Scope, err = domain.ParseScope(domain.ScopeType(rScopeType), rScopeID); err != nil {
			return nil, err
		}
		out = append(out, ra)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.loadPermissions(ctx, q, &out[i].Role); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresRoleAssignmentStore) Create(ctx context.Context, a *domain.RoleAssignment) error {
	q := db.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO role_assignments (id, role_id, user_id, scope_id, scope_type, assigned_at, assigned_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.RoleID, a.UserID, a.Scope.ID(), string(a.Scope.Type()), a.AssignedAt, a.AssignedBy)
	return db.MapUnique(err, "role_assignment", "role_id")
}

func (s *PostgresRoleAssignmentStore) Delete(ctx context.Context, id string) error {
	q := db.QuerierFrom(ctx, s.db)
	if _, err := q.ExecContext(ctx, "DELETE FROM role_assignments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete role assignment: %w", err)
	}
	return nil
}

func (s *PostgresRoleAssignmentStore) loadPermissions(ctx context.Context, q db.Querier, role *domain.Role) error {
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

func scanAssignment(row rowScanner) (*domain.RoleAssignment, error) {
	var (
		a         domain.RoleAssignment
		scopeID   string
		scopeType string
	)
	err := row.Scan(&a.ID, &a.RoleID, &a.UserID, &scopeID, &scopeType, &a.AssignedAt, &a.AssignedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan role assignment: %w", err)
	}
	scope, err := domain.ParseScope(domain.ScopeType(scopeType), scopeID)
	if err != nil {
		return nil, err
	}
	a.Scope = scope
	return &a, nil
}
