package repository

import (
	"context"
	"database/sql"
	"errors"

	"tenant-control-plane/backend/internal/db"
	"tenant-control-plane/backend/internal/workspace/domain"
)

type PostgresMembershipStore struct {
	db *sql.DB
}

// NewPostgresMembershipStore returns a membership store that uses conn for persistence.
func NewPostgresMembershipStore(conn *sql.DB) *PostgresMembershipStore {
	return &PostgresMembershipStore{db: conn}
}

const membershipColumns = "id, workspace_id, user_id, role, joined_at, invited_by"

// GetByWorkspaceAndUser returns the membership for (workspaceID, userID), or nil.
func (s *PostgresMembershipStore) GetByWorkspaceAndUser(ctx context.Context, workspaceID, userID string) (*domain.Membership, error) {
	rows, err := db.QuerierFrom(ctx, s.db).QueryContext(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE workspace_id = $1 AND user_id = $2",
		workspaceID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanMembership(rows)
}

// GetByUserID lists all of a user's memberships across workspaces.
func (s *PostgresMembershipStore) GetByUserID(ctx context.Context, userID string) ([]*domain.Membership, error) {
	return s.list(ctx, "SELECT "+membershipColumns+" FROM memberships WHERE user_id = $1 ORDER BY joined_at", userID)
}

// GetByWorkspaceID lists the workspace's memberships.
func (s *PostgresMembershipStore) GetByWorkspaceID(ctx context.Context, workspaceID string) ([]*domain.Membership, error) {
	return s.list(ctx, "SELECT "+membershipColumns+" FROM memberships WHERE workspace_id = $1 ORDER BY joined_at", workspaceID)
}

// Create persists the membership. A concurrent duplicate add surfaces as a
// ConflictError from the (workspace_id, user_id) constraint.
func (s *PostgresMembershipStore) Create(ctx context.Context, m *domain.Membership) error {
	invitedBy := sql.NullString{String: m.InvitedBy, Valid: m.InvitedBy != ""}
	_, err := db.QuerierFrom(ctx, s.db).ExecContext(ctx,
		`INSERT INTO memberships (id, workspace_id, user_id, role, joined_at, invited_by)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.WorkspaceID, m.UserID, string(m.Role), m.JoinedAt, invitedBy)
	return db.MapUnique(err, "membership", "user_id")
}

// Delete removes the membership row.
func (s *PostgresMembershipStore) Delete(ctx context.Context, workspaceID, userID string) error {
	_, err := db.QuerierFrom(ctx, s.db).ExecContext(ctx,
		"DELETE FROM memberships WHERE workspace_id = $1 AND user_id = $2", workspaceID, userID)
	return err
}

// UpdateRole sets the membership's role.
func (s *PostgresMembershipStore) UpdateRole(ctx context.Context, workspaceID, userID string, role domain.MemberRole) error {
	_, err := db.QuerierFrom(ctx, s.db).ExecContext(ctx,
		"UPDATE memberships SET role = $3 WHERE workspace_id = $1 AND user_id = $2",
		workspaceID, userID, string(role))
	return err
}

func (s *PostgresMembershipStore) list(ctx context.Context, query string, arg string) ([]*domain.Membership, error) {
	rows, err := db.QuerierFrom(ctx, s.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMembership(rows *sql.Rows) (*domain.Membership, error) {
	var (
		m         domain.Membership
		role      string
		invitedBy sql.NullString
	)
	if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &role, &m.JoinedAt, &invitedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Role = domain.MemberRole(role)
	if invitedBy.Valid {
		m.InvitedBy = invitedBy.String
	}
	return &m, nil
}
