package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tenant-control-plane/backend/internal/db"
	"tenant-control-plane/backend/internal/invitation/domain"
	workspacedomain "tenant-control-plane/backend/internal/workspace/domain"
)

const invitationColumns = "id, workspace_id, email, role, token, expires_at, status, created_at, accepted_at, invited_by"

// PostgresStore is the Postgres-backed invitation store.
type PostgresStore struct {
	db db.Querier
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(q db.Querier) *PostgresStore {
	return &PostgresStore{db: q}
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	q := db.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx,
		"SELECT "+invitationColumns+" FROM invitations WHERE id = $1", id)
	return scanInvitation(row)
}

func (s *PostgresStore) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	q := db.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx,
		"SELECT "+invitationColumns+" FROM invitations WHERE token = $1", token)
	return scanInvitation(row)
}

func (s *PostgresStore) GetByWorkspaceID(ctx context.Context, workspaceID string) ([]*domain.Invitation, error) {
	q := db.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx,
		"SELECT "+invitationColumns+" FROM invitations WHERE workspace_id = $1 ORDER BY created_at",
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, inv *domain.Invitation) error {
	q := db.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO invitations (id, workspace_id, email, role, token, expires_at, status, created_at, accepted_at, invited_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.WorkspaceID, inv.Email, string(inv.Role), inv.Token,
		inv.ExpiresAt, string(inv.Status), inv.CreatedAt, inv.AcceptedAt, inv.InvitedBy)
	return db.MapUnique(err, "invitation", "token")
}

func (s *PostgresStore) Update(ctx context.Context, inv *domain.Invitation) error {
	q := db.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx,
		"UPDATE invitations SET status = $2, accepted_at = $3 WHERE id = $1",
		inv.ID, string(inv.Status), inv.AcceptedAt)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitation(row rowScanner) (*domain.Invitation, error) {
	var (
		inv        domain.Invitation
		role       string
		status     string
		acceptedAt sql.NullTime
	)
	err := row.Scan(&inv.ID, &inv.WorkspaceID, &inv.Email, &role, &inv.Token,
		&inv.ExpiresAt, &status, &inv.CreatedAt, &acceptedAt, &inv.InvitedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan invitation: %w", err)
	}
	inv.Role = workspacedomain.MemberRole(role)
	inv.Status = domain.Status(status)
	if acceptedAt.Valid {
		t := acceptedAt.Time
		inv.AcceptedAt = &t
	}
	return &inv, nil
}
