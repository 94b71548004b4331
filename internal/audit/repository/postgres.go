package repository

import (
	"context"
	"fmt"
	"time"

	"tenant-control-plane/backend/internal/audit/domain"
	"tenant-control-plane/backend/internal/db"
)

// PostgresRepository is the Postgres-backed audit log store.
type PostgresRepository struct {
	db db.Querier
}

// NewPostgresRepository creates a PostgresRepository.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{db: q}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	q := db.QuerierFrom(ctx, r.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, resource, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.Action, entry.Resource, entry.Metadata, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByResource(ctx context.Context, resource string, since time.Time) ([]*domain.AuditLog, error) {
	q := db.QuerierFrom(ctx, r.db)
	rows, err := q.QueryContext(ctx,
		`SELECT id, action, resource, metadata, created_at
		 FROM audit_logs
		 WHERE resource = $1 AND created_at >= $2
		 ORDER BY created_at`,
		resource, since)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Resource, &entry.Metadata, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}
