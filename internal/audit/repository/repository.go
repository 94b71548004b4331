package repository

import (
	"context"
	"time"

	"tenant-control-plane/backend/internal/audit/domain"
)

// Repository persists audit log entries.
type Repository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListByResource(ctx context.Context, resource string, since time.Time) ([]*domain.AuditLog, error)
}
