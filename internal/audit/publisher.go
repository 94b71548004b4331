package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tenant-control-plane/backend/internal/audit/domain"
	auditrepo "tenant-control-plane/backend/internal/audit/repository"
	"tenant-control-plane/backend/internal/platform/events"
)

// Publisher persists every published domain event as an audit log row. The
// event name doubles as the action; the segment before the first dot names
// the resource. Payloads serialize to JSON metadata.
type Publisher struct {
	repo auditrepo.Repository
}

// NewPublisher returns an audit publisher over repo.
func NewPublisher(repo auditrepo.Repository) *Publisher {
	return &Publisher{repo: repo}
}

var _ events.Publisher = (*Publisher)(nil)

// Publish writes one audit row per event. It stops at the first failure so
// the caller's best-effort wrapper can report it.
func (p *Publisher) Publish(ctx context.Context, evs []events.Event) error {
	for _, ev := range evs {
		metadata, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", ev.EventName(), err)
		}
		entry := &domain.AuditLog{
			ID:        uuid.New().String(),
			Action:    ev.EventName(),
			Resource:  resourceOf(ev.EventName()),
			Metadata:  string(metadata),
			CreatedAt: occurredOrNow(ev),
		}
		if err := p.repo.Create(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func resourceOf(eventName string) string {
	if i := strings.IndexByte(eventName, '.'); i > 0 {
		return eventName[:i]
	}
	return eventName
}

func occurredOrNow(ev events.Event) time.Time {
	if at := ev.OccurredAt(); !at.IsZero() {
		return at.UTC()
	}
	return time.Now().UTC()
}
