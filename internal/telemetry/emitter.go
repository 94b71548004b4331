package telemetry

import (
	"context"

	"tenant-control-plane/backend/internal/platform/events"
)

// EventEmitter delivers domain events to an external sink (e.g. OTel Logs).
// Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event events.Event) error
}
