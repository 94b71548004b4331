package otel

import (
	"context"
	"encoding/json"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"tenant-control-plane/backend/internal/platform/events"
	"tenant-control-plane/backend/internal/telemetry"
)

// NewEventEmitter returns an EventEmitter that sends domain events as OTel
// log records via the given LoggerProvider. If provider is nil, returns a
// no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("tenancy.events")}
}

// NewEventEmitterWithLogger returns an emitter over an explicit logger.
// Mainly for tests that capture the emitted records.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

// recordEmitter is the subset of otellog.Logger the emitter needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, events.Event) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the domain event to an OTel log record and emits it. The
// event name becomes the event_name attribute and the JSON payload the body.
func (e *otelEmitter) Emit(ctx context.Context, event events.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if at := event.OccurredAt(); !at.IsZero() {
		rec.SetTimestamp(at.UTC())
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	rec.AddAttributes(otellog.String("event_name", event.EventName()))
	if body, err := json.Marshal(event); err == nil && len(body) > 0 {
		rec.SetBody(otellog.BytesValue(body))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
