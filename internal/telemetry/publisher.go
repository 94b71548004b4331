package telemetry

import (
	"context"

	"tenant-control-plane/backend/internal/platform/events"
)

// Publisher adapts an EventEmitter to the events.Publisher contract so
// drained aggregate events flow to the telemetry sink. Emits are
// synchronous; wrap calls with events.BestEffort when delivery must not
// fail the command.
type Publisher struct {
	emitter EventEmitter
}

// NewPublisher returns a publisher over emitter.
func NewPublisher(emitter EventEmitter) *Publisher {
	return &Publisher{emitter: emitter}
}

var _ events.Publisher = (*Publisher)(nil)

// Publish emits each event in order and stops at the first failure.
func (p *Publisher) Publish(ctx context.Context, evs []events.Event) error {
	if p.emitter == nil {
		return nil
	}
	for _, ev := range evs {
		if err := p.emitter.Emit(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
