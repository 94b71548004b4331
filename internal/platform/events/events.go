// Package events holds the domain-event contracts: events are plain data
// records raised by aggregate mutations, retained on the instance until the
// caller drains and publishes them after a successful commit. There is no
// event bus inside the core.
package events

import (
	"context"
	"log"
	"time"
)

// Event is a domain event raised by an aggregate mutation. Concrete event
// types live in the feature domain packages (e.g. workspace MemberAdded).
type Event interface {
	// EventName is the stable dotted name, e.g. "workspace.member_added".
	EventName() string
	// OccurredAt is when the mutation happened (UTC).
	OccurredAt() time.Time
}

// Recorder collects events on an aggregate instance in mutation order.
// Aggregates embed it; command handlers drain it post-commit.
type Recorder struct {
	pending []Event
}

// Record appends e to the pending list.
func (r *Recorder) Record(e Event) {
	r.pending = append(r.pending, e)
}

// DrainEvents returns the pending events in order and clears the list.
func (r *Recorder) DrainEvents() []Event {
	out := r.pending
	r.pending = nil
	return out
}

// PendingEvents returns a copy of the pending events without clearing them.
func (r *Recorder) PendingEvents() []Event {
	out := make([]Event, len(r.pending))
	copy(out, r.pending)
	return out
}

// Publisher delivers drained events to a collaborator (audit log, telemetry).
// Implementations must not mutate domain state.
type Publisher interface {
	Publish(ctx context.Context, evs []Event) error
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []Event) error { return nil }

// BestEffort publishes evs and logs failures instead of returning them.
// Command handlers call it after the commit succeeded; a publish failure must
// not fail the already-committed operation.
func BestEffort(ctx context.Context, p Publisher, evs []Event) {
	if p == nil || len(evs) == 0 {
		return
	}
	if err := p.Publish(ctx, evs); err != nil {
		log.Printf("events: publish failed: %v", err)
	}
}
