package domain

import "time"

// AuditLog is one persisted record of a domain event. Action is the event
// name (e.g. "workspace.member_added"), Resource the aggregate kind it names,
// and Metadata the event payload serialized as JSON.
type AuditLog struct {
	ID        string
	Action    string
	Resource  string
	Metadata  string
	CreatedAt time.Time
}
