package domain

import "time"

// Created is raised when an organization is created.
type Created struct {
	OrganizationID string
	Name           string
	Slug           string
	At             time.Time
}

func (Created) EventName() string       { return "organization.created" }
func (e Created) OccurredAt() time.Time { return e.At }

// Updated is raised on rename, settings replacement, suspend, and activate.
type Updated struct {
	OrganizationID string
	Name           string
	At             time.Time
}

func (Updated) EventName() string       { return "organization.updated" }
func (e Updated) OccurredAt() time.Time { return e.At }

// Deleted is raised when an organization is logically deleted.
type Deleted struct {
	OrganizationID string
	At             time.Time
}

func (Deleted) EventName() string       { return "organization.deleted" }
func (e Deleted) OccurredAt() time.Time { return e.At }
