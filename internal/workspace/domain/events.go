package domain

import "time"

// Created is raised when a workspace is created.
type Created struct {
	WorkspaceID    string
	OrganizationID string
	Name           string
	Slug           string
	At             time.Time
}

func (Created) EventName() string       { return "workspace.created" }
func (e Created) OccurredAt() time.Time { return e.At }

// Updated is raised on rename, suspend, and activate.
type Updated struct {
	WorkspaceID string
	Name        string
	At          time.Time
}

func (Updated) EventName() string       { return "workspace.updated" }
func (e Updated) OccurredAt() time.Time { return e.At }

// Deleted is raised when a workspace is logically deleted.
type Deleted struct {
	WorkspaceID string
	At          time.Time
}

func (Deleted) EventName() string       { return "workspace.deleted" }
func (e Deleted) OccurredAt() time.Time { return e.At }

// MemberAdded is raised when a membership is created.
type MemberAdded struct {
	WorkspaceID  string
	MembershipID string
	UserID       string
	Role         MemberRole
	At           time.Time
}

func (MemberAdded) EventName() string       { return "workspace.member_added" }
func (e MemberAdded) OccurredAt() time.Time { return e.At }

// MemberRemoved is raised when a membership is removed.
type MemberRemoved struct {
	WorkspaceID  string
	MembershipID string
	UserID       string
	At           time.Time
}

func (MemberRemoved) EventName() string       { return "workspace.member_removed" }
func (e MemberRemoved) OccurredAt() time.Time { return e.At }

// MemberRoleChanged is raised when a member's role actually changes.
type MemberRoleChanged struct {
	WorkspaceID string
	UserID      string
	OldRole     MemberRole
	NewRole     MemberRole
	At          time.Time
}

func (MemberRoleChanged) EventName() string       { return "workspace.member_role_changed" }
func (e MemberRoleChanged) OccurredAt() time.Time { return e.At }
