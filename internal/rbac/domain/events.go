package domain

import "time"

// RoleCreated is raised when a role is created.
type RoleCreated struct {
	RoleID string
	Name   string
	Scope  Scope
	At     time.Time
}

func (RoleCreated) EventName() string       { return "role.created" }
func (e RoleCreated) OccurredAt() time.Time { return e.At }

// RoleUpdated is raised on rename and on permission grant/revoke.
type RoleUpdated struct {
	RoleID string
	Name   string
	At     time.Time
}

func (RoleUpdated) EventName() string       { return "role.updated" }
func (e RoleUpdated) OccurredAt() time.Time { return e.At }

// RoleDeleted is raised when a role is deleted.
type RoleDeleted struct {
	RoleID string
	Name   string
	At     time.Time
}

func (RoleDeleted) EventName() string       { return "role.deleted" }
func (e RoleDeleted) OccurredAt() time.Time { return e.At }

// AssignmentCreated is raised when a role is assigned to a user.
type AssignmentCreated struct {
	AssignmentID string
	RoleID       string
	UserID       string
	Scope        Scope
	At           time.Time
}

func (AssignmentCreated) EventName() string       { return "role_assignment.created" }
func (e AssignmentCreated) OccurredAt() time.Time { return e.At }

// AssignmentRevoked is raised when an assignment is revoked.
type AssignmentRevoked struct {
	AssignmentID string
	RoleID       string
	UserID       string
	Scope        Scope
	At           time.Time
}

func (AssignmentRevoked) EventName() string       { return "role_assignment.revoked" }
func (e AssignmentRevoked) OccurredAt() time.Time { return e.At }
