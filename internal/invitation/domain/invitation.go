package domain

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
	workspacedomain "tenant-control-plane/backend/internal/workspace/domain"
)

// DefaultTTL is the invitation expiry applied when the caller passes zero.
const DefaultTTL = 7 * 24 * time.Hour

// tokenBytes is the entropy of the invitation token (256 bits, URL-safe).
const tokenBytes = 32

// Invitation invites an email address into a workspace. It references the
// workspace by id only; accepting and creating the membership is coordinated
// by the application layer, never by a back-reference.
type Invitation struct {
	events.Recorder

	ID          string
	WorkspaceID string
	Email       string
	Role        workspacedomain.MemberRole
	Token       string
	ExpiresAt   time.Time
	Status      Status
	CreatedAt   time.Time
	AcceptedAt  *time.Time
	InvitedBy   string
}

// Status is the invitation state. Pending is the only non-terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
	StatusRevoked  Status = "revoked"
)

// ErrExpired marks the Accept call that lazily expired a pending invitation.
// Subsequent calls on the now-expired invitation get a plain invalid-state
// error instead.
var ErrExpired = errors.New("invitation expired")

// New creates a pending invitation with a freshly generated unguessable
// token. Email is normalized (trim + lowercase). ttl zero means DefaultTTL;
// a negative ttl produces an already-expired invitation, which is valid to
// create and fails lazily on Accept.
func New(id, workspaceID, email string, role workspacedomain.MemberRole, invitedBy string, ttl time.Duration, now time.Time) (*Invitation, error) {
	if workspaceID == "" {
		return nil, domainerr.Validation("invitation", "workspace_id", "must not be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domainerr.Validation("invitation", "email", "must not be empty")
	}
	if invitedBy == "" {
		return nil, domainerr.Validation("invitation", "invited_by", "must not be empty")
	}
	if !role.Valid() {
		return nil, &domainerr.Error{
			Kind:   domainerr.KindValidation,
			Entity: "invitation",
			Field:  "role",
			Value:  string(role),
			Msg:    "unknown member role",
		}
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("invitation token: %w", err)
	}
	inv := &Invitation{
		ID:          id,
		WorkspaceID: workspaceID,
		Email:       email,
		Role:        role,
		Token:       token,
		ExpiresAt:   now.Add(ttl),
		Status:      StatusPending,
		CreatedAt:   now,
		InvitedBy:   invitedBy,
	}
	inv.Record(Created{InvitationID: id, WorkspaceID: workspaceID, Email: email, Role: role, At: now})
	return inv, nil
}

// Accept transitions Pending to Accepted when the invitation has not passed
// its expiry. When it has, the same call transitions it to Expired and fails
// with ErrExpired; expiry is detected lazily at use time, never by a sweep.
// Any terminal state fails with an invalid-transition error naming the state.
func (i *Invitation) Accept(now time.Time) error {
	if i.Status != StatusPending {
		return i.invalidTransition("accept")
	}
	if now.After(i.ExpiresAt) {
		i.Status = StatusExpired
		return &domainerr.Error{
			Kind:     domainerr.KindInvalidTransition,
			Entity:   "invitation",
			Field:    "expires_at",
			Value:    i.ExpiresAt.UTC().Format(time.RFC3339),
			Msg:      "invitation has expired",
			Sentinel: ErrExpired,
		}
	}
	i.Status = StatusAccepted
	at := now
	i.AcceptedAt = &at
	i.Record(Accepted{InvitationID: i.ID, WorkspaceID: i.WorkspaceID, Email: i.Email, At: now})
	return nil
}

// Revoke transitions Pending to Revoked.
func (i *Invitation) Revoke(now time.Time) error {
	if i.Status != StatusPending {
		return i.invalidTransition("revoke")
	}
	i.Status = StatusRevoked
	i.Record(Revoked{InvitationID: i.ID, WorkspaceID: i.WorkspaceID, At: now})
	return nil
}

// IsExpired reports whether the invitation is pending and past its expiry.
// Pure query: it never mutates status.
func (i *Invitation) IsExpired(now time.Time) bool {
	return i.Status == StatusPending && now.After(i.ExpiresAt)
}

func (i *Invitation) invalidTransition(op string) error {
	return &domainerr.Error{
		Kind:   domainerr.KindInvalidTransition,
		Entity: "invitation",
		Field:  "status",
		Value:  string(i.Status),
		Msg:    fmt.Sprintf("cannot %s invitation in state %q", op, i.Status),
	}
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
