// Package domainerr defines the structured error taxonomy shared by all
// aggregates. Every domain failure carries its kind plus the entity and field
// that caused it, so callers can map errors to transport codes without
// re-deriving messages.
package domainerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a domain error for transport mapping.
type Kind string

const (
	// KindValidation is malformed input (400-equivalent).
	KindValidation Kind = "validation"
	// KindConflict is a violated uniqueness invariant (409-equivalent).
	KindConflict Kind = "conflict"
	// KindNotFound is a missing aggregate or child entity (404-equivalent).
	KindNotFound Kind = "not_found"
	// KindInvalidTransition is a disallowed state transition (409/422-equivalent).
	KindInvalidTransition Kind = "invalid_state_transition"
)

// Error is the canonical domain error. Entity names the aggregate or child
// entity kind (e.g. "organization"), Field/Value the offending input when
// known. Sentinel, if set, lets callers match specific failures with
// errors.Is (e.g. workspace domain's ErrDuplicateMember).
type Error struct {
	Kind     Kind
	Entity   string
	Field    string
	Value    string
	Msg      string
	Sentinel error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Entity)
	if e.Field != "" {
		b.WriteString(".")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Value != "" {
		fmt.Fprintf(&b, " (%s)", e.Value)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Sentinel }

// Validation returns a KindValidation error for the given entity and field.
func Validation(entity, field, msg string) *Error {
	return &Error{Kind: KindValidation, Entity: entity, Field: field, Msg: msg}
}

// Conflict returns a KindConflict error for the given entity and field.
func Conflict(entity, field, msg string) *Error {
	return &Error{Kind: KindConflict, Entity: entity, Field: field, Msg: msg}
}

// NotFound returns a KindNotFound error naming the missing entity.
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Field: "id", Value: id, Msg: "not found"}
}

// InvalidTransition returns a KindInvalidTransition error for the given entity.
func InvalidTransition(entity, msg string) *Error {
	return &Error{Kind: KindInvalidTransition, Entity: entity, Field: "status", Msg: msg}
}

// KindOf returns the kind of err, or "" if err is not a domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
