// Package apperror defines the error taxonomy shared by the booking core and its HTTP surface.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and transport mapping.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindInvalidTransition   Kind = "invalid_transition"
	KindOverlapConflict     Kind = "overlap_conflict"
	KindInvariantViolation  Kind = "invariant_violation"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindCollaboratorFailure Kind = "collaborator_failure"
	KindSweepItemFailure    Kind = "sweep_item_failure"
	KindInternal            Kind = "internal"
)

// Error is a classified application error.
type Error struct {
	Kind         Kind
	Message      string
	CurrentState string
	cause        error
}

func (e *Error) Error() string {
	if e.CurrentState != "" {
		return fmt.Sprintf("%s: %s (current state: %s)", e.Kind, e.Message, e.CurrentState)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// NewValidationError reports malformed input.
func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NewInvalidTransition reports a wrong actor or wrong current state for the requested action.
func NewInvalidTransition(current, action, reason string) *Error {
	return &Error{
		Kind:         KindInvalidTransition,
		Message:      fmt.Sprintf("cannot %s: %s", action, reason),
		CurrentState: current,
	}
}

// NewOverlapConflict reports that the requested dates collide with another active booking.
// The conflicting range is deliberately omitted.
func NewOverlapConflict() *Error {
	return &Error{Kind: KindOverlapConflict, Message: "the selected dates are unavailable for this item"}
}

// NewInvariantViolation reports a request that would break a domain invariant.
func NewInvariantViolation(msg string) *Error {
	return &Error{Kind: KindInvariantViolation, Message: msg}
}

// NewNotFound reports a missing resource.
func NewNotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

// NewConflict reports a lost optimistic-lock race.
func NewConflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// NewUnauthorized reports a missing or invalid identity.
func NewUnauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// NewForbidden reports an identity without access to the resource.
func NewForbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NewCollaboratorFailure wraps a failure of an external collaborator.
func NewCollaboratorFailure(collaborator string, cause error) *Error {
	return &Error{Kind: KindCollaboratorFailure, Message: fmt.Sprintf("%s failed: %v", collaborator, cause), cause: cause}
}

// NewSweepItemFailure wraps a failure to expire one booking during a sweep.
func NewSweepItemFailure(bookingID string, cause error) *Error {
	return &Error{Kind: KindSweepItemFailure, Message: fmt.Sprintf("booking %s: %v", bookingID, cause), cause: cause}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsValidation reports whether err rejected a request before any mutation.
func IsValidation(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindInvalidTransition, KindOverlapConflict, KindInvariantViolation:
		return true
	}
	return false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
