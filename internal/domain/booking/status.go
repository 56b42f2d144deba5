package booking

import (
	"fmt"
	"slices"

	"github.com/rentify/service-booking/internal/platform/apperror"
)

// Status represents the current state of a booking in its lifecycle.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusAcceptedByOwner Status = "ACCEPTED_BY_OWNER"
	StatusConfirmed       Status = "CONFIRMED"
	StatusCancelled       Status = "CANCELLED"
	StatusCompleted       Status = "COMPLETED"
)

// validTransitions defines which status changes exist at all.
// The action table below decides who may drive them.
var validTransitions = map[Status][]Status{
	StatusPending:         {StatusAcceptedByOwner, StatusCancelled},
	StatusAcceptedByOwner: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:       {StatusCompleted, StatusCancelled},
	StatusCompleted:       {},
	StatusCancelled:       {},
}

// ActiveStatuses hold their date range against other bookings on the same item.
var ActiveStatuses = []Status{StatusAcceptedByOwner, StatusConfirmed}

// IsValid returns true if the status is a recognized booking status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(validTransitions[s], target)
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s Status) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// IsActive reports whether the booking blocks its date range.
func (s Status) IsActive() bool {
	return slices.Contains(ActiveStatuses, s)
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// Action names a lifecycle operation.
type Action string

const (
	ActionCreate          Action = "create"
	ActionOwnerAccept     Action = "owner_accept"
	ActionRenterConfirm   Action = "renter_confirm"
	ActionCancel          Action = "cancel"
	ActionReturn          Action = "return"
	ActionComplete        Action = "complete"
	ActionExtend          Action = "extend"
	ActionExpire          Action = "expire"
	ActionAssignLogistics Action = "assign_logistics"
)

func (a Action) String() string { return string(a) }

// Role is the part an actor plays on one booking.
type Role string

const (
	RoleRenter Role = "renter"
	RoleOwner  Role = "owner"
	RoleSystem Role = "system"
)

type rule struct {
	from   []Status
	to     Status
	actors []Role
}

// transitionTable is the single authority on which actor may perform which
// action from which state. An action absent from the table is never allowed.
var transitionTable = map[Action]rule{
	ActionOwnerAccept: {
		from:   []Status{StatusPending},
		to:     StatusAcceptedByOwner,
		actors: []Role{RoleOwner},
	},
	ActionRenterConfirm: {
		from:   []Status{StatusAcceptedByOwner},
		to:     StatusConfirmed,
		actors: []Role{RoleRenter},
	},
	ActionCancel: {
		from:   []Status{StatusPending, StatusAcceptedByOwner, StatusConfirmed},
		to:     StatusCancelled,
		actors: []Role{RoleRenter, RoleOwner},
	},
	ActionReturn: {
		from:   []Status{StatusConfirmed},
		to:     StatusCompleted,
		actors: []Role{RoleRenter},
	},
	ActionComplete: {
		from:   []Status{StatusConfirmed},
		to:     StatusCompleted,
		actors: []Role{RoleOwner},
	},
	ActionExtend: {
		from:   []Status{StatusConfirmed},
		to:     StatusConfirmed,
		actors: []Role{RoleRenter, RoleOwner},
	},
	ActionExpire: {
		from:   []Status{StatusConfirmed},
		to:     StatusCompleted,
		actors: []Role{RoleSystem},
	},
	ActionAssignLogistics: {
		from:   []Status{StatusAcceptedByOwner, StatusConfirmed},
		actors: []Role{RoleOwner},
	},
}

// guard checks the table for action performed by role from current and
// returns the target status. A zero target means the status does not change.
func guard(action Action, role Role, current Status) (Status, error) {
	r, ok := transitionTable[action]
	if !ok {
		return "", apperror.NewInvalidTransition(current.String(), action.String(), "unknown action")
	}
	if !slices.Contains(r.actors, role) {
		return "", apperror.NewInvalidTransition(current.String(), action.String(),
			fmt.Sprintf("the %s of a booking may not do this", role))
	}
	if !slices.Contains(r.from, current) {
		return "", apperror.NewInvalidTransition(current.String(), action.String(),
			fmt.Sprintf("booking is %s", current))
	}
	if r.to == "" {
		return current, nil
	}
	return r.to, nil
}
