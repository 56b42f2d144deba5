package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names an outbound lifecycle event.
type EventType string

const (
	EventRequested         EventType = "booking.requested"
	EventOwnerAccepted     EventType = "booking.owner_accepted"
	EventRenterConfirmed   EventType = "booking.renter_confirmed"
	EventCancelled         EventType = "booking.cancelled"
	EventCompleted         EventType = "booking.completed"
	EventExtended          EventType = "booking.extended"
	EventReturnDue         EventType = "booking.return_due"
	EventLogisticsAssigned EventType = "booking.logistics_assigned"
)

// Event is emitted after a lifecycle operation commits.
type Event struct {
	Type              EventType
	BookingID         uuid.UUID
	ItemID            uuid.UUID
	RenterID          uuid.UUID
	OwnerID           uuid.UUID
	Status            Status
	StartDate         time.Time
	EndDate           time.Time
	TotalPrice        decimal.Decimal
	RequiresLogistics bool
	ActorID           *uuid.UUID

	// Set depending on Type.
	Reason            string
	ExtendedDays      int
	PreviousEndDate   time.Time
	LogisticsProvider string
	LogisticsDetails  string

	OccurredAt time.Time
}

// NewEvent snapshots b for an event of type t.
func NewEvent(t EventType, b *Booking, actorID *uuid.UUID) Event {
	return Event{
		Type:              t,
		BookingID:         b.id,
		ItemID:            b.itemID,
		RenterID:          b.renterID,
		OwnerID:           b.ownerID,
		Status:            b.status,
		StartDate:         b.dates.Start(),
		EndDate:           b.dates.End(),
		TotalPrice:        b.totalPrice,
		RequiresLogistics: b.requiresLogistics,
		ActorID:           actorID,
		OccurredAt:        time.Now().UTC(),
	}
}

// eventFor maps a committed action to the event it emits.
func eventFor(a Action) (EventType, bool) {
	switch a {
	case ActionCreate:
		return EventRequested, true
	case ActionOwnerAccept:
		return EventOwnerAccepted, true
	case ActionRenterConfirm:
		return EventRenterConfirmed, true
	case ActionCancel:
		return EventCancelled, true
	case ActionReturn, ActionComplete, ActionExpire:
		return EventCompleted, true
	case ActionExtend:
		return EventExtended, true
	case ActionAssignLogistics:
		return EventLogisticsAssigned, true
	}
	return "", false
}
