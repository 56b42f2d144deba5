package booking

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one append-only record of a transition. A nil actor means the system.
type HistoryEntry struct {
	id             uuid.UUID
	bookingID      uuid.UUID
	previousStatus Status
	newStatus      Status
	actorID        *uuid.UUID
	note           string
	createdAt      time.Time
}

// NewHistoryEntry records a transition of the booking.
func NewHistoryEntry(t Transition) *HistoryEntry {
	return &HistoryEntry{
		id:             uuid.New(),
		bookingID:      t.BookingID,
		previousStatus: t.From,
		newStatus:      t.To,
		actorID:        t.ActorID,
		note:           t.Note,
		createdAt:      t.At,
	}
}

// ReconstructHistoryEntry rebuilds an entry from persistence data.
func ReconstructHistoryEntry(
	id, bookingID uuid.UUID,
	previousStatus, newStatus Status,
	actorID *uuid.UUID,
	note string,
	createdAt time.Time,
) *HistoryEntry {
	return &HistoryEntry{
		id:             id,
		bookingID:      bookingID,
		previousStatus: previousStatus,
		newStatus:      newStatus,
		actorID:        actorID,
		note:           note,
		createdAt:      createdAt,
	}
}

func (h *HistoryEntry) ID() uuid.UUID { return h.id }
func (h *HistoryEntry) BookingID() uuid.UUID { return h.bookingID }
func (h *HistoryEntry) PreviousStatus() Status { return h.previousStatus }
func (h *HistoryEntry) NewStatus() Status { return h.newStatus }
func (h *HistoryEntry) ActorID() *uuid.UUID { return h.actorID }
func (h *HistoryEntry) Note() string { return h.note }
func (h *HistoryEntry) CreatedAt() time.Time { return h.createdAt }

// IsSystem reports whether the transition was driven by the system.
func (h *HistoryEntry) IsSystem() bool { return h.actorID == nil }

// HistoryOrder selects the ordering of a history listing.
type HistoryOrder string

const (
	// OrderNewestFirst is the display order.
	OrderNewestFirst HistoryOrder = "desc"
	// OrderChronological is the audit replay order.
	OrderChronological HistoryOrder = "asc"
)

// ParseHistoryOrder defaults to newest first.
func ParseHistoryOrder(s string) HistoryOrder {
	if HistoryOrder(s) == OrderChronological {
		return OrderChronological
	}
	return OrderNewestFirst
}
