package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rentify/service-booking/internal/domain/item"
)

// ListFilter narrows a participant listing.
type ListFilter struct {
	// ItemID restricts results to one item when non-nil.
	ItemID *uuid.UUID
	Status *Status
}

// BookingRepository is the read side of the booking store.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByParticipant retrieves bookings where the user is renter or owner, newest first.
	FindByParticipant(ctx context.Context, userID uuid.UUID, filter ListFilter, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// FindExpired returns CONFIRMED bookings whose end date is before today.
	FindExpired(ctx context.Context, today time.Time) ([]*Booking, error)

	// FindConfirmedEndingOn returns CONFIRMED bookings whose end date is day.
	FindConfirmedEndingOn(ctx context.Context, day time.Time) ([]*Booking, error)

	// ActiveBookingsForItem returns the ACCEPTED_BY_OWNER and CONFIRMED bookings of an item.
	ActiveBookingsForItem(ctx context.Context, itemID uuid.UUID) ([]*Booking, error)

	// History returns the ledger of one booking in the requested order.
	History(ctx context.Context, bookingID uuid.UUID, order HistoryOrder) ([]*HistoryEntry, error)
}

// TxRepository is the view of the store inside one unit of work. Every
// method runs in the same transaction as the item lock that opened it.
type TxRepository interface {
	// ActiveBookingsForItem lists the item's active bookings inside the transaction.
	ActiveBookingsForItem(ctx context.Context, itemID uuid.UUID) ([]*Booking, error)

	// FindByID reloads a booking inside the transaction.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// Save persists a new booking.
	Save(ctx context.Context, b *Booking) error

	// Update persists an existing booking whose version was already incremented.
	// It fails with a conflict when the stored version is not version-1.
	Update(ctx context.Context, b *Booking) error

	// Delete removes a booking and its history.
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateItemStatus persists the item's administrative flag.
	UpdateItemStatus(ctx context.Context, it *item.Item) error

	// AppendHistory adds one ledger entry.
	AppendHistory(ctx context.Context, entry *HistoryEntry) error
}

// TxFunc is the body of a unit of work. it is the locked item, loaded inside the transaction.
type TxFunc func(ctx context.Context, tx TxRepository, it *item.Item) error

// UnitOfWork runs fn atomically while holding an exclusive lock on the item.
// If fn returns an error or ctx ends, nothing fn wrote is persisted.
type UnitOfWork interface {
	WithItemLock(ctx context.Context, itemID uuid.UUID, fn TxFunc) error
}
