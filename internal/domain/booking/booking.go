package booking

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentify/service-booking/internal/platform/apperror"
)

// MaxNoteLength caps every free-text input (notes, reasons, logistics details) in characters.
const MaxNoteLength = 2000

func checkText(field, s string) error {
	if utf8.RuneCountInString(s) > MaxNoteLength {
		return apperror.NewValidationError(fmt.Sprintf("%s must be at most %d characters", field, MaxNoteLength))
	}
	return nil
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id       uuid.UUID
	itemID   uuid.UUID
	renterID uuid.UUID
	// ownerID is a snapshot of the item owner at creation and never re-derived.
	ownerID uuid.UUID
	status  Status
	dates   DateRange

	totalPrice        decimal.Decimal
	requiresLogistics bool
	renterNote        string
	ownerNote         string
	cancelReason      string

	cancelledAt *time.Time
	completedAt *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// Transition describes one committed lifecycle step. From == To for extend.
type Transition struct {
	BookingID uuid.UUID
	Action    Action
	From      Status
	To        Status
	ActorID   *uuid.UUID
	Note      string
	At        time.Time

	// Extend only.
	ExtendedDays int
	PreviousEnd  time.Time
	// AssignLogistics only.
	LogisticsProvider string
	LogisticsDetails  string
}

// StatusChanged reports whether the step moved the booking to another state.
func (t Transition) StatusChanged() bool { return t.From != t.To }

// NewBookingParams holds the inputs for a booking request.
type NewBookingParams struct {
	ItemID            uuid.UUID
	OwnerID           uuid.UUID
	RenterID          uuid.UUID
	Dates             DateRange
	PricePerDay       decimal.Decimal
	RequiresLogistics bool
	RenterNote        string
}

// NewBooking creates a new Booking aggregate with status PENDING.
func NewBooking(p NewBookingParams, pricing PricingStrategy) (*Booking, error) {
	if p.ItemID == uuid.Nil {
		return nil, apperror.NewValidationError("item ID is required")
	}
	if p.RenterID == uuid.Nil {
		return nil, apperror.NewValidationError("renter ID is required")
	}
	if p.OwnerID == uuid.Nil {
		return nil, apperror.NewValidationError("owner ID is required")
	}
	if p.Dates.IsZero() {
		return nil, apperror.NewValidationError("rental dates are required")
	}
	if p.RenterID == p.OwnerID {
		return nil, apperror.NewInvariantViolation("you cannot book your own item")
	}
	if err := checkText("renter note", p.RenterNote); err != nil {
		return nil, err
	}

	total, err := pricing.CalculateTotal(p.PricePerDay, p.Dates)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:                uuid.New(),
		itemID:            p.ItemID,
		renterID:          p.RenterID,
		ownerID:           p.OwnerID,
		status:            StatusPending,
		dates:             p.Dates,
		totalPrice:        total,
		requiresLogistics: p.RequiresLogistics,
		renterNote:        p.RenterNote,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructBookingParams mirrors the persisted state of a booking.
type ReconstructBookingParams struct {
	ID                uuid.UUID
	ItemID            uuid.UUID
	RenterID          uuid.UUID
	OwnerID           uuid.UUID
	Status            Status
	Dates             DateRange
	TotalPrice        decimal.Decimal
	RequiresLogistics bool
	RenterNote        string
	OwnerNote         string
	CancelReason      string
	CancelledAt       *time.Time
	CompletedAt       *time.Time
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(p ReconstructBookingParams) *Booking {
	return &Booking{
		id:                p.ID,
		itemID:            p.ItemID,
		renterID:          p.RenterID,
		ownerID:           p.OwnerID,
		status:            p.Status,
		dates:             p.Dates,
		totalPrice:        p.TotalPrice,
		requiresLogistics: p.RequiresLogistics,
		renterNote:        p.RenterNote,
		ownerNote:         p.OwnerNote,
		cancelReason:      p.CancelReason,
		cancelledAt:       p.CancelledAt,
		completedAt:       p.CompletedAt,
		version:           p.Version,
		createdAt:         p.CreatedAt,
		updatedAt:         p.UpdatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// ItemID returns the booked item.
func (b *Booking) ItemID() uuid.UUID { return b.itemID }

// RenterID returns the renter's user ID.
func (b *Booking) RenterID() uuid.UUID { return b.renterID }

// OwnerID returns the owner snapshot taken at creation.
func (b *Booking) OwnerID() uuid.UUID { return b.ownerID }

// Status returns the current booking status.
func (b *Booking) Status() Status { return b.status }

// Dates returns the inclusive rental range.
func (b *Booking) Dates() DateRange { return b.dates }

// TotalPrice returns the full-precision total.
func (b *Booking) TotalPrice() decimal.Decimal { return b.totalPrice }

// RequiresLogistics reports whether third-party logistics was requested.
func (b *Booking) RequiresLogistics() bool { return b.requiresLogistics }

func (b *Booking) RenterNote() string { return b.renterNote }
func (b *Booking) OwnerNote() string { return b.ownerNote }
func (b *Booking) CancelReason() string { return b.cancelReason }
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }
func (b *Booking) Version() int64 { return b.version }
func (b *Booking) CreatedAt() time.Time { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }
func (b *Booking) IsActive() bool { return b.status.IsActive() }
func (b *Booking) IsParticipant(u uuid.UUID) bool { return u == b.renterID || u == b.ownerID }

// RoleOf resolves the role of actor on this booking. A nil actor is the system.
func (b *Booking) RoleOf(actor *uuid.UUID) (Role, bool) {
	switch {
	case actor == nil:
		return RoleSystem, true
	case *actor == b.renterID:
		return RoleRenter, true
	case *actor == b.ownerID:
		return RoleOwner, true
	}
	return "", false
}

// EventFor builds the event emitted by a committed transition.
func (b *Booking) EventFor(t Transition) (Event, bool) {
	typ, ok := eventFor(t.Action)
	if !ok {
		return Event{}, false
	}
	e := NewEvent(typ, b, t.ActorID)
	switch t.Action {
	case ActionCancel:
		e.Reason = t.Note
	case ActionExtend:
		e.ExtendedDays = t.ExtendedDays
		e.PreviousEndDate = t.PreviousEnd
	case ActionAssignLogistics:
		e.LogisticsProvider = t.LogisticsProvider
		e.LogisticsDetails = t.LogisticsDetails
	}
	return e, true
}

// --- Behavior ---

func (b *Booking) authorize(action Action, actor *uuid.UUID) (Status, error) {
	role, ok := b.RoleOf(actor)
	if !ok {
		return "", apperror.NewInvalidTransition(b.status.String(), action.String(), "not a participant of this booking")
	}
	return guard(action, role, b.status)
}

func (b *Booking) apply(action Action, actor *uuid.UUID, to Status, note string) Transition {
	now := time.Now().UTC()
	t := Transition{
		BookingID: b.id,
		Action:    action,
		From:      b.status,
		To:        to,
		ActorID:   actor,
		Note:      note,
		At:        now,
	}
	b.status = to
	b.updatedAt = now
	return t
}

// OwnerAccept moves PENDING to ACCEPTED_BY_OWNER. Overlap against other
// active bookings is checked by the caller under the item lock.
func (b *Booking) OwnerAccept(ownerID uuid.UUID, note string) (Transition, error) {
	to, err := b.authorize(ActionOwnerAccept, &ownerID)
	if err != nil {
		return Transition{}, err
	}
	if err := checkText("owner note", note); err != nil {
		return Transition{}, err
	}
	b.ownerNote = note
	return b.apply(ActionOwnerAccept, &ownerID, to, note), nil
}

// RenterConfirm moves ACCEPTED_BY_OWNER to CONFIRMED.
func (b *Booking) RenterConfirm(renterID uuid.UUID, note string) (Transition, error) {
	to, err := b.authorize(ActionRenterConfirm, &renterID)
	if err != nil {
		return Transition{}, err
	}
	if err := checkText("note", note); err != nil {
		return Transition{}, err
	}
	return b.apply(ActionRenterConfirm, &renterID, to, note), nil
}

// Cancel moves any non-terminal booking to CANCELLED.
func (b *Booking) Cancel(actorID uuid.UUID, reason string) (Transition, error) {
	to, err := b.authorize(ActionCancel, &actorID)
	if err != nil {
		return Transition{}, err
	}
	if err := checkText("cancel reason", reason); err != nil {
		return Transition{}, err
	}
	t := b.apply(ActionCancel, &actorID, to, reason)
	b.cancelReason = reason
	b.cancelledAt = &t.At
	return t, nil
}

// Return is the renter handing the item back: CONFIRMED to COMPLETED.
func (b *Booking) Return(renterID uuid.UUID, note string) (Transition, error) {
	return b.finish(ActionReturn, &renterID, note)
}

// Complete is the owner closing the rental: CONFIRMED to COMPLETED.
func (b *Booking) Complete(ownerID uuid.UUID, note string) (Transition, error) {
	return b.finish(ActionComplete, &ownerID, note)
}

// Expire completes a CONFIRMED booking whose end date is strictly before today.
// It is driven by the system and records no actor.
func (b *Booking) Expire(today time.Time) (Transition, error) {
	if _, err := b.authorize(ActionExpire, nil); err != nil {
		return Transition{}, err
	}
	if !b.IsExpired(today) {
		return Transition{}, apperror.NewInvalidTransition(b.status.String(), ActionExpire.String(),
			fmt.Sprintf("rental runs until %s", b.dates.End().Format(DateLayout)))
	}
	return b.finish(ActionExpire, nil, fmt.Sprintf("Auto-completed: rental period ended on %s", b.dates.End().Format(DateLayout)))
}

// IsExpired reports whether a CONFIRMED booking's window has elapsed.
func (b *Booking) IsExpired(today time.Time) bool {
	return b.status == StatusConfirmed && b.dates.End().Before(DateOf(today))
}

func (b *Booking) finish(action Action, actor *uuid.UUID, note string) (Transition, error) {
	to, err := b.authorize(action, actor)
	if err != nil {
		return Transition{}, err
	}
	if err := checkText("note", note); err != nil {
		return Transition{}, err
	}
	t := b.apply(action, actor, to, note)
	b.completedAt = &t.At
	return t, nil
}

// Extend pushes the end date out by days and recomputes the price at the
// item's current daily rate. The status stays CONFIRMED.
func (b *Booking) Extend(actorID uuid.UUID, days int, pricePerDay decimal.Decimal, pricing PricingStrategy) (Transition, error) {
	to, err := b.authorize(ActionExtend, &actorID)
	if err != nil {
		return Transition{}, err
	}
	if days <= 0 {
		return Transition{}, apperror.NewValidationError("extension days must be a positive number")
	}

	extended := b.dates.ExtendBy(days)
	total, err := pricing.CalculateTotal(pricePerDay, extended)
	if err != nil {
		return Transition{}, err
	}

	prevEnd := b.dates.End()
	b.dates = extended
	b.totalPrice = total
	note := fmt.Sprintf("Extended by %d days (from %s to %s)", days,
		prevEnd.Format(DateLayout), extended.End().Format(DateLayout))
	t := b.apply(ActionExtend, &actorID, to, note)
	t.ExtendedDays = days
	t.PreviousEnd = prevEnd
	return t, nil
}

// ExtensionRange returns the range an extension by days would produce, without mutating.
func (b *Booking) ExtensionRange(days int) DateRange {
	return b.dates.ExtendBy(days)
}

// AssignLogistics records a logistics provider on the owner note. No status change.
func (b *Booking) AssignLogistics(ownerID uuid.UUID, provider, details string) (Transition, error) {
	to, err := b.authorize(ActionAssignLogistics, &ownerID)
	if err != nil {
		return Transition{}, err
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return Transition{}, apperror.NewValidationError("logistics provider is required")
	}

	details = strings.TrimSpace(details)
	if err := checkText("logistics provider", provider); err != nil {
		return Transition{}, err
	}
	if err := checkText("logistics details", details); err != nil {
		return Transition{}, err
	}
	line := fmt.Sprintf("Logistics assigned: %s - %s", provider, details)
	if b.ownerNote == "" {
		b.ownerNote = line
	} else {
		b.ownerNote += "\n" + line
	}
	t := b.apply(ActionAssignLogistics, &ownerID, to, line)
	t.LogisticsProvider = provider
	t.LogisticsDetails = details
	return t, nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
