package item

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentify/service-booking/internal/platform/apperror"
)

// AvailabilityStatus is the item-level administrative flag. It is a coarse
// cache of booking state; conflict detection never relies on it alone.
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "AVAILABLE"
	StatusRented      AvailabilityStatus = "RENTED"
	StatusMaintenance AvailabilityStatus = "MAINTENANCE"
	StatusUnavailable AvailabilityStatus = "UNAVAILABLE"
)

// IsValid returns true if s is a recognized flag.
func (s AvailabilityStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusRented, StatusMaintenance, StatusUnavailable:
		return true
	}
	return false
}

func (s AvailabilityStatus) String() string { return string(s) }

// ParseAvailabilityStatus converts a string to an AvailabilityStatus.
func ParseAvailabilityStatus(s string) (AvailabilityStatus, error) {
	status := AvailabilityStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid availability status: %s", s)
	}
	return status, nil
}

// Item is a rentable listing as seen by the booking core. Everything except
// the administrative flag is owned by the catalog.
type Item struct {
	id            uuid.UUID
	ownerID       uuid.UUID
	title         string
	pricePerDay   decimal.Decimal
	status        AvailabilityStatus
	minRentalDays int
	maxRentalDays int

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewItem creates an item with the AVAILABLE flag.
func NewItem(id, ownerID uuid.UUID, title string, pricePerDay decimal.Decimal, minDays, maxDays int) (*Item, error) {
	if id == uuid.Nil {
		return nil, apperror.NewValidationError("item ID is required")
	}
	if ownerID == uuid.Nil {
		return nil, apperror.NewValidationError("owner ID is required")
	}
	if pricePerDay.IsNegative() {
		return nil, apperror.NewValidationError("price per day cannot be negative")
	}
	if minDays > 0 && maxDays > 0 && minDays > maxDays {
		return nil, apperror.NewValidationError("minimum rental days exceeds maximum")
	}

	now := time.Now().UTC()
	return &Item{
		id:            id,
		ownerID:       ownerID,
		title:         title,
		pricePerDay:   pricePerDay,
		status:        StatusAvailable,
		minRentalDays: minDays,
		maxRentalDays: maxDays,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructItem rebuilds an Item from persistence data (no validation).
func ReconstructItem(
	id, ownerID uuid.UUID,
	title string,
	pricePerDay decimal.Decimal,
	status AvailabilityStatus,
	minDays, maxDays int,
	version int64,
	createdAt, updatedAt time.Time,
) *Item {
	return &Item{
		id:            id,
		ownerID:       ownerID,
		title:         title,
		pricePerDay:   pricePerDay,
		status:        status,
		minRentalDays: minDays,
		maxRentalDays: maxDays,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (i *Item) ID() uuid.UUID { return i.id }
func (i *Item) OwnerID() uuid.UUID { return i.ownerID }
func (i *Item) Title() string { return i.title }
func (i *Item) PricePerDay() decimal.Decimal { return i.pricePerDay }
func (i *Item) Status() AvailabilityStatus { return i.status }
func (i *Item) MinRentalDays() int { return i.minRentalDays }
func (i *Item) MaxRentalDays() int { return i.maxRentalDays }
func (i *Item) Version() int64 { return i.version }
func (i *Item) CreatedAt() time.Time { return i.createdAt }
func (i *Item) UpdatedAt() time.Time { return i.updatedAt }
func (i *Item) IsOwnedBy(userID uuid.UUID) bool { return i.ownerID == userID }

// AcceptsBookings reports whether new requests may be created. RENTED items
// still accept requests for dates that do not overlap.
func (i *Item) AcceptsBookings() bool {
	return i.status == StatusAvailable || i.status == StatusRented
}

// CheckRentalDays validates a day count against the item's bounds.
// A bound <= 0 means unset.
func (i *Item) CheckRentalDays(days int) error {
	if i.minRentalDays > 0 && days < i.minRentalDays {
		return apperror.NewInvariantViolation(fmt.Sprintf("minimum rental period is %d days", i.minRentalDays))
	}
	if i.maxRentalDays > 0 && days > i.maxRentalDays {
		return apperror.NewInvariantViolation(fmt.Sprintf("maximum rental period is %d days", i.maxRentalDays))
	}
	return nil
}

// MarkRented sets the flag to RENTED. It reports whether the flag changed.
func (i *Item) MarkRented() bool {
	if i.status == StatusRented {
		return false
	}
	i.status = StatusRented
	i.updatedAt = time.Now().UTC()
	return true
}

// Release sets RENTED back to AVAILABLE. MAINTENANCE and UNAVAILABLE are
// administrative holds and are left alone. It reports whether the flag changed.
func (i *Item) Release() bool {
	if i.status != StatusRented {
		return false
	}
	i.status = StatusAvailable
	i.updatedAt = time.Now().UTC()
	return true
}

// ApplyCatalog refreshes the catalog-owned attributes. The administrative flag is untouched.
func (i *Item) ApplyCatalog(ownerID uuid.UUID, title string, pricePerDay decimal.Decimal, minDays, maxDays int) {
	i.ownerID = ownerID
	i.title = title
	i.pricePerDay = pricePerDay
	i.minRentalDays = minDays
	i.maxRentalDays = maxDays
	i.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (i *Item) IncrementVersion() {
	i.version++
	i.updatedAt = time.Now().UTC()
}
