// Package availability derives item availability from the live set of
// bookings. The administrative flag on an item is only a hint; the functions
// here are the source of truth for conflict checks.
package availability

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentify/service-booking/internal/domain/booking"
	"github.com/rentify/service-booking/internal/domain/item"
)

// HasOverlap reports whether dates conflict with an ACCEPTED_BY_OWNER or
// CONFIRMED booking in bookings. The booking with id exclude, if any, is ignored.
func HasOverlap(bookings []*booking.Booking, dates booking.DateRange, exclude *uuid.UUID) bool {
	for _, b := range bookings {
		if exclude != nil && b.ID() == *exclude {
			continue
		}
		if b.IsActive() && b.Dates().Overlaps(dates) {
			return true
		}
	}
	return false
}

// HasOtherActive reports whether any active booking other than exclude remains.
func HasOtherActive(bookings []*booking.Booking, exclude uuid.UUID) bool {
	for _, b := range bookings {
		if b.ID() != exclude && b.IsActive() {
			return true
		}
	}
	return false
}

// ActiveOn reports whether an active booking covers day, both ends inclusive.
func ActiveOn(bookings []*booking.Booking, day time.Time) bool {
	for _, b := range bookings {
		if b.IsActive() && b.Dates().Contains(day) {
			return true
		}
	}
	return false
}

// IsAvailableNow is true iff the flag is AVAILABLE and no active booking covers today.
func IsAvailableNow(it *item.Item, bookings []*booking.Booking, today time.Time) bool {
	if it.Status() != item.StatusAvailable {
		return false
	}
	return !ActiveOn(bookings, today)
}

// IsAvailableFor reports whether a new request for dates would be accepted.
func IsAvailableFor(it *item.Item, bookings []*booking.Booking, dates booking.DateRange) bool {
	return it.AcceptsBookings() && !HasOverlap(bookings, dates, nil)
}

// Reconcile brings the flag in line with bookings: AVAILABLE becomes RENTED
// while any active booking exists, RENTED becomes AVAILABLE once none do.
// Administrative holds are left alone. It reports whether the flag changed.
func Reconcile(it *item.Item, bookings []*booking.Booking) bool {
	active := false
	for _, b := range bookings {
		if b.IsActive() {
			active = true
			break
		}
	}

	switch {
	case active && it.Status() == item.StatusAvailable:
		return it.MarkRented()
	case !active:
		return it.Release()
	}
	return false
}
