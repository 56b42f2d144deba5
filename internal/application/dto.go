package application

import (
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
)

// CreateBookingRequest holds the data needed to request a booking.
type CreateBookingRequest struct {
	ItemID              uuid.UUID `json:"item_id" binding:"required"`
	StartDate           string    `json:"start_date" binding:"required"`
	EndDate             string    `json:"end_date" binding:"required"`
	RenterNote          string    `json:"renter_note"`
	ThirdPartyLogistics bool      `json:"third_party_required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                  uuid.UUID  `json:"id"`
	ItemID              uuid.UUID  `json:"item_id"`
	RenterID            uuid.UUID  `json:"renter_id"`
	OwnerID             uuid.UUID  `json:"owner_id"`
	Status              string     `json:"status"`
	StartDate           string     `json:"start_date"`
	EndDate             string     `json:"end_date"`
	RentalDays          int        `json:"rental_days"`
	TotalPrice          string     `json:"total_price"`
	ThirdPartyLogistics bool       `json:"third_party_required"`
	RenterNote          string     `json:"renter_note,omitempty"`
	OwnerNote           string     `json:"owner_note,omitempty"`
	CancelReason        string     `json:"cancel_reason,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	Version             int64      `json:"version"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// HistoryEntryDTO is one ledger line. A nil ChangedBy means the system.
type HistoryEntryDTO struct {
	ID             uuid.UUID  `json:"id"`
	BookingID      uuid.UUID  `json:"booking_id"`
	PreviousStatus string     `json:"previous_status"`
	NewStatus      string     `json:"new_status"`
	ChangedBy      *uuid.UUID `json:"changed_by"`
	Note           string     `json:"note,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

// PaginatedResult is one page of a listing.
type PaginatedResult[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// NewPaginatedResult wraps a page.
func NewPaginatedResult[T any](items []T, total int64, page, limit int) PaginatedResult[T] {
	return PaginatedResult[T]{Items: items, Total: total, Page: page, Limit: limit}
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// AvailabilityDTO answers "can this item be picked up today".
type AvailabilityDTO struct {
	ItemID               uuid.UUID `json:"item_id"`
	AvailableNow         bool      `json:"available_now"`
	AdministrativeStatus string    `json:"administrative_status"`
	// Degraded is set when bookings could not be read and only the flag was consulted.
	Degraded bool `json:"degraded,omitempty"`
}

// RangeAvailabilityDTO answers "would a request for these dates be accepted".
type RangeAvailabilityDTO struct {
	ItemID    uuid.UUID `json:"item_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Available bool      `json:"available"`
}

// ReconcileResultDTO reports the flag recomputation of one item.
type ReconcileResultDTO struct {
	ItemID  uuid.UUID `json:"item_id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Changed bool      `json:"changed"`
	Error   string    `json:"error,omitempty"`
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                  bk.ID(),
		ItemID:              bk.ItemID(),
		RenterID:            bk.RenterID(),
		OwnerID:             bk.OwnerID(),
		Status:              bk.Status().String(),
		StartDate:           bk.Dates().Start().Format(bookingDomain.DateLayout),
		EndDate:             bk.Dates().End().Format(bookingDomain.DateLayout),
		RentalDays:          bk.Dates().Days(),
		TotalPrice:          bookingDomain.FormatAmount(bk.TotalPrice()),
		ThirdPartyLogistics: bk.RequiresLogistics(),
		RenterNote:          bk.RenterNote(),
		OwnerNote:           bk.OwnerNote(),
		CancelReason:        bk.CancelReason(),
		CancelledAt:         bk.CancelledAt(),
		CompletedAt:         bk.CompletedAt(),
		Version:             bk.Version(),
		CreatedAt:           bk.CreatedAt(),
		UpdatedAt:           bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func toHistoryDTO(h *bookingDomain.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:             h.ID(),
		BookingID:      h.BookingID(),
		PreviousStatus: h.PreviousStatus().String(),
		NewStatus:      h.NewStatus().String(),
		ChangedBy:      h.ActorID(),
		Note:           h.Note(),
		Timestamp:      h.CreatedAt(),
	}
}
