package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	itemDomain "github.com/rentify/service-booking/internal/domain/item"
)

// ItemModel is the GORM model for the items table.
type ItemModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID            uuid.UUID       `gorm:"type:uuid;index;not null"`
	Title              string          `gorm:"not null;size:200"`
	PricePerDay        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	AvailabilityStatus string          `gorm:"not null;size:20;default:'AVAILABLE'"`
	MinRentalDays      int             `gorm:"not null;default:0"`
	MaxRentalDays      int             `gorm:"not null;default:0"`
	Version            int64           `gorm:"not null;default:1"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ItemModel) TableName() string {
	return "items"
}

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ItemID              uuid.UUID       `gorm:"type:uuid;index;not null"`
	RenterID            uuid.UUID       `gorm:"type:uuid;index;not null"`
	OwnerID             uuid.UUID       `gorm:"type:uuid;index;not null"`
	Status              string          `gorm:"not null;size:30;index"`
	StartDate           time.Time       `gorm:"type:date;not null"`
	EndDate             time.Time       `gorm:"type:date;not null"`
	TotalPrice          decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	ThirdPartyLogistics bool            `gorm:"not null;default:false"`
	RenterNote          string          `gorm:"type:text"`
	OwnerNote           string          `gorm:"type:text"`
	CancelReason        string          `gorm:"type:text"`
	CancelledAt         *time.Time      `gorm:""`
	CompletedAt         *time.Time      `gorm:""`
	Version             int64           `gorm:"not null;default:1"`
	CreatedAt           time.Time       `gorm:"not null"`
	UpdatedAt           time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// HistoryModel is the GORM model for the booking_history table. Seq breaks
// ties between entries written in the same instant.
type HistoryModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Seq            int64      `gorm:"autoIncrement;not null"`
	BookingID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	PreviousStatus string     `gorm:"not null;size:30"`
	NewStatus      string     `gorm:"not null;size:30"`
	ChangedBy      *uuid.UUID `gorm:"type:uuid"`
	Note           string     `gorm:"type:text"`
	CreatedAt      time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (HistoryModel) TableName() string {
	return "booking_history"
}

// --- Conversion Helpers ---

func toItemModel(it *itemDomain.Item) *ItemModel {
	return &ItemModel{
		ID:                 it.ID(),
		OwnerID:            it.OwnerID(),
		Title:              it.Title(),
		PricePerDay:        it.PricePerDay(),
		AvailabilityStatus: it.Status().String(),
		MinRentalDays:      it.MinRentalDays(),
		MaxRentalDays:      it.MaxRentalDays(),
		Version:            it.Version(),
		CreatedAt:          it.CreatedAt(),
		UpdatedAt:          it.UpdatedAt(),
	}
}

func toDomainItem(m *ItemModel) (*itemDomain.Item, error) {
	status, err := itemDomain.ParseAvailabilityStatus(m.AvailabilityStatus)
	if err != nil {
		return nil, err
	}
	return itemDomain.ReconstructItem(
		m.ID,
		m.OwnerID,
		m.Title,
		m.PricePerDay,
		status,
		m.MinRentalDays,
		m.MaxRentalDays,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:                  bk.ID(),
		ItemID:              bk.ItemID(),
		RenterID:            bk.RenterID(),
		OwnerID:             bk.OwnerID(),
		Status:              bk.Status().String(),
		StartDate:           bk.Dates().Start(),
		EndDate:             bk.Dates().End(),
		TotalPrice:          bk.TotalPrice(),
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	dates, err := bookingDomain.NewDateRange(bookingDomain.DateOf(m.StartDate), bookingDomain.DateOf(m.EndDate))
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(bookingDomain.ReconstructBookingParams{
		ID:                m.ID,
		ItemID:            m.ItemID,
		RenterID:          m.RenterID,
		OwnerID:           m.OwnerID,
		Status:            status,
		Dates:             dates,
		TotalPrice:        m.TotalPrice,
		RequiresLogistics: m.ThirdPartyLogistics,
		RenterNote:        m.RenterNote,
		OwnerNote:         m.OwnerNote,
		CancelReason:      m.CancelReason,
		CancelledAt:       m.CancelledAt,
		CompletedAt:       m.CompletedAt,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

func toHistoryModel(h *bookingDomain.HistoryEntry) *HistoryModel {
	return &HistoryModel{
		ID:             h.ID(),
		BookingID:      h.BookingID(),
		PreviousStatus: h.PreviousStatus().String(),
		NewStatus:      h.NewStatus().String(),
		ChangedBy:      h.ActorID(),
		Note:           h.Note(),
		CreatedAt:      h.CreatedAt(),
	}
}

func toDomainHistory(m *HistoryModel) (*bookingDomain.HistoryEntry, error) {
	prev, err := bookingDomain.ParseStatus(m.PreviousStatus)
	if err != nil {
		return nil, err
	}
	next, err := bookingDomain.ParseStatus(m.NewStatus)
	if err != nil {
		return nil, err
	}
	return bookingDomain.ReconstructHistoryEntry(m.ID, m.BookingID, prev, next, m.ChangedBy, m.Note, m.CreatedAt), nil
}
