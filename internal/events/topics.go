// Package events connects the booking core to Kafka: outbound listeners for
// lifecycle events and the inbound catalog feed.
package events

import (
	"github.com/google/uuid"

	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
)

// Source is the CloudEvents source of everything this service publishes.
const Source = "rental-booking"

const (
	TopicBookingEvents   = "booking.events"
	TopicInvoiceRequests = "billing.invoice_requests"
	TopicReviewEligible  = "review.eligibility"
	TopicLogistics       = "logistics.requests"
	TopicCatalogItems    = "catalog.items"
)

const (
	InvoiceRequested    = "billing.invoice_requested"
	ReviewEligible      = "review.eligible"
	LogisticsRequested  = "logistics.requested"
	CatalogItemUpserted = "item.upserted"
)

// BookingEventData is the payload of every booking.* event.
type BookingEventData struct {
	BookingID          uuid.UUID  `json:"booking_id"`
	ItemID             uuid.UUID  `json:"item_id"`
	RenterID           uuid.UUID  `json:"renter_id"`
	OwnerID            uuid.UUID  `json:"owner_id"`
	Status             string     `json:"status"`
	StartDate          string     `json:"start_date"`
	EndDate            string     `json:"end_date"`
	TotalPrice         string     `json:"total_price"`
	ThirdPartyRequired bool       `json:"third_party_required"`
	ActorID            *uuid.UUID `json:"actor_id"`
	Reason             string     `json:"reason,omitempty"`
	ExtendedDays       int        `json:"extended_days,omitempty"`
	PreviousEndDate    string     `json:"previous_end_date,omitempty"`
	LogisticsProvider  string     `json:"logistics_provider,omitempty"`
	LogisticsDetails   string     `json:"logistics_details,omitempty"`
}

// InvoiceRequestData offers a confirmed booking to billing.
type InvoiceRequestData struct {
	BookingID  uuid.UUID `json:"booking_id"`
	RenterID   uuid.UUID `json:"renter_id"`
	Subtotal   string    `json:"subtotal"`
	Tax        string    `json:"tax"`
	ServiceFee string    `json:"service_fee"`
	Total      string    `json:"total"`
}

// ReviewEligibilityData marks a completed booking as reviewable by both parties.
type ReviewEligibilityData struct {
	BookingID uuid.UUID `json:"booking_id"`
	ItemID    uuid.UUID `json:"item_id"`
	RenterID  uuid.UUID `json:"renter_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
}

// LogisticsRequestData asks the logistics partner to plan pickup and drop.
type LogisticsRequestData struct {
	BookingID uuid.UUID `json:"booking_id"`
	ItemID    uuid.UUID `json:"item_id"`
	RenterID  uuid.UUID `json:"renter_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
}

func bookingPayload(e bookingDomain.Event) BookingEventData {
	data := BookingEventData{
		BookingID:          e.BookingID,
		ItemID:             e.ItemID,
		RenterID:           e.RenterID,
		OwnerID:            e.OwnerID,
		Status:             e.Status.String(),
		StartDate:          e.StartDate.Format(bookingDomain.DateLayout),
		EndDate:            e.EndDate.Format(bookingDomain.DateLayout),
		TotalPrice:         bookingDomain.FormatAmount(e.TotalPrice),
		ThirdPartyRequired: e.RequiresLogistics,
		ActorID:            e.ActorID,
		Reason:             e.Reason,
		ExtendedDays:       e.ExtendedDays,
		LogisticsProvider:  e.LogisticsProvider,
		LogisticsDetails:   e.LogisticsDetails,
	}
	if !e.PreviousEndDate.IsZero() {
		data.PreviousEndDate = e.PreviousEndDate.Format(bookingDomain.DateLayout)
	}
	return data
}
