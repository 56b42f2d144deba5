package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	"github.com/rentify/service-booking/internal/platform/kafka"
)

func publish(ctx context.Context, pub kafka.Publisher, topic, eventType string, key fmt.Stringer, data interface{}) error {
	ce, err := kafka.NewCloudEvent(Source, eventType, data)
	if err != nil {
		return err
	}
	return pub.PublishEvent(ctx, topic, key.String(), ce)
}

// NotificationListener forwards every lifecycle event to booking.events,
// where the notification collaborator picks it up.
type NotificationListener struct {
	publisher kafka.Publisher
}

// NewNotificationListener creates a new NotificationListener.
func NewNotificationListener(publisher kafka.Publisher) *NotificationListener {
	return &NotificationListener{publisher: publisher}
}

func (l *NotificationListener) Name() string { return "notification" }

// Handle publishes the event.
func (l *NotificationListener) Handle(ctx context.Context, e bookingDomain.Event) error {
	return publish(ctx, l.publisher, TopicBookingEvents, string(e.Type), e.BookingID, bookingPayload(e))
}

// BillingListener offers a confirmed booking to billing with a quote.
type BillingListener struct {
	publisher kafka.Publisher
	logger    *zap.Logger
}

// NewBillingListener creates a new BillingListener.
func NewBillingListener(publisher kafka.Publisher, logger *zap.Logger) *BillingListener {
	return &BillingListener{publisher: publisher, logger: logger}
}

func (l *BillingListener) Name() string { return "billing" }

// Handle requests an invoice on renter_confirmed.
func (l *BillingListener) Handle(ctx context.Context, e bookingDomain.Event) error {
	if e.Type != bookingDomain.EventRenterConfirmed {
		return nil
	}

	quote := bookingDomain.NewBillingQuote(e.TotalPrice)
	data := InvoiceRequestData{
		BookingID:  e.BookingID,
		RenterID:   e.RenterID,
		Subtotal:   bookingDomain.FormatAmount(quote.Subtotal),
		Tax:        bookingDomain.FormatAmount(quote.Tax),
		ServiceFee: bookingDomain.FormatAmount(quote.ServiceFee),
		Total:      bookingDomain.FormatAmount(quote.Total),
	}
	if err := publish(ctx, l.publisher, TopicInvoiceRequests, InvoiceRequested, e.BookingID, data); err != nil {
		return fmt.Errorf("failed to request invoice: %w", err)
	}

	l.logger.Info("invoice requested",
		zap.String("booking_id", e.BookingID.String()),
		zap.String("total", data.Total),
	)
	return nil
}

// ReviewListener marks completed bookings as reviewable.
type ReviewListener struct {
	publisher kafka.Publisher
}

// NewReviewListener creates a new ReviewListener.
func NewReviewListener(publisher kafka.Publisher) *ReviewListener {
	return &ReviewListener{publisher: publisher}
}

func (l *ReviewListener) Name() string { return "review" }

// Handle publishes review eligibility on completed.
func (l *ReviewListener) Handle(ctx context.Context, e bookingDomain.Event) error {
	if e.Type != bookingDomain.EventCompleted {
		return nil
	}
	return publish(ctx, l.publisher, TopicReviewEligible, ReviewEligible, e.BookingID, ReviewEligibilityData{
		BookingID: e.BookingID,
		ItemID:    e.ItemID,
		RenterID:  e.RenterID,
		OwnerID:   e.OwnerID,
	})
}

// LogisticsListener notifies the logistics partner when a confirmed booking
// asked for third-party delivery.
type LogisticsListener struct {
	publisher kafka.Publisher
}

// NewLogisticsListener creates a new LogisticsListener.
func NewLogisticsListener(publisher kafka.Publisher) *LogisticsListener {
	return &LogisticsListener{publisher: publisher}
}

func (l *LogisticsListener) Name() string { return "logistics" }

// Handle publishes a logistics request on renter_confirmed with the third-party flag set.
func (l *LogisticsListener) Handle(ctx context.Context, e bookingDomain.Event) error {
	if e.Type != bookingDomain.EventRenterConfirmed || !e.RequiresLogistics {
		return nil
	}
	return publish(ctx, l.publisher, TopicLogistics, LogisticsRequested, e.BookingID, LogisticsRequestData{
		BookingID: e.BookingID,
		ItemID:    e.ItemID,
		RenterID:  e.RenterID,
		OwnerID:   e.OwnerID,
		StartDate: e.StartDate.Format(bookingDomain.DateLayout),
		EndDate:   e.EndDate.Format(bookingDomain.DateLayout),
	})
}
