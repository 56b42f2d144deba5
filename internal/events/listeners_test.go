package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	"github.com/rentify/service-booking/internal/platform/kafka"
	"github.com/rentify/service-booking/internal/platform/kafka/mocks"
)

func sampleEvent(t bookingDomain.EventType) bookingDomain.Event {
	actor := uuid.New()
	return bookingDomain.Event{
		Type:              t,
		BookingID:         uuid.New(),
		ItemID:            uuid.New(),
		RenterID:          actor,
		OwnerID:           uuid.New(),
		Status:            bookingDomain.StatusConfirmed,
		StartDate:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		TotalPrice:        decimal.RequireFromString("300"),
		RequiresLogistics: true,
		ActorID:           &actor,
	}
}

func TestNotificationListener_PublishesEveryEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	e := sampleEvent(bookingDomain.EventExtended)
	e.ExtendedDays = 2
	e.PreviousEndDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	pub.EXPECT().
		PublishEvent(gomock.Any(), TopicBookingEvents, e.BookingID.String(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, ce kafka.CloudEvent) error {
			assert.Equal(t, string(bookingDomain.EventExtended), ce.Type)
			assert.Equal(t, Source, ce.Source)

			var data BookingEventData
			require.NoError(t, ce.ParseData(&data))
			assert.Equal(t, e.BookingID, data.BookingID)
			assert.Equal(t, "2026-03-12", data.EndDate)
			assert.Equal(t, "2026-03-10", data.PreviousEndDate)
			assert.Equal(t, "300.00", data.TotalPrice)
			assert.Equal(t, 2, data.ExtendedDays)
			return nil
		})

	require.NoError(t, NewNotificationListener(pub).Handle(context.Background(), e))
}

func TestBillingListener(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	l := NewBillingListener(pub, zap.NewNop())

	// Only renter_confirmed reaches billing.
	require.NoError(t, l.Handle(context.Background(), sampleEvent(bookingDomain.EventOwnerAccepted)))

	e := sampleEvent(bookingDomain.EventRenterConfirmed)
	pub.EXPECT().
		PublishEvent(gomock.Any(), TopicInvoiceRequests, e.BookingID.String(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, ce kafka.CloudEvent) error {
			assert.Equal(t, InvoiceRequested, ce.Type)
			var data InvoiceRequestData
			require.NoError(t, ce.ParseData(&data))
			assert.Equal(t, "300.00", data.Subtotal)
			assert.Equal(t, "54.00", data.Tax)
			assert.Equal(t, "15.00", data.ServiceFee)
			assert.Equal(t, "369.00", data.Total)
			return nil
		})
	require.NoError(t, l.Handle(context.Background(), e))
}

func TestBillingListener_PublishFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().PublishEvent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	err := NewBillingListener(pub, zap.NewNop()).Handle(context.Background(), sampleEvent(bookingDomain.EventRenterConfirmed))
	assert.ErrorContains(t, err, "broker down")
}

func TestReviewListener(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	l := NewReviewListener(pub)

	require.NoError(t, l.Handle(context.Background(), sampleEvent(bookingDomain.EventCancelled)))

	e := sampleEvent(bookingDomain.EventCompleted)
	pub.EXPECT().PublishEvent(gomock.Any(), TopicReviewEligible, e.BookingID.String(), gomock.Any()).Return(nil)
	require.NoError(t, l.Handle(context.Background(), e))
}

func TestLogisticsListener(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	l := NewLogisticsListener(pub)

	noDelivery := sampleEvent(bookingDomain.EventRenterConfirmed)
	noDelivery.RequiresLogistics = false
	require.NoError(t, l.Handle(context.Background(), noDelivery))

	e := sampleEvent(bookingDomain.EventRenterConfirmed)
	pub.EXPECT().
		PublishEvent(gomock.Any(), TopicLogistics, e.BookingID.String(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, ce kafka.CloudEvent) error {
			var data LogisticsRequestData
			require.NoError(t, ce.ParseData(&data))
			assert.Equal(t, "2026-03-10", data.StartDate)
			assert.Equal(t, e.OwnerID, data.OwnerID)
			return nil
		})
	require.NoError(t, l.Handle(context.Background(), e))
}
