//go:build integration

package main_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentify/service-booking/internal/application"
	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	bookingEvents "github.com/rentify/service-booking/internal/events"
	"github.com/rentify/service-booking/internal/platform/apperror"
	"github.com/rentify/service-booking/internal/repository"
)

// TestCatalogItemUpserted_CreatesItem verifies that an item.upserted event on
// catalog.items is ingested and lands AVAILABLE.
func TestCatalogItemUpserted_CreatesItem(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers, fixedClock("2026-03-01"))
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	rec := application.CatalogItem{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		Title:         "Camping tent",
		PricePerDay:   "12.50",
		MinRentalDays: 2,
	}
	publishTestEvent(t, infra.KafkaBrokers, bookingEvents.TopicCatalogItems, rec.ID.String(),
		"rental-catalog", bookingEvents.CatalogItemUpserted, rec)

	model := waitForItem(t, infra.DB, rec.ID, 15*time.Second)
	assert.Equal(t, "Camping tent", model.Title)
	assert.Equal(t, "AVAILABLE", model.AvailabilityStatus)
	assert.Equal(t, 2, model.MinRentalDays)
	assert.True(t, decimal.RequireFromString("12.50").Equal(model.PricePerDay))
}

// TestRentalLifecycle_PublishesEventsAndFlipsFlag walks a booking through
// request, accept and confirm against Postgres and Kafka.
func TestRentalLifecycle_PublishesEventsAndFlipsFlag(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers, fixedClock("2026-03-01"))
	defer stack.CleanupProducer()

	ctx := context.Background()
	ownerID, renterID := uuid.New(), uuid.New()
	itemID := seedItem(t, stack.Items, ownerID, "100.00")

	created, err := stack.Service.CreateBooking(ctx, renterID, application.CreateBookingRequest{
		ItemID:    itemID,
		StartDate: "2026-03-05",
		EndDate:   "2026-03-07",
	})
	require.NoError(t, err)
	assert.Equal(t, "300.00", created.TotalPrice)

	_, err = stack.Service.OwnerAccept(ctx, created.ID, ownerID, "see you")
	require.NoError(t, err)
	confirmed, err := stack.Service.RenterConfirm(ctx, created.ID, renterID, "")
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", confirmed.Status)

	var item repository.ItemModel
	require.NoError(t, infra.DB.Where("id = ?", itemID).First(&item).Error)
	assert.Equal(t, "RENTED", item.AvailabilityStatus)

	history, err := stack.Service.GetHistory(ctx, renterID, created.ID, false, bookingDomain.OrderChronological)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "ACCEPTED_BY_OWNER", history[0].NewStatus)
	assert.Equal(t, "CONFIRMED", history[1].NewStatus)

	ce := consumeOneEvent(t, infra.KafkaBrokers, bookingEvents.TopicBookingEvents,
		string(bookingDomain.EventRenterConfirmed), created.ID.String(), 15*time.Second)
	var payload bookingEvents.BookingEventData
	require.NoError(t, ce.ParseData(&payload))
	assert.Equal(t, itemID, payload.ItemID)
	assert.Equal(t, "2026-03-07", payload.EndDate)

	ce = consumeOneEvent(t, infra.KafkaBrokers, bookingEvents.TopicInvoiceRequests,
		bookingEvents.InvoiceRequested, created.ID.String(), 15*time.Second)
	var invoice bookingEvents.InvoiceRequestData
	require.NoError(t, ce.ParseData(&invoice))
	assert.Equal(t, "300.00", invoice.Subtotal)
	assert.Equal(t, renterID, invoice.RenterID)
}

// TestConcurrentOwnerAccept_OnlyOneOverlapWins accepts two overlapping
// pending requests at once; the row lock lets exactly one through.
func TestConcurrentOwnerAccept_OnlyOneOverlapWins(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers, fixedClock("2026-03-01"))
	defer stack.CleanupProducer()

	ctx := context.Background()
	ownerID := uuid.New()
	itemID := seedItem(t, stack.Items, ownerID, "20.00")

	first, err := stack.Service.CreateBooking(ctx, uuid.New(), application.CreateBookingRequest{
		ItemID: itemID, StartDate: "2026-04-01", EndDate: "2026-04-05",
	})
	require.NoError(t, err)
	second, err := stack.Service.CreateBooking(ctx, uuid.New(), application.CreateBookingRequest{
		ItemID: itemID, StartDate: "2026-04-03", EndDate: "2026-04-08",
	})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i, id := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = stack.Service.OwnerAccept(ctx, id, ownerID, "")
		}()
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.True(t, apperror.Is(err, apperror.KindOverlapConflict), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, failures, "exactly one accept must lose")

	var accepted int64
	require.NoError(t, infra.DB.Model(&repository.BookingModel{}).
		Where("item_id = ? AND status = ?", itemID, "ACCEPTED_BY_OWNER").
		Count(&accepted).Error)
	assert.Equal(t, int64(1), accepted)
}

// TestExpirySweep_CompletesElapsedBookings runs the sweeper against a
// confirmed booking that ended before today.
func TestExpirySweep_CompletesElapsedBookings(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers, fixedClock("2026-03-10"))
	defer stack.CleanupProducer()

	ctx := context.Background()
	ownerID, renterID := uuid.New(), uuid.New()
	itemID := seedItem(t, stack.Items, ownerID, "15.00")

	bk, err := stack.Service.CreateBooking(ctx, renterID, application.CreateBookingRequest{
		ItemID: itemID, StartDate: "2026-03-01", EndDate: "2026-03-05",
	})
	require.NoError(t, err)
	_, err = stack.Service.OwnerAccept(ctx, bk.ID, ownerID, "")
	require.NoError(t, err)
	_, err = stack.Service.RenterConfirm(ctx, bk.ID, renterID, "")
	require.NoError(t, err)

	dry, err := stack.Sweeper.Run(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bk.ID}, dry.Candidates)
	assert.Zero(t, dry.CompletedCount)

	result, err := stack.Sweeper.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CompletedCount)
	assert.Empty(t, result.Errors)

	var model repository.BookingModel
	require.NoError(t, infra.DB.Where("id = ?", bk.ID).First(&model).Error)
	assert.Equal(t, "COMPLETED", model.Status)
	assert.NotNil(t, model.CompletedAt)

	history, err := stack.Service.GetHistory(ctx, ownerID, bk.ID, false, bookingDomain.OrderNewestFirst)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "COMPLETED", history[0].NewStatus)
	assert.Nil(t, history[0].ChangedBy, "the sweep is a system actor")
	assert.Contains(t, history[0].Note, "2026-03-05")

	avail, err := stack.Availability.IsAvailableNow(ctx, itemID)
	require.NoError(t, err)
	assert.True(t, avail.AvailableNow)
	assert.Equal(t, "AVAILABLE", avail.AdministrativeStatus)

	again, err := stack.Sweeper.Run(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, again.CompletedCount)
}
