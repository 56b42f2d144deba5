package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentify/service-booking/internal/domain/availability"
	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	itemDomain "github.com/rentify/service-booking/internal/domain/item"
	"github.com/rentify/service-booking/internal/platform/metrics"
)

// AvailabilityService answers availability queries and reconciles item flags.
type AvailabilityService struct {
	uow      bookingDomain.UnitOfWork
	items    itemDomain.ItemRepository
	bookings bookingDomain.BookingRepository
	today    func() time.Time
	logger   *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService. today supplies
// the current calendar day, normally BookingService.Today.
func NewAvailabilityService(
	uow bookingDomain.UnitOfWork,
	items itemDomain.ItemRepository,
	bookings bookingDomain.BookingRepository,
	today func() time.Time,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{uow: uow, items: items, bookings: bookings, today: today, logger: logger}
}

// IsAvailableNow reports whether the item can be picked up today. When the
// booking lookup fails it falls back to the administrative flag alone and
// marks the answer as degraded.
func (s *AvailabilityService) IsAvailableNow(ctx context.Context, itemID uuid.UUID) (*AvailabilityDTO, error) {
	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	result := &AvailabilityDTO{ItemID: it.ID(), AdministrativeStatus: it.Status().String()}

	active, err := s.bookings.ActiveBookingsForItem(ctx, itemID)
	if err != nil {
		metrics.AvailabilityFallbacksTotal.Inc()
		s.logger.Warn("booking lookup failed, answering from administrative flag",
			zap.String("item_id", itemID.String()),
			zap.Error(err),
		)
		result.AvailableNow = it.Status() == itemDomain.StatusAvailable
		result.Degraded = true
		return result, nil
	}

	result.AvailableNow = availability.IsAvailableNow(it, active, s.today())
	return result, nil
}

// CheckRange reports whether a request for the given dates would pass the
// creation checks. Unlike IsAvailableNow it never falls back.
func (s *AvailabilityService) CheckRange(ctx context.Context, itemID uuid.UUID, start, end string) (*RangeAvailabilityDTO, error) {
	dates, err := bookingDomain.ParseDateRange(start, end)
	if err != nil {
		return nil, err
	}
	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	active, err := s.bookings.ActiveBookingsForItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active bookings: %w", err)
	}

	return &RangeAvailabilityDTO{
		ItemID:    itemID,
		StartDate: dates.Start().Format(bookingDomain.DateLayout),
		EndDate:   dates.End().Format(bookingDomain.DateLayout),
		Available: availability.IsAvailableFor(it, active, dates) && it.CheckRentalDays(dates.Days()) == nil,
	}, nil
}

// Reconcile recomputes the administrative flag of the given items, or of
// every item when none are given. Each item is handled in its own unit of
// work; a failure is reported on the item and does not stop the others.
func (s *AvailabilityService) Reconcile(ctx context.Context, itemIDs []uuid.UUID) ([]ReconcileResultDTO, error) {
	if len(itemIDs) == 0 {
		ids, err := s.items.ListIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list items: %w", err)
		}
		itemIDs = ids
	}

	results := make([]ReconcileResultDTO, 0, len(itemIDs))
	for _, id := range itemIDs {
		res := ReconcileResultDTO{ItemID: id}
		err := s.uow.WithItemLock(ctx, id, func(ctx context.Context, tx bookingDomain.TxRepository, it *itemDomain.Item) error {
			res.From = it.Status().String()
			active, err := tx.ActiveBookingsForItem(ctx, id)
			if err != nil {
				return err
			}
			if availability.Reconcile(it, active) {
				res.Changed = true
				if err := tx.UpdateItemStatus(ctx, it); err != nil {
					return err
				}
			}
			res.To = it.Status().String()
			return nil
		})
		if err != nil {
			res.Changed = false
			res.Error = err.Error()
			s.logger.Error("failed to reconcile item", zap.String("item_id", id.String()), zap.Error(err))
		} else if res.Changed {
			s.logger.Info("item flag reconciled",
				zap.String("item_id", id.String()),
				zap.String("from", res.From),
				zap.String("to", res.To),
			)
		}
		results = append(results, res)
	}
	return results, nil
}
