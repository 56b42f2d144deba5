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
	"github.com/rentify/service-booking/internal/platform/apperror"
	"github.com/rentify/service-booking/internal/platform/metrics"
)

// Clock returns the current instant.
type Clock func() time.Time

// BookingServiceConfig holds policy switches for the booking lifecycle.
type BookingServiceConfig struct {
	// StrictExtendValidation rejects extensions that run into another active booking.
	StrictExtendValidation bool
	// Location decides which calendar day "today" is.
	Location *time.Location
	Clock    Clock
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	uow        bookingDomain.UnitOfWork
	repo       bookingDomain.BookingRepository
	pricing    bookingDomain.PricingStrategy
	dispatcher *Dispatcher
	cfg        BookingServiceConfig
	logger     *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	uow bookingDomain.UnitOfWork,
	repo bookingDomain.BookingRepository,
	pricing bookingDomain.PricingStrategy,
	dispatcher *Dispatcher,
	cfg BookingServiceConfig,
	logger *zap.Logger,
) *BookingService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &BookingService{
		uow:        uow,
		repo:       repo,
		pricing:    pricing,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Today returns the current calendar day in the configured location.
func (s *BookingService) Today() time.Time {
	return bookingDomain.DateOf(s.cfg.Clock().In(s.cfg.Location))
}

// CreateBooking requests a booking of an item for the caller.
func (s *BookingService) CreateBooking(ctx context.Context, renterID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	dates, err := bookingDomain.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, s.reject(bookingDomain.ActionCreate, err)
	}

	var bk *bookingDomain.Booking
	err = s.uow.WithItemLock(ctx, req.ItemID, func(ctx context.Context, tx bookingDomain.TxRepository, it *itemDomain.Item) error {
		if !it.AcceptsBookings() {
			return apperror.NewInvariantViolation(fmt.Sprintf("item is %s and cannot be booked", it.Status()))
		}

		created, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
			ItemID:            it.ID(),
			OwnerID:           it.OwnerID(),
			RenterID:          renterID,
			Dates:             dates,
			PricePerDay:       it.PricePerDay(),
			RequiresLogistics: req.ThirdPartyLogistics,
			RenterNote:        req.RenterNote,
		}, s.pricing)
		if err != nil {
			return err
		}
		if err := it.CheckRentalDays(dates.Days()); err != nil {
			return err
		}

		active, err := tx.ActiveBookingsForItem(ctx, it.ID())
		if err != nil {
			return fmt.Errorf("failed to load active bookings: %w", err)
		}
		if availability.HasOverlap(active, dates, nil) {
			return apperror.NewOverlapConflict()
		}

		if err := tx.Save(ctx, created); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		bk = created
		return nil
	})
	if err != nil {
		return nil, s.reject(bookingDomain.ActionCreate, err)
	}

	s.logger.Info("booking requested",
		zap.String("booking_id", bk.ID().String()),
		zap.String("item_id", bk.ItemID().String()),
		zap.String("dates", bk.Dates().String()),
	)
	metrics.BookingTransitionsTotal.WithLabelValues(string(bookingDomain.ActionCreate), bk.Status().String()).Inc()
	s.dispatcher.Dispatch(ctx, bookingDomain.NewEvent(bookingDomain.EventRequested, bk, &renterID))

	result := toBookingDTO(bk)
	return &result, nil
}

// OwnerAccept accepts a pending request. The range is re-checked against the
// item's other active bookings since several overlapping requests may be pending.
func (s *BookingService) OwnerAccept(ctx context.Context, bookingID, ownerID uuid.UUID, note string) (*BookingDTO, error) {
	return s.transition(ctx, bookingDomain.ActionOwnerAccept, bookingID,
		func(bk *bookingDomain.Booking, _ *itemDomain.Item, active []*bookingDomain.Booking) (bookingDomain.Transition, error) {
			tr, err := bk.OwnerAccept(ownerID, note)
			if err != nil {
				return tr, err
			}
			id := bk.ID()
			if availability.HasOverlap(active, bk.Dates(), &id) {
				return tr, apperror.NewOverlapConflict()
			}
			return tr, nil
		})
}

// RenterConfirm confirms an accepted booking.
func (s *BookingService) RenterConfirm(ctx context.Context, bookingID, renterID uuid.UUID, note string) (*BookingDTO, error) {
	return s.transition(ctx, bookingDomain.ActionRenterConfirm, bookingID,
		func(bk *bookingDomain.Booking, _ *itemDomain.Item, _ []*bookingDomain.Booking) (bookingDomain.Transition, error) {
			return bk.RenterConfirm(renterID, note)
		})
}

// Cancel cancels a non-terminal booking on behalf of its renter or owner.
func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID uuid.UUID, reason string) (*BookingDTO, error) {
	return s.transition(ctx, bookingDomain.ActionCancel, bookingID,
		func(bk *bookingDomain.Booking, _ *itemDomain.Item, _ []*bookingDomain.Booking) (bookingDomain.Transition, error) {
			return bk.Cancel(actorID, reason)
		})
}

// Return records the renter handing the item back.
func (s *BookingService) Return(ctx context.Context, bookingID, renterID uuid.UUID, note string) (*BookingDTO, error) {
	return s.transition(ctx, bookingDomain.ActionReturn, bookingID,
		func(bk *bookingDomain.Booking, _ *itemDomain.Item, _ []*bookingDomain.Booking) (bookingDomain.Transition, error) {
			return bk.Return(renterID, note)
		})
}

// Complete records the owner closing the rental.
func (s *BookingService) Complete(ctx context.Context, bookingID, ownerID uuid.UUID, note string) (*BookingDTO, error) {
	return s.transition(ctx, bookingDomain.ActionComplete, bookingID,
		func(bk *bookingDomain.Booking, _ *itemDomain.Item, _ []*bookingDomain.Booking) (bookingDomain.Transition, error) {
			return bk.Complete(ownerID, note)
		})
}

// Extend pushes a confirmed booking's end date out by days.
func (s *BookingService) Extend(ctx context.Context, bookingID, actorID uuid.UUID, days int) (*BookingDTO, error) {
	overlapped := false
	dto, err := s.transition(ctx, bookingDomain.ActionExtend, bookingID,
		func(bk *bookingDomain.Booking, it *itemDomain.Item, active []*bookingDomain.Booking) (bookingDomain.Transition, error) {
			tr, err := bk.Extend(actorID, days, it.PricePerDay(), s.pricing)
			if err != nil {
				return tr, err
			}
			id := bk.ID()
			if availability.HasOverlap(active, bk.Dates(), &id) {
				if s.cfg.StrictExtendValidation {
					return tr, apperror.NewOverlapConflict()
				}
				overlapped = true
			}
			return tr, nil
		})
	if err != nil {
		return nil, err
	}

	if overlapped {
		metrics.ExtendOverlapsTotal.Inc()
		s.logger.Warn("extension overlaps another active booking",
			zap.String("booking_id", bookingID.String()),
			zap.String("item_id", dto.ItemID.String()),
			zap.String("end_date", dto.EndDate),
		)
	}
	return dto, nil
}

// Expire completes a confirmed booking whose end date is before today. It is
// the system-driven transition used by the sweeper and records no actor.
func (s *BookingService) Expire(ctx context.Context, bookingID uuid.UUID, today time.Time) (*BookingDTO, error) {
	return s.transition(ctx, bookingDomain.ActionExpire, bookingID,
		func(bk *bookingDomain.Booking, _ *itemDomain.Item, _ []*bookingDomain.Booking) (bookingDomain.Transition, error) {
			return bk.Expire(today)
		})
}

// AssignLogistics notes a third-party logistics provider on the booking.
func (s *BookingService) AssignLogistics(ctx context.Context, bookingID, ownerID uuid.UUID, provider, details string) (*BookingDTO, error) {
	return s.transition(ctx, bookingDomain.ActionAssignLogistics, bookingID,
		func(bk *bookingDomain.Booking, _ *itemDomain.Item, _ []*bookingDomain.Booking) (bookingDomain.Transition, error) {
			return bk.AssignLogistics(ownerID, provider, details)
		})
}

type stepFunc func(bk *bookingDomain.Booking, it *itemDomain.Item, active []*bookingDomain.Booking) (bookingDomain.Transition, error)

// transition runs one lifecycle step under the item lock: reload, validate,
// persist with a version check, recompute the item flag, append history.
// Events go out only after the unit of work committed.
func (s *BookingService) transition(ctx context.Context, action bookingDomain.Action, bookingID uuid.UUID, step stepFunc) (*BookingDTO, error) {
	current, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, s.reject(action, err)
	}

	var (
		bk *bookingDomain.Booking
		tr bookingDomain.Transition
	)
	err = s.uow.WithItemLock(ctx, current.ItemID(), func(ctx context.Context, tx bookingDomain.TxRepository, it *itemDomain.Item) error {
		locked, err := tx.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		active, err := tx.ActiveBookingsForItem(ctx, it.ID())
		if err != nil {
			return fmt.Errorf("failed to load active bookings: %w", err)
		}

		tr, err = step(locked, it, active)
		if err != nil {
			return err
		}

		locked.IncrementVersion()
		if err := tx.Update(ctx, locked); err != nil {
			return err
		}

		if settleItem(action, locked, it, active) {
			if err := tx.UpdateItemStatus(ctx, it); err != nil {
				return fmt.Errorf("failed to update item status: %w", err)
			}
		}

		if action != bookingDomain.ActionAssignLogistics {
			if err := tx.AppendHistory(ctx, bookingDomain.NewHistoryEntry(tr)); err != nil {
				return fmt.Errorf("failed to append history: %w", err)
			}
		}
		bk = locked
		return nil
	})
	if err != nil {
		return nil, s.reject(action, err)
	}

	s.logger.Info("booking transitioned",
		zap.String("booking_id", bk.ID().String()),
		zap.String("action", string(action)),
		zap.String("from", tr.From.String()),
		zap.String("to", tr.To.String()),
		zap.Bool("system", tr.ActorID == nil),
	)
	metrics.BookingTransitionsTotal.WithLabelValues(string(action), tr.To.String()).Inc()
	if e, ok := bk.EventFor(tr); ok {
		s.dispatcher.Dispatch(ctx, e)
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// settleItem applies the flag side effect of action. It reports whether the flag changed.
func settleItem(action bookingDomain.Action, bk *bookingDomain.Booking, it *itemDomain.Item, active []*bookingDomain.Booking) bool {
	switch action {
	case bookingDomain.ActionOwnerAccept, bookingDomain.ActionRenterConfirm:
		return it.MarkRented()
	case bookingDomain.ActionCancel, bookingDomain.ActionReturn, bookingDomain.ActionComplete, bookingDomain.ActionExpire:
		if availability.HasOtherActive(active, bk.ID()) {
			return false
		}
		return it.Release()
	}
	return false
}

// reject counts and passes through an error that stopped an operation.
func (s *BookingService) reject(action bookingDomain.Action, err error) error {
	kind := apperror.KindOf(err)
	metrics.BookingRejectionsTotal.WithLabelValues(string(action), string(kind)).Inc()
	if kind == apperror.KindOverlapConflict {
		metrics.OverlapConflictsTotal.WithLabelValues(string(action)).Inc()
	}
	if !apperror.IsValidation(err) && kind != apperror.KindNotFound && kind != apperror.KindConflict {
		s.logger.Error("booking operation failed", zap.String("action", string(action)), zap.Error(err))
	}
	return err
}

// --- Queries ---

// GetBooking returns a booking visible to userID. Admins see every booking.
func (s *BookingService) GetBooking(ctx context.Context, userID, bookingID uuid.UUID, isAdmin bool) (*BookingDTO, error) {
	bk, err := s.visibleBooking(ctx, userID, bookingID, isAdmin)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetHistory returns the ledger of a booking visible to userID.
func (s *BookingService) GetHistory(ctx context.Context, userID, bookingID uuid.UUID, isAdmin bool, order bookingDomain.HistoryOrder) ([]HistoryEntryDTO, error) {
	if _, err := s.visibleBooking(ctx, userID, bookingID, isAdmin); err != nil {
		return nil, err
	}
	entries, err := s.repo.History(ctx, bookingID, order)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	dtos := make([]HistoryEntryDTO, len(entries))
	for i, h := range entries {
		dtos[i] = toHistoryDTO(h)
	}
	return dtos, nil
}

func (s *BookingService) visibleBooking(ctx context.Context, userID, bookingID uuid.UUID, isAdmin bool) (*bookingDomain.Booking, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !bk.IsParticipant(userID) {
		return nil, apperror.NewForbidden("booking does not belong to this user")
	}
	return bk, nil
}

// ListForParticipant retrieves paginated bookings where userID is renter or owner.
func (s *BookingService) ListForParticipant(ctx context.Context, userID uuid.UUID, filter bookingDomain.ListFilter, page, limit int) (*PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByParticipant(ctx, userID, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	result := NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalBookings: total, ByStatus: counts}, nil
}

// DeleteBooking physically removes a booking and its history, then
// reconciles the item flag. It is an administrative escape hatch.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	err = s.uow.WithItemLock(ctx, bk.ItemID(), func(ctx context.Context, tx bookingDomain.TxRepository, it *itemDomain.Item) error {
		if err := tx.Delete(ctx, bookingID); err != nil {
			return err
		}
		remaining, err := tx.ActiveBookingsForItem(ctx, it.ID())
		if err != nil {
			return fmt.Errorf("failed to load active bookings: %w", err)
		}
		if availability.Reconcile(it, remaining) {
			return tx.UpdateItemStatus(ctx, it)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Warn("booking deleted by admin",
		zap.String("booking_id", bookingID.String()),
		zap.String("item_id", bk.ItemID().String()),
		zap.String("status", bk.Status().String()),
	)
	return nil
}
