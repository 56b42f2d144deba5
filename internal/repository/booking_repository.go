package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	itemDomain "github.com/rentify/service-booking/internal/domain/item"
	"github.com/rentify/service-booking/internal/platform/apperror"
)

func activeStatuses() []string {
	out := make([]string, len(bookingDomain.ActiveStatuses))
	for i, s := range bookingDomain.ActiveStatuses {
		out[i] = s.String()
	}
	return out
}

// GormBookingRepository is the GORM-based implementation of BookingRepository and UnitOfWork.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return findBooking(r.db.WithContext(ctx), id)
}

// FindByParticipant retrieves bookings where the user is renter or owner.
func (r *GormBookingRepository) FindByParticipant(ctx context.Context, userID uuid.UUID, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("renter_id = ? OR owner_id = ?", userID, userID)
		if filter.ItemID != nil {
			db = db.Where("item_id = ?", *filter.ItemID)
		}
		if filter.Status != nil {
			db = db.Where("status = ?", filter.Status.String())
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count participant bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find participant bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// FindExpired returns CONFIRMED bookings whose end date is before today.
func (r *GormBookingRepository) FindExpired(ctx context.Context, today time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", bookingDomain.StatusConfirmed.String(), today).
		Order("end_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find expired bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindConfirmedEndingOn returns CONFIRMED bookings whose end date is day.
func (r *GormBookingRepository) FindConfirmedEndingOn(ctx context.Context, day time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_date = ?", bookingDomain.StatusConfirmed.String(), day).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings ending on %s: %w", day.Format(bookingDomain.DateLayout), err)
	}
	return toDomainBookings(models)
}

// ActiveBookingsForItem returns the active bookings of an item.
func (r *GormBookingRepository) ActiveBookingsForItem(ctx context.Context, itemID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return activeForItem(r.db.WithContext(ctx), itemID)
}

// History returns the ledger of one booking.
func (r *GormBookingRepository) History(ctx context.Context, bookingID uuid.UUID, order bookingDomain.HistoryOrder) ([]*bookingDomain.HistoryEntry, error) {
	direction := "DESC"
	if order == bookingDomain.OrderChronological {
		direction = "ASC"
	}

	var models []HistoryModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at " + direction).
		Order("seq " + direction).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load booking history: %w", err)
	}

	entries := make([]*bookingDomain.HistoryEntry, len(models))
	for i := range models {
		h, err := toDomainHistory(&models[i])
		if err != nil {
			return nil, err
		}
		entries[i] = h
	}
	return entries, nil
}

// WithItemLock opens a transaction, locks the item row with SELECT ... FOR
// UPDATE and runs fn. Concurrent units of work on the same item queue on the
// row lock until this one commits or rolls back.
func (r *GormBookingRepository) WithItemLock(ctx context.Context, itemID uuid.UUID, fn bookingDomain.TxFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ItemModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NewNotFound("item", itemID.String())
			}
			return fmt.Errorf("failed to lock item: %w", err)
		}

		it, err := toDomainItem(&model)
		if err != nil {
			return err
		}
		return fn(ctx, &gormTx{db: tx}, it)
	})
}

// gormTx is the TxRepository bound to one open transaction.
type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) ActiveBookingsForItem(ctx context.Context, itemID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return activeForItem(t.db.WithContext(ctx), itemID)
}

func (t *gormTx) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return findBooking(t.db.WithContext(ctx), id)
}

func (t *gormTx) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := t.db.WithContext(ctx).Create(toBookingModel(bk)).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (t *gormTx) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := bk.Version() - 1
	result := t.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"end_date":      model.EndDate,
			"total_price":   model.TotalPrice,
			"owner_note":    model.OwnerNote,
			"cancel_reason": model.CancelReason,
			"cancelled_at":  model.CancelledAt,
			"completed_at":  model.CompletedAt,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NewConflict("booking was modified by another transaction")
	}
	return nil
}

func (t *gormTx) Delete(ctx context.Context, id uuid.UUID) error {
	db := t.db.WithContext(ctx)
	if err := db.Where("booking_id = ?", id).Delete(&HistoryModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete booking history: %w", err)
	}
	result := db.Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NewNotFound("booking", id.String())
	}
	return nil
}

func (t *gormTx) UpdateItemStatus(ctx context.Context, it *itemDomain.Item) error {
	it.IncrementVersion()
	if err := t.db.WithContext(ctx).
		Model(&ItemModel{}).
		Where("id = ?", it.ID()).
		Updates(map[string]interface{}{
			"availability_status": it.Status().String(),
			"version":             it.Version(),
			"updated_at":          it.UpdatedAt(),
		}).Error; err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}
	return nil
}

func (t *gormTx) AppendHistory(ctx context.Context, entry *bookingDomain.HistoryEntry) error {
	if err := t.db.WithContext(ctx).Omit("Seq").Create(toHistoryModel(entry)).Error; err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func findBooking(db *gorm.DB, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

func activeForItem(db *gorm.DB, itemID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := db.
		Where("item_id = ? AND status IN ?", itemID, activeStatuses()).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}
	return toDomainBookings(models)
}
