package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	itemDomain "github.com/rentify/service-booking/internal/domain/item"
	"github.com/rentify/service-booking/internal/platform/apperror"
)

// CatalogItem is the catalog's view of a listing. The booking core treats it
// as read-only input.
type CatalogItem struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Title         string    `json:"title"`
	PricePerDay   string    `json:"price_per_day"`
	MinRentalDays int       `json:"minimum_rental_days"`
	MaxRentalDays int       `json:"maximum_rental_days"`
}

// ItemDTO is the booking core's view of an item.
type ItemDTO struct {
	ID                   uuid.UUID `json:"id"`
	OwnerID              uuid.UUID `json:"owner_id"`
	Title                string    `json:"title"`
	PricePerDay          string    `json:"price_per_day"`
	AdministrativeStatus string    `json:"administrative_status"`
	MinRentalDays        int       `json:"minimum_rental_days,omitempty"`
	MaxRentalDays        int       `json:"maximum_rental_days,omitempty"`
}

// ItemService ingests catalog records.
type ItemService struct {
	repo   itemDomain.ItemRepository
	logger *zap.Logger
}

// NewItemService creates a new ItemService.
func NewItemService(repo itemDomain.ItemRepository, logger *zap.Logger) *ItemService {
	return &ItemService{repo: repo, logger: logger}
}

// UpsertFromCatalog stores a catalog record. An existing item keeps its administrative flag.
func (s *ItemService) UpsertFromCatalog(ctx context.Context, rec CatalogItem) error {
	price, err := decimal.NewFromString(rec.PricePerDay)
	if err != nil {
		return apperror.NewValidationError(fmt.Sprintf("invalid price_per_day %q", rec.PricePerDay))
	}

	it, err := itemDomain.NewItem(rec.ID, rec.OwnerID, rec.Title, price, rec.MinRentalDays, rec.MaxRentalDays)
	if err != nil {
		return err
	}
	if err := s.repo.UpsertCatalog(ctx, it); err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	s.logger.Debug("catalog item upserted", zap.String("item_id", rec.ID.String()))
	return nil
}

// GetItem returns one item.
func (s *ItemService) GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ItemDTO{
		ID:                   it.ID(),
		OwnerID:              it.OwnerID(),
		Title:                it.Title(),
		PricePerDay:          it.PricePerDay().StringFixed(2),
		AdministrativeStatus: it.Status().String(),
		MinRentalDays:        it.MinRentalDays(),
		MaxRentalDays:        it.MaxRentalDays(),
	}, nil
}
