package application_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentify/service-booking/internal/application"
	"github.com/rentify/service-booking/internal/platform/apperror"
	"github.com/rentify/service-booking/internal/repository/memory"
)

func TestItemService_UpsertFromCatalog(t *testing.T) {
	store := memory.NewStore()
	svc := application.NewItemService(store.Items(), zap.NewNop())
	ctx := context.Background()

	rec := application.CatalogItem{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		Title:         "Pressure washer",
		PricePerDay:   "18.5",
		MinRentalDays: 1,
		MaxRentalDays: 7,
	}
	require.NoError(t, svc.UpsertFromCatalog(ctx, rec))

	got, err := svc.GetItem(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "18.50", got.PricePerDay)
	assert.Equal(t, "AVAILABLE", got.AdministrativeStatus)
	assert.Equal(t, 7, got.MaxRentalDays)

	rec.Title = "Pressure washer XL"
	require.NoError(t, svc.UpsertFromCatalog(ctx, rec))
	got, err = svc.GetItem(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pressure washer XL", got.Title)
}

func TestItemService_RejectsBadRecords(t *testing.T) {
	svc := application.NewItemService(memory.NewStore().Items(), zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name string
		rec  application.CatalogItem
	}{
		{"bad price", application.CatalogItem{ID: uuid.New(), OwnerID: uuid.New(), PricePerDay: "ten"}},
		{"negative price", application.CatalogItem{ID: uuid.New(), OwnerID: uuid.New(), PricePerDay: "-1"}},
		{"missing owner", application.CatalogItem{ID: uuid.New(), PricePerDay: "1"}},
		{"min above max", application.CatalogItem{ID: uuid.New(), OwnerID: uuid.New(), PricePerDay: "1", MinRentalDays: 5, MaxRentalDays: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpsertFromCatalog(ctx, tt.rec)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}

	_, err := svc.GetItem(ctx, uuid.New())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
