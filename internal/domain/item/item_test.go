package item

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentify/service-booking/internal/platform/apperror"
)

func TestNewItem(t *testing.T) {
	it, err := NewItem(uuid.New(), uuid.New(), "Tent", decimal.NewFromInt(250), 2, 14)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, it.Status())
	assert.True(t, it.AcceptsBookings())

	_, err = NewItem(uuid.New(), uuid.New(), "Tent", decimal.NewFromInt(250), 5, 2)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = NewItem(uuid.New(), uuid.Nil, "Tent", decimal.NewFromInt(250), 0, 0)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestCheckRentalDays(t *testing.T) {
	it, err := NewItem(uuid.New(), uuid.New(), "Kayak", decimal.NewFromInt(50), 2, 7)
	require.NoError(t, err)

	assert.Equal(t, apperror.KindInvariantViolation, apperror.KindOf(it.CheckRentalDays(1)))
	assert.NoError(t, it.CheckRentalDays(2))
	assert.NoError(t, it.CheckRentalDays(7))
	assert.Equal(t, apperror.KindInvariantViolation, apperror.KindOf(it.CheckRentalDays(8)))

	unbounded, err := NewItem(uuid.New(), uuid.New(), "Kayak", decimal.NewFromInt(50), 0, 0)
	require.NoError(t, err)
	assert.NoError(t, unbounded.CheckRentalDays(365))
}

func TestReleaseKeepsAdministrativeHolds(t *testing.T) {
	it, err := NewItem(uuid.New(), uuid.New(), "Drill", decimal.NewFromInt(10), 0, 0)
	require.NoError(t, err)

	assert.False(t, it.Release(), "available stays available")
	assert.True(t, it.MarkRented())
	assert.False(t, it.MarkRented())
	assert.True(t, it.Release())
	assert.Equal(t, StatusAvailable, it.Status())

	held := ReconstructItem(it.ID(), it.OwnerID(), "Drill", it.PricePerDay(), StatusMaintenance, 0, 0, 1, it.CreatedAt(), it.UpdatedAt())
	assert.False(t, held.Release())
	assert.Equal(t, StatusMaintenance, held.Status())
	assert.False(t, held.AcceptsBookings())
}

func TestParseAvailabilityStatus(t *testing.T) {
	s, err := ParseAvailabilityStatus("RENTED")
	require.NoError(t, err)
	assert.Equal(t, StatusRented, s)

	_, err = ParseAvailabilityStatus("rented")
	assert.Error(t, err)
}
