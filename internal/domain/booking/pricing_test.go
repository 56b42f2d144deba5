package booking

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardPricing_InclusiveDays(t *testing.T) {
	p := NewStandardPricingStrategy()

	total, err := p.CalculateTotal(decimal.NewFromInt(100), mustRange(t, "2024-01-01", "2024-01-05"))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(total), "got %s", total)

	total, err = p.CalculateTotal(decimal.RequireFromString("19.995"), mustRange(t, "2024-01-01", "2024-01-03"))
	require.NoError(t, err)
	// Full precision is kept; rounding happens only for display.
	assert.Equal(t, "59.985", total.String())
	assert.Equal(t, "59.99", FormatAmount(total))

	total, err = p.CalculateTotal(decimal.NewFromInt(100), mustRange(t, "2024-01-01", "2400-01-01"))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(13733200).Equal(total), "got %s", total)
}

func TestStandardPricing_RejectsNegativeRate(t *testing.T) {
	_, err := NewStandardPricingStrategy().CalculateTotal(decimal.NewFromInt(-1), mustRange(t, "2024-01-01", "2024-01-01"))
	assert.Error(t, err)
}

func TestNewBillingQuote(t *testing.T) {
	q := NewBillingQuote(decimal.NewFromInt(500))
	assert.Equal(t, "500.00", FormatAmount(q.Subtotal))
	assert.Equal(t, "90.00", FormatAmount(q.Tax))
	assert.Equal(t, "25.00", FormatAmount(q.ServiceFee))
	assert.Equal(t, "615.00", FormatAmount(q.Total))
}
