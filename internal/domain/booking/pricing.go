package booking

import (
	"github.com/shopspring/decimal"

	"github.com/rentify/service-booking/internal/platform/apperror"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// CalculateTotal returns the full-precision total for the range.
	CalculateTotal(pricePerDay decimal.Decimal, dates DateRange) (decimal.Decimal, error)
}

// StandardPricingStrategy charges the daily rate for every day of the range, both ends included.
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// CalculateTotal computes pricePerDay * days.
func (s *StandardPricingStrategy) CalculateTotal(pricePerDay decimal.Decimal, dates DateRange) (decimal.Decimal, error) {
	if pricePerDay.IsNegative() {
		return decimal.Zero, apperror.NewValidationError("price per day cannot be negative")
	}
	if dates.IsZero() {
		return decimal.Zero, apperror.NewValidationError("date range is required")
	}
	return pricePerDay.Mul(decimal.NewFromInt(int64(dates.Days()))), nil
}

var (
	taxRate        = decimal.RequireFromString("0.18")
	serviceFeeRate = decimal.RequireFromString("0.05")
)

// BillingQuote is the amount breakdown offered to billing on confirmation.
type BillingQuote struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	ServiceFee decimal.Decimal
	Total      decimal.Decimal
}

// NewBillingQuote applies tax and the service fee to subtotal. Each part is
// rounded to cents and the total is the sum of the rounded parts.
func NewBillingQuote(subtotal decimal.Decimal) BillingQuote {
	sub := subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)
	fee := subtotal.Mul(serviceFeeRate).Round(2)
	return BillingQuote{
		Subtotal:   sub,
		Tax:        tax,
		ServiceFee: fee,
		Total:      sub.Add(tax).Add(fee),
	}
}

// FormatAmount renders an amount with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
