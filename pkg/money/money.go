// Package money holds the decimal conventions shared by every billing record:
// amounts carry 2 fractional digits, exchange rates 6, tax rates 4, and any
// independently re-derived amount must agree with its stored counterpart
// within one cent.
package money

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// ToleranceCents is the maximum permitted drift between a stored amount and
// its re-derived counterpart.
var ToleranceCents = decimal.NewFromFloat(0.01)

const (
	AmountScale  = 2
	TaxRateScale = 4
	RateScale    = 6
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Round2 rounds half-up to 2 fractional digits.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// WithinTolerance reports whether |a - b| <= 0.01.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(ToleranceCents)
}

// HasMaxScale reports whether d carries at most `scale` fractional digits.
func HasMaxScale(d decimal.Decimal, scale int) bool {
	return d.Equal(d.Round(int32(scale)))
}

// ValidCurrencyCode reports whether code is an uppercase 3-letter ISO-4217 code.
func ValidCurrencyCode(code string) bool {
	return currencyCodeRe.MatchString(code)
}

// ValidRate reports whether rate is positive with at most 6 fractional digits.
func ValidRate(rate decimal.Decimal) bool {
	return rate.IsPositive() && HasMaxScale(rate, RateScale)
}

// ValidTaxRate reports whether rate is a fraction in [0,1] with at most 4
// fractional digits.
func ValidTaxRate(rate decimal.Decimal) bool {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return false
	}
	return HasMaxScale(rate, TaxRateScale)
}

// Amount formats d with exactly 2 fractional digits for the wire.
func Amount(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}

// Rate formats d with exactly 6 fractional digits for the wire.
func Rate(d decimal.Decimal) string {
	return d.StringFixed(RateScale)
}
