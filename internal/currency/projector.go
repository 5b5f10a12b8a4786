// Package currency projects USD amounts into a tenant's billing currency at a
// captured exchange rate. The rate is stored verbatim; only the projected
// amounts are rounded.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
	"github.com/tallyworks/licensing-backend/pkg/money"
)

// AmountsUSD is the USD side of a projection.
type AmountsUSD struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// AmountsLocal is the projected local-currency side.
type AmountsLocal struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Project converts each USD amount via round2(usd * rate). Every produced pair
// must satisfy |local - usd*rate| <= 0.01; drift beyond that rejects the record
// rather than correcting it.
func Project(usd AmountsUSD, currencyCode string, rate decimal.Decimal) (AmountsLocal, error) {
	if !money.ValidCurrencyCode(currencyCode) {
		return AmountsLocal{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("billing currency code %q is not an uppercase 3-letter ISO-4217 code", currencyCode))
	}
	if !money.ValidRate(rate) {
		return AmountsLocal{}, pkgerrors.New(pkgerrors.CodeValidation,
			"exchange rate must be positive with at most 6 decimal places")
	}

	local := AmountsLocal{
		Subtotal: money.Round2(usd.Subtotal.Mul(rate)),
		Tax:      money.Round2(usd.Tax.Mul(rate)),
		Total:    money.Round2(usd.Total.Mul(rate)),
	}

	pairs := []struct {
		field string
		usd   decimal.Decimal
		local decimal.Decimal
	}{
		{"subtotal_local", usd.Subtotal, local.Subtotal},
		{"tax_amount_local", usd.Tax, local.Tax},
		{"total_amount_local", usd.Total, local.Total},
	}
	for _, pair := range pairs {
		expected := pair.usd.Mul(rate)
		if !money.WithinTolerance(pair.local, expected) {
			return AmountsLocal{}, pkgerrors.AmountConsistency(pair.field, expected.String(), pair.local.String())
		}
	}

	return local, nil
}
