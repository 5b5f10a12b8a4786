// Package proration computes the partial USD charge for seats added part-way
// through a billing period.
package proration

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
	"github.com/tallyworks/licensing-backend/pkg/money"
)

var maxMonths = decimal.RequireFromString("99.99")

// Input carries the three factors of a prorated seat charge.
type Input struct {
	EmployeesAddedCount int
	MonthsRemaining     decimal.Decimal
	PricePerEmployeeUSD decimal.Decimal
}

// Subtotal computes round2(count * months * unit price). Pure; no side effects.
func Subtotal(input Input) (decimal.Decimal, error) {
	if input.EmployeesAddedCount < 1 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "employees_added_count must be at least 1")
	}
	if err := validateMonths(input.MonthsRemaining); err != nil {
		return decimal.Zero, err
	}
	if input.PricePerEmployeeUSD.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price_per_employee_usd must not be negative")
	}
	if !money.HasMaxScale(input.PricePerEmployeeUSD, money.AmountScale) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price_per_employee_usd must have at most 2 decimal places")
	}

	count := decimal.NewFromInt(int64(input.EmployeesAddedCount))
	return money.Round2(count.Mul(input.MonthsRemaining).Mul(input.PricePerEmployeeUSD)), nil
}

// BaseCharge computes the prorated base subscription charge for a period:
// round2(months * monthly base price). Used by the cycle aggregator.
func BaseCharge(basePriceUSD decimal.Decimal, months decimal.Decimal) (decimal.Decimal, error) {
	if basePriceUSD.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative")
	}
	if !money.HasMaxScale(basePriceUSD, money.AmountScale) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "base price must have at most 2 decimal places")
	}
	if err := validateMonths(months); err != nil {
		return decimal.Zero, err
	}
	return money.Round2(basePriceUSD.Mul(months)), nil
}

func validateMonths(months decimal.Decimal) error {
	if months.IsNegative() || months.GreaterThan(maxMonths) {
		return pkgerrors.New(pkgerrors.CodeValidation, "months_remaining must be between 0 and 99.99")
	}
	if !money.HasMaxScale(months, 2) {
		return pkgerrors.New(pkgerrors.CodeValidation, "months_remaining must have at most 2 decimal places")
	}
	return nil
}
