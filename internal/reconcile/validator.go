// Package reconcile is the pre-persistence gate for every money-bearing write.
// Each check re-derives a cross-field identity from the record's own stored
// fields; a violation beyond tolerance rejects the write. All calculation-kind
// failures are raised here and nowhere else.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
	"github.com/tallyworks/licensing-backend/pkg/money"
)

const (
	guidMin = 100000
	guidMax = 999999
)

// ValidateAdjustment checks every identity a LicenseAdjustment must satisfy
// before it is inserted.
func ValidateAdjustment(adj *models.LicenseAdjustment) error {
	if adj == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "adjustment is required")
	}
	if err := validateGUID(adj.GUID); err != nil {
		return err
	}
	if !adj.PaymentStatus.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", adj.PaymentStatus))
	}

	derived := decimal.NewFromInt(int64(adj.EmployeesAddedCount)).
		Mul(adj.MonthsRemaining).
		Mul(adj.PricePerEmployeeUSD)
	if !money.WithinTolerance(adj.SubtotalUSD, derived) {
		return pkgerrors.TotalCalculation(
			fmt.Sprintf("subtotal_usd %s does not match %d x %s x %s",
				adj.SubtotalUSD, adj.EmployeesAddedCount, adj.MonthsRemaining, adj.PricePerEmployeeUSD))
	}

	if err := validateTotals(adj.SubtotalUSD, adj.TaxAmountUSD, adj.TotalAmountUSD); err != nil {
		return err
	}
	if err := validateProjection(projection{
		currencyCode:  adj.BillingCurrencyCode,
		rate:          adj.ExchangeRateUsed,
		subtotalUSD:   adj.SubtotalUSD,
		taxUSD:        adj.TaxAmountUSD,
		totalUSD:      adj.TotalAmountUSD,
		subtotalLocal: adj.SubtotalLocal,
		taxLocal:      adj.TaxAmountLocal,
		totalLocal:    adj.TotalAmountLocal,
	}); err != nil {
		return err
	}
	if err := validateTaxSnapshot(adj.TaxRulesApplied); err != nil {
		return err
	}

	if adj.InvoiceSentAt != nil && adj.InvoiceSentAt.Before(adj.AdjustmentDate) {
		return pkgerrors.DateSequenceInvalid("invoice_sent_at precedes adjustment_date")
	}
	if adj.PaymentCompletedAt != nil {
		if adj.InvoiceSentAt == nil {
			return pkgerrors.DateSequenceInvalid("payment_completed_at set without invoice_sent_at")
		}
		if adj.PaymentCompletedAt.Before(*adj.InvoiceSentAt) {
			return pkgerrors.DateSequenceInvalid("payment_completed_at precedes invoice_sent_at")
		}
	}
	return nil
}

// ValidateCycle checks every identity a BillingCycle must satisfy before it is
// inserted.
func ValidateCycle(cycle *models.BillingCycle) error {
	if cycle == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "billing cycle is required")
	}
	if err := validateGUID(cycle.GUID); err != nil {
		return err
	}
	if !cycle.BillingStatus.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid billing status %q", cycle.BillingStatus))
	}
	if !cycle.PeriodEnd.After(cycle.PeriodStart) {
		return pkgerrors.DateSequenceInvalid("period_end must be after period_start")
	}
	if cycle.PaymentDueDate.Before(cycle.PeriodEnd) {
		return pkgerrors.DateSequenceInvalid("payment_due_date precedes period_end")
	}

	derivedSubtotal := cycle.BaseAmountUSD.Add(cycle.AdjustmentsAmountUSD)
	if !money.WithinTolerance(cycle.SubtotalUSD, derivedSubtotal) {
		return pkgerrors.TotalCalculation(
			fmt.Sprintf("subtotal_usd %s does not match base %s + adjustments %s",
				cycle.SubtotalUSD, cycle.BaseAmountUSD, cycle.AdjustmentsAmountUSD))
	}

	if err := validateTotals(cycle.SubtotalUSD, cycle.TaxAmountUSD, cycle.TotalAmountUSD); err != nil {
		return err
	}
	if err := validateProjection(projection{
		currencyCode:  cycle.BillingCurrencyCode,
		rate:          cycle.ExchangeRateUsed,
		subtotalUSD:   cycle.SubtotalUSD,
		taxUSD:        cycle.TaxAmountUSD,
		totalUSD:      cycle.TotalAmountUSD,
		subtotalLocal: cycle.SubtotalLocal,
		taxLocal:      cycle.TaxAmountLocal,
		totalLocal:    cycle.TotalAmountLocal,
	}); err != nil {
		return err
	}
	if err := validateTaxSnapshot(cycle.TaxRulesApplied); err != nil {
		return err
	}

	if cycle.InvoiceSentAt != nil && cycle.InvoiceSentAt.Before(cycle.PeriodEnd) {
		return pkgerrors.DateSequenceInvalid("invoice_sent_at precedes period_end")
	}
	if cycle.PaymentCompletedAt != nil {
		if cycle.InvoiceSentAt == nil {
			return pkgerrors.DateSequenceInvalid("payment_completed_at set without invoice_sent_at")
		}
		if cycle.PaymentCompletedAt.Before(*cycle.InvoiceSentAt) {
			return pkgerrors.DateSequenceInvalid("payment_completed_at precedes invoice_sent_at")
		}
	}
	return nil
}

// ValidateTransaction checks a PaymentTransaction before insert. Money fields
// are write-once, so this runs exactly once per row.
func ValidateTransaction(txn *models.PaymentTransaction) error {
	if txn == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment transaction is required")
	}
	if err := validateGUID(txn.GUID); err != nil {
		return err
	}
	if (txn.BillingCycleID == nil) == (txn.AdjustmentID == nil) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"transaction must reference exactly one billing cycle or adjustment")
	}
	if txn.PaymentReference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment_reference is required")
	}
	if !txn.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", txn.PaymentMethod))
	}
	if txn.Status != enums.PaymentTransactionStatusPending {
		return pkgerrors.New(pkgerrors.CodeValidation, "new transactions must start in PENDING")
	}
	if !money.ValidCurrencyCode(txn.CurrencyCode) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("currency code %q is not an uppercase 3-letter ISO-4217 code", txn.CurrencyCode))
	}
	if !money.ValidRate(txn.ExchangeRateUsed) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"exchange rate must be positive with at most 6 decimal places")
	}
	if txn.InitiatedAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "initiated_at is required")
	}

	expectedLocal := txn.AmountUSD.Mul(txn.ExchangeRateUsed)
	if !money.WithinTolerance(txn.AmountLocal, expectedLocal) {
		return pkgerrors.AmountConsistency("amount_local", expectedLocal.String(), txn.AmountLocal.String())
	}

	if txn.CompletedAt != nil && txn.CompletedAt.Before(txn.InitiatedAt) {
		return pkgerrors.DateSequenceInvalid("completed_at precedes initiated_at")
	}
	return nil
}

type projection struct {
	currencyCode  string
	rate          decimal.Decimal
	subtotalUSD   decimal.Decimal
	taxUSD        decimal.Decimal
	totalUSD      decimal.Decimal
	subtotalLocal decimal.Decimal
	taxLocal      decimal.Decimal
	totalLocal    decimal.Decimal
}

func validateTotals(subtotal, tax, total decimal.Decimal) error {
	if !money.WithinTolerance(total, subtotal.Add(tax)) {
		return pkgerrors.TotalCalculation(
			fmt.Sprintf("total_amount_usd %s does not match subtotal %s + tax %s", total, subtotal, tax))
	}
	return nil
}

func validateProjection(p projection) error {
	if !money.ValidCurrencyCode(p.currencyCode) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("billing currency code %q is not an uppercase 3-letter ISO-4217 code", p.currencyCode))
	}
	if !money.ValidRate(p.rate) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"exchange rate must be positive with at most 6 decimal places")
	}

	pairs := []struct {
		field string
		usd   decimal.Decimal
		local decimal.Decimal
	}{
		{"subtotal_local", p.subtotalUSD, p.subtotalLocal},
		{"tax_amount_local", p.taxUSD, p.taxLocal},
		{"total_amount_local", p.totalUSD, p.totalLocal},
	}
	for _, pair := range pairs {
		expected := pair.usd.Mul(p.rate)
		if !money.WithinTolerance(pair.local, expected) {
			return pkgerrors.AmountConsistency(pair.field, expected.String(), pair.local.String())
		}
	}
	return nil
}

func validateTaxSnapshot(raw []byte) error {
	rules, err := models.UnmarshalTaxSnapshots(raw)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "tax_rules_applied is not a valid snapshot")
	}
	for _, rule := range rules {
		if !money.ValidTaxRate(rule.Rate) {
			return pkgerrors.TaxRuleInvalid(
				fmt.Sprintf("snapshot rule %q rate %s outside [0,1] with 4 decimal places", rule.Name, rule.Rate))
		}
	}
	return nil
}

func validateGUID(guid int) error {
	if guid < guidMin || guid > guidMax {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("guid %d outside the 6-digit range", guid))
	}
	return nil
}
