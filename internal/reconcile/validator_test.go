package reconcile

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal fixture %q: %v", value, err)
	}
	return d
}

func snapshotJSON(t *testing.T, rules []models.TaxRuleSnapshot) []byte {
	t.Helper()
	raw, err := models.MarshalTaxSnapshots(rules)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return raw
}

func validAdjustment(t *testing.T) *models.LicenseAdjustment {
	t.Helper()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	return &models.LicenseAdjustment{
		ID:                  uuid.New(),
		GUID:                123456,
		LicenseID:           uuid.New(),
		EmployeesAddedCount: 10,
		MonthsRemaining:     dec(t, "2.5"),
		PricePerEmployeeUSD: dec(t, "3.00"),
		SubtotalUSD:         dec(t, "75.00"),
		TaxAmountUSD:        dec(t, "14.44"),
		TotalAmountUSD:      dec(t, "89.44"),
		BillingCurrencyCode: "XAF",
		ExchangeRateUsed:    dec(t, "655.957000"),
		SubtotalLocal:       dec(t, "49196.78"),
		TaxAmountLocal:      dec(t, "9472.02"),
		TotalAmountLocal:    dec(t, "58668.79"),
		TaxRulesApplied: snapshotJSON(t, []models.TaxRuleSnapshot{
			{Name: "VAT", Type: enums.TaxRuleTypeVAT, Rate: dec(t, "0.1925")},
		}),
		PaymentStatus:  enums.AdjustmentPaymentStatusPending,
		AdjustmentDate: now,
	}
}

func TestValidateAdjustmentAccepts(t *testing.T) {
	if err := ValidateAdjustment(validAdjustment(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAdjustmentSubtotalDrift(t *testing.T) {
	adj := validAdjustment(t)
	adj.SubtotalUSD = dec(t, "76.00")

	err := ValidateAdjustment(adj)
	if pkgerrors.KindOf(err) != pkgerrors.KindTotalCalculation {
		t.Fatalf("expected TOTAL_CALCULATION kind, got %v", err)
	}
}

func TestValidateAdjustmentTotalDrift(t *testing.T) {
	adj := validAdjustment(t)
	adj.TotalAmountUSD = dec(t, "89.46")
	adj.TotalAmountLocal = dec(t, "58681.91")

	err := ValidateAdjustment(adj)
	if pkgerrors.KindOf(err) != pkgerrors.KindTotalCalculation {
		t.Fatalf("expected TOTAL_CALCULATION kind, got %v", err)
	}
}

func TestValidateAdjustmentLocalDrift(t *testing.T) {
	adj := validAdjustment(t)
	adj.TotalAmountLocal = dec(t, "58670.00")

	err := ValidateAdjustment(adj)
	if pkgerrors.KindOf(err) != pkgerrors.KindAmountConsistency {
		t.Fatalf("expected AMOUNT_CONSISTENCY kind, got %v", err)
	}
}

func TestValidateAdjustmentWithinTolerance(t *testing.T) {
	adj := validAdjustment(t)
	adj.TotalAmountLocal = dec(t, "58668.80")

	if err := ValidateAdjustment(adj); err != nil {
		t.Fatalf("one-cent drift should pass: %v", err)
	}
}

func TestValidateAdjustmentDateSequence(t *testing.T) {
	adj := validAdjustment(t)
	early := adj.AdjustmentDate.Add(-time.Hour)
	adj.InvoiceSentAt = &early

	err := ValidateAdjustment(adj)
	if pkgerrors.KindOf(err) != pkgerrors.KindDateSequenceInvalid {
		t.Fatalf("expected DATE_SEQUENCE_INVALID kind, got %v", err)
	}

	adj = validAdjustment(t)
	paid := adj.AdjustmentDate.Add(time.Hour)
	adj.PaymentCompletedAt = &paid

	err = ValidateAdjustment(adj)
	if pkgerrors.KindOf(err) != pkgerrors.KindDateSequenceInvalid {
		t.Fatalf("expected DATE_SEQUENCE_INVALID for payment without invoice, got %v", err)
	}
}

func TestValidateAdjustmentGUIDRange(t *testing.T) {
	adj := validAdjustment(t)
	adj.GUID = 99999

	err := ValidateAdjustment(adj)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestValidateAdjustmentBadSnapshotRate(t *testing.T) {
	adj := validAdjustment(t)
	adj.TaxRulesApplied = snapshotJSON(t, []models.TaxRuleSnapshot{
		{Name: "Bad", Type: enums.TaxRuleTypeSales, Rate: dec(t, "1.5")},
	})

	err := ValidateAdjustment(adj)
	if pkgerrors.KindOf(err) != pkgerrors.KindTaxRuleInvalid {
		t.Fatalf("expected TAX_RULE_INVALID kind, got %v", err)
	}
}

func validCycle(t *testing.T) *models.BillingCycle {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)
	return &models.BillingCycle{
		ID:                   uuid.New(),
		GUID:                 234567,
		LicenseID:            uuid.New(),
		PeriodStart:          start,
		PeriodEnd:            end,
		BaseEmployeeCount:    25,
		FinalEmployeeCount:   35,
		BaseAmountUSD:        dec(t, "600.00"),
		AdjustmentsAmountUSD: dec(t, "89.44"),
		SubtotalUSD:          dec(t, "689.44"),
		TaxAmountUSD:         dec(t, "132.72"),
		TotalAmountUSD:       dec(t, "822.16"),
		BillingCurrencyCode:  "XAF",
		ExchangeRateUsed:     dec(t, "655.957000"),
		SubtotalLocal:        dec(t, "452242.99"),
		TaxAmountLocal:       dec(t, "87058.61"),
		TotalAmountLocal:     dec(t, "539301.61"),
		TaxRulesApplied: snapshotJSON(t, []models.TaxRuleSnapshot{
			{Name: "VAT", Type: enums.TaxRuleTypeVAT, Rate: dec(t, "0.1925")},
		}),
		BillingStatus:  enums.BillingStatusPending,
		PaymentDueDate: end.AddDate(0, 0, 14),
	}
}

func TestValidateCycleAccepts(t *testing.T) {
	if err := ValidateCycle(validCycle(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCycleDueDateBeforePeriodEnd(t *testing.T) {
	cycle := validCycle(t)
	cycle.PaymentDueDate = cycle.PeriodEnd.AddDate(0, 0, -1)

	err := ValidateCycle(cycle)
	if pkgerrors.KindOf(err) != pkgerrors.KindDateSequenceInvalid {
		t.Fatalf("expected DATE_SEQUENCE_INVALID kind, got %v", err)
	}
}

func TestValidateCycleSubtotalDrift(t *testing.T) {
	cycle := validCycle(t)
	cycle.AdjustmentsAmountUSD = dec(t, "100.00")

	err := ValidateCycle(cycle)
	if pkgerrors.KindOf(err) != pkgerrors.KindTotalCalculation {
		t.Fatalf("expected TOTAL_CALCULATION kind, got %v", err)
	}
}

func TestValidateCyclePeriodInverted(t *testing.T) {
	cycle := validCycle(t)
	cycle.PeriodEnd = cycle.PeriodStart

	err := ValidateCycle(cycle)
	if pkgerrors.KindOf(err) != pkgerrors.KindDateSequenceInvalid {
		t.Fatalf("expected DATE_SEQUENCE_INVALID kind, got %v", err)
	}
}

func validTransaction(t *testing.T) *models.PaymentTransaction {
	t.Helper()
	cycleID := uuid.New()
	return &models.PaymentTransaction{
		ID:               uuid.New(),
		GUID:             345678,
		BillingCycleID:   &cycleID,
		AmountUSD:        dec(t, "822.16"),
		AmountLocal:      dec(t, "539301.61"),
		CurrencyCode:     "XAF",
		ExchangeRateUsed: dec(t, "655.957000"),
		PaymentMethod:    enums.PaymentMethodBankTransfer,
		PaymentReference: "PAY-9F3A1B2C",
		Status:           enums.PaymentTransactionStatusPending,
		InitiatedAt:      time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestValidateTransactionAccepts(t *testing.T) {
	if err := ValidateTransaction(validTransaction(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateTransactionOwnerExclusivity(t *testing.T) {
	txn := validTransaction(t)
	adjID := uuid.New()
	txn.AdjustmentID = &adjID

	if err := ValidateTransaction(txn); err == nil {
		t.Fatal("expected error for dual ownership")
	}

	txn = validTransaction(t)
	txn.BillingCycleID = nil
	if err := ValidateTransaction(txn); err == nil {
		t.Fatal("expected error for missing owner")
	}
}

func TestValidateTransactionLocalDrift(t *testing.T) {
	txn := validTransaction(t)
	txn.AmountLocal = dec(t, "539305.00")

	err := ValidateTransaction(txn)
	if pkgerrors.KindOf(err) != pkgerrors.KindAmountConsistency {
		t.Fatalf("expected AMOUNT_CONSISTENCY kind, got %v", err)
	}
}

func TestValidateTransactionMustStartPending(t *testing.T) {
	txn := validTransaction(t)
	txn.Status = enums.PaymentTransactionStatusProcessing

	if err := ValidateTransaction(txn); err == nil {
		t.Fatal("expected error for non-PENDING initial status")
	}
}

func TestValidateTransactionCompletedBeforeInitiated(t *testing.T) {
	txn := validTransaction(t)
	early := txn.InitiatedAt.Add(-time.Minute)
	txn.CompletedAt = &early

	err := ValidateTransaction(txn)
	if pkgerrors.KindOf(err) != pkgerrors.KindDateSequenceInvalid {
		t.Fatalf("expected DATE_SEQUENCE_INVALID kind, got %v", err)
	}
}
