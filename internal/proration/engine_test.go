package proration

import (
	"testing"

	"github.com/shopspring/decimal"

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

func TestSubtotal(t *testing.T) {
	got, err := Subtotal(Input{
		EmployeesAddedCount: 10,
		MonthsRemaining:     dec(t, "2.5"),
		PricePerEmployeeUSD: dec(t, "3.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StringFixed(2) != "75.00" {
		t.Fatalf("subtotal = %s, want 75.00", got.StringFixed(2))
	}
}

func TestSubtotalRoundsHalfUp(t *testing.T) {
	got, err := Subtotal(Input{
		EmployeesAddedCount: 3,
		MonthsRemaining:     dec(t, "1.75"),
		PricePerEmployeeUSD: dec(t, "2.75"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 3 * 1.75 * 2.75 = 14.4375 -> 14.44
	if got.StringFixed(2) != "14.44" {
		t.Fatalf("subtotal = %s, want 14.44", got.StringFixed(2))
	}
}

func TestSubtotalZeroMonthsIsZero(t *testing.T) {
	got, err := Subtotal(Input{
		EmployeesAddedCount: 5,
		MonthsRemaining:     decimal.Zero,
		PricePerEmployeeUSD: dec(t, "10.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("subtotal = %s, want 0", got)
	}
}

func TestSubtotalValidation(t *testing.T) {
	cases := []struct {
		name  string
		input Input
	}{
		{"zero count", Input{EmployeesAddedCount: 0, MonthsRemaining: dec(t, "1"), PricePerEmployeeUSD: dec(t, "1.00")}},
		{"negative count", Input{EmployeesAddedCount: -2, MonthsRemaining: dec(t, "1"), PricePerEmployeeUSD: dec(t, "1.00")}},
		{"negative months", Input{EmployeesAddedCount: 1, MonthsRemaining: dec(t, "-0.5"), PricePerEmployeeUSD: dec(t, "1.00")}},
		{"months above cap", Input{EmployeesAddedCount: 1, MonthsRemaining: dec(t, "100"), PricePerEmployeeUSD: dec(t, "1.00")}},
		{"months too precise", Input{EmployeesAddedCount: 1, MonthsRemaining: dec(t, "1.555"), PricePerEmployeeUSD: dec(t, "1.00")}},
		{"negative price", Input{EmployeesAddedCount: 1, MonthsRemaining: dec(t, "1"), PricePerEmployeeUSD: dec(t, "-3.00")}},
		{"price too precise", Input{EmployeesAddedCount: 1, MonthsRemaining: dec(t, "1"), PricePerEmployeeUSD: dec(t, "3.001")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Subtotal(tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestBaseCharge(t *testing.T) {
	got, err := BaseCharge(dec(t, "199.99"), dec(t, "3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StringFixed(2) != "599.97" {
		t.Fatalf("base charge = %s, want 599.97", got.StringFixed(2))
	}

	if _, err := BaseCharge(dec(t, "-1.00"), dec(t, "3")); err == nil {
		t.Fatal("expected error for negative base price")
	}
	if _, err := BaseCharge(dec(t, "10.00"), dec(t, "100")); err == nil {
		t.Fatal("expected error for months above cap")
	}
}
