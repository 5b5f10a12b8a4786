package currency

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

func TestProjectUSDToXAF(t *testing.T) {
	usd := AmountsUSD{
		Subtotal: dec(t, "75.00"),
		Tax:      dec(t, "14.44"),
		Total:    dec(t, "89.44"),
	}

	got, err := Project(usd, "XAF", dec(t, "655.957000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 89.44 * 655.957 = 58668.79408 -> 58668.79
	if got.Total.StringFixed(2) != "58668.79" {
		t.Fatalf("total local = %s, want 58668.79", got.Total.StringFixed(2))
	}
	if got.Subtotal.StringFixed(2) != "49196.78" {
		t.Fatalf("subtotal local = %s, want 49196.78", got.Subtotal.StringFixed(2))
	}
	if got.Tax.StringFixed(2) != "9472.02" {
		t.Fatalf("tax local = %s, want 9472.02", got.Tax.StringFixed(2))
	}
}

func TestProjectIdentityRate(t *testing.T) {
	usd := AmountsUSD{
		Subtotal: dec(t, "100.00"),
		Tax:      dec(t, "5.00"),
		Total:    dec(t, "105.00"),
	}

	got, err := Project(usd, "USD", dec(t, "1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Total.Equal(usd.Total) || !got.Subtotal.Equal(usd.Subtotal) || !got.Tax.Equal(usd.Tax) {
		t.Fatalf("identity projection changed amounts: %+v", got)
	}
}

func TestProjectValidation(t *testing.T) {
	usd := AmountsUSD{Subtotal: dec(t, "1.00"), Tax: decimal.Zero, Total: dec(t, "1.00")}

	cases := []struct {
		name string
		code string
		rate string
	}{
		{"lowercase code", "xaf", "655.957000"},
		{"short code", "XA", "655.957000"},
		{"zero rate", "XAF", "0"},
		{"negative rate", "XAF", "-1.5"},
		{"rate too precise", "XAF", "1.1234567"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Project(usd, tc.code, dec(t, tc.rate))
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
