package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRound2HalfUp(t *testing.T) {
	cases := map[string]string{
		"14.4375":    "14.44",
		"58673.4148": "58673.41",
		"0.005":      "0.01",
		"-0.005":     "-0.01",
		"75":         "75",
	}
	for in, want := range cases {
		if got := Round2(dec(in)); !got.Equal(dec(want)) {
			t.Fatalf("Round2(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestWithinTolerance(t *testing.T) {
	if !WithinTolerance(dec("89.44"), dec("89.4375")) {
		t.Fatal("drift of 0.0025 is within tolerance")
	}
	if !WithinTolerance(dec("89.44"), dec("89.45")) {
		t.Fatal("exactly one cent is within tolerance")
	}
	if WithinTolerance(dec("89.44"), dec("89.46")) {
		t.Fatal("two cents exceeds tolerance")
	}
}

func TestHasMaxScale(t *testing.T) {
	if !HasMaxScale(dec("2.50"), 2) {
		t.Fatal("2.50 fits 2 fractional digits")
	}
	if HasMaxScale(dec("2.505"), 2) {
		t.Fatal("2.505 does not fit 2 fractional digits")
	}
	if !HasMaxScale(dec("655.957000"), 6) {
		t.Fatal("trailing zeros do not add scale")
	}
}

func TestValidCurrencyCode(t *testing.T) {
	for _, code := range []string{"USD", "XAF", "EUR"} {
		if !ValidCurrencyCode(code) {
			t.Fatalf("%s should be valid", code)
		}
	}
	for _, code := range []string{"usd", "US", "USDT", "U5D", ""} {
		if ValidCurrencyCode(code) {
			t.Fatalf("%s should be invalid", code)
		}
	}
}

func TestValidRate(t *testing.T) {
	if !ValidRate(dec("655.957")) {
		t.Fatal("655.957 is a valid rate")
	}
	if ValidRate(dec("0")) {
		t.Fatal("zero rate is invalid")
	}
	if ValidRate(dec("-1.5")) {
		t.Fatal("negative rate is invalid")
	}
	if ValidRate(dec("1.2345678")) {
		t.Fatal("more than 6 fractional digits is invalid")
	}
}

func TestValidTaxRate(t *testing.T) {
	if !ValidTaxRate(dec("0.1925")) {
		t.Fatal("0.1925 is a valid tax rate")
	}
	if !ValidTaxRate(dec("0")) {
		t.Fatal("zero-rated rules are valid")
	}
	if !ValidTaxRate(dec("1")) {
		t.Fatal("a 100% rate is the upper bound")
	}
	if ValidTaxRate(dec("1.0001")) {
		t.Fatal("rates above 1 are invalid")
	}
	if ValidTaxRate(dec("0.19255")) {
		t.Fatal("more than 4 fractional digits is invalid")
	}
}

func TestWireFormats(t *testing.T) {
	if got := Amount(dec("75")); got != "75.00" {
		t.Fatalf("Amount = %s", got)
	}
	if got := Rate(dec("655.957")); got != "655.957000" {
		t.Fatalf("Rate = %s", got)
	}
}
