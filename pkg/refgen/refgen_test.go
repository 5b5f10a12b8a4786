package refgen

import (
	"strings"
	"testing"
)

func TestGUIDStaysInSixDigitRange(t *testing.T) {
	gen := New("PAY")
	for i := 0; i < 1000; i++ {
		guid, err := gen.GUID()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if guid < 100000 || guid > 999999 {
			t.Fatalf("guid %d outside 6-digit range", guid)
		}
	}
}

func TestPaymentReferenceIsPrefixedAndUnique(t *testing.T) {
	gen := New("pay ")
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref, err := gen.PaymentReference()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(ref, "pay-") {
			t.Fatalf("reference %q missing prefix", ref)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
}

func TestEmptyPrefixFallsBack(t *testing.T) {
	gen := New("  ")
	ref, err := gen.PaymentReference()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(ref, "PAY-") {
		t.Fatalf("reference %q missing default prefix", ref)
	}
}
