package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCode(t *testing.T) {
	meta := MetadataFor(CodeCalculation)
	if meta.HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for calculation errors, got %d", meta.HTTPStatus)
	}
	if meta.Retryable {
		t.Fatal("calculation errors must not be retryable")
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "lookup rate")
	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should match its cause")
	}
	if As(err).Code() != CodeDependency {
		t.Fatalf("unexpected code %s", As(err).Code())
	}
}

func TestAsThroughWrappedChain(t *testing.T) {
	inner := New(CodeSequence, "payment before invoice")
	outer := fmt.Errorf("persist adjustment: %w", inner)
	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error through chain")
	}
	if typed.Code() != CodeSequence {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestKindOf(t *testing.T) {
	err := InvalidStatusTransition("PENDING", "COMPLETED")
	if KindOf(err) != KindInvalidStatusTransition {
		t.Fatalf("unexpected kind %s", KindOf(err))
	}
	if KindOf(stdErrors.New("plain")) != "" {
		t.Fatal("plain errors carry no kind")
	}
}

func TestBillingConstructors(t *testing.T) {
	cases := []struct {
		err  *Error
		code Code
		kind Kind
	}{
		{TaxRuleInvalid("rate out of range"), CodeValidation, KindTaxRuleInvalid},
		{AmountConsistency("subtotal_local", "58673.41", "58673.50"), CodeCalculation, KindAmountConsistency},
		{TotalCalculation("subtotal + tax != total"), CodeCalculation, KindTotalCalculation},
		{TransactionAlreadyFinal("FAILED"), CodeStateConflict, KindTransactionAlreadyFinal},
		{DateSequenceInvalid("completed before invoiced"), CodeSequence, KindDateSequenceInvalid},
		{AlreadyExists(nil, "duplicate reference"), CodeConflict, KindAlreadyExists},
	}
	for _, tc := range cases {
		if tc.err.Code() != tc.code {
			t.Fatalf("kind %s: expected code %s, got %s", tc.kind, tc.code, tc.err.Code())
		}
		if tc.err.Kind() != tc.kind {
			t.Fatalf("expected kind %s, got %s", tc.kind, tc.err.Kind())
		}
	}
}
