package errors

import "fmt"

// Kind narrows a Code to the concrete billing failure a caller can branch on.
// Codes drive the HTTP surface; kinds drive the engine's decision points.
type Kind string

const (
	KindTaxRuleInvalid          Kind = "TAX_RULE_INVALID"
	KindAmountConsistency       Kind = "AMOUNT_CONSISTENCY"
	KindTotalCalculation        Kind = "TOTAL_CALCULATION"
	KindInvalidStatusTransition Kind = "INVALID_STATUS_TRANSITION"
	KindTransactionAlreadyFinal Kind = "TRANSACTION_ALREADY_FINAL"
	KindDateSequenceInvalid     Kind = "DATE_SEQUENCE_INVALID"
	KindAlreadyExists           Kind = "ALREADY_EXISTS"
)

// KindOf extracts the billing failure kind, or "" for untyped errors.
func KindOf(err error) Kind {
	if typed := As(err); typed != nil {
		return typed.Kind()
	}
	return ""
}

// TaxRuleInvalid reports an out-of-range tax rate or a missing rule set for a
// jurisdiction that requires tax.
func TaxRuleInvalid(message string) *Error {
	return New(CodeValidation, message).WithKind(KindTaxRuleInvalid)
}

// AmountConsistency reports a local amount drifting from usd*rate beyond the
// cent tolerance. The record is rejected, never corrected.
func AmountConsistency(field string, expected, got string) *Error {
	return New(CodeCalculation, fmt.Sprintf("%s inconsistent with exchange rate", field)).
		WithKind(KindAmountConsistency).
		WithDetails(map[string]any{"field": field, "expected": expected, "got": got})
}

// TotalCalculation reports a subtotal/tax/total identity violated beyond tolerance.
func TotalCalculation(message string) *Error {
	return New(CodeCalculation, message).WithKind(KindTotalCalculation)
}

// InvalidStatusTransition reports an edge absent from the transition table.
func InvalidStatusTransition(from, to string) *Error {
	return New(CodeStateConflict, fmt.Sprintf("cannot transition from %s to %s", from, to)).
		WithKind(KindInvalidStatusTransition).
		WithDetails(map[string]any{"from": from, "to": to})
}

// TransactionAlreadyFinal reports a transition attempted from a terminal state.
func TransactionAlreadyFinal(status string) *Error {
	return New(CodeStateConflict, fmt.Sprintf("transaction already final in status %s", status)).
		WithKind(KindTransactionAlreadyFinal).
		WithDetails(map[string]any{"status": status})
}

// DateSequenceInvalid reports timestamps violating the adjustment -> invoice ->
// payment ordering.
func DateSequenceInvalid(message string) *Error {
	return New(CodeSequence, message).WithKind(KindDateSequenceInvalid)
}

// AlreadyExists reports a duplicate GUID or payment reference insert.
func AlreadyExists(err error, message string) *Error {
	return Wrap(CodeConflict, err, message).WithKind(KindAlreadyExists)
}
