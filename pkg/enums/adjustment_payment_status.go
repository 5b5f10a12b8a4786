package enums

import "fmt"

// AdjustmentPaymentStatus mirrors the pending -> invoiced -> paid progression
// for mid-cycle seat adjustments.
type AdjustmentPaymentStatus string

const (
	AdjustmentPaymentStatusPending   AdjustmentPaymentStatus = "PENDING"
	AdjustmentPaymentStatusInvoiced  AdjustmentPaymentStatus = "INVOICED"
	AdjustmentPaymentStatusPaid      AdjustmentPaymentStatus = "PAID"
	AdjustmentPaymentStatusCancelled AdjustmentPaymentStatus = "CANCELLED"
)

var validAdjustmentPaymentStatuses = []AdjustmentPaymentStatus{
	AdjustmentPaymentStatusPending,
	AdjustmentPaymentStatusInvoiced,
	AdjustmentPaymentStatusPaid,
	AdjustmentPaymentStatusCancelled,
}

// String implements fmt.Stringer.
func (a AdjustmentPaymentStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdjustmentPaymentStatus.
func (a AdjustmentPaymentStatus) IsValid() bool {
	for _, candidate := range validAdjustmentPaymentStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsFinal reports whether the adjustment record is immutable.
func (a AdjustmentPaymentStatus) IsFinal() bool {
	return a == AdjustmentPaymentStatusPaid || a == AdjustmentPaymentStatusCancelled
}

// ParseAdjustmentPaymentStatus converts raw input into an AdjustmentPaymentStatus.
func ParseAdjustmentPaymentStatus(value string) (AdjustmentPaymentStatus, error) {
	for _, candidate := range validAdjustmentPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment payment status %q", value)
}
