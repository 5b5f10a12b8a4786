package enums

import "fmt"

// BillingStatus tracks a billing cycle invoice through its progression.
type BillingStatus string

const (
	BillingStatusPending   BillingStatus = "PENDING"
	BillingStatusInvoiced  BillingStatus = "INVOICED"
	BillingStatusPaid      BillingStatus = "PAID"
	BillingStatusOverdue   BillingStatus = "OVERDUE"
	BillingStatusCancelled BillingStatus = "CANCELLED"
)

var validBillingStatuses = []BillingStatus{
	BillingStatusPending,
	BillingStatusInvoiced,
	BillingStatusPaid,
	BillingStatusOverdue,
	BillingStatusCancelled,
}

// String implements fmt.Stringer.
func (b BillingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BillingStatus.
func (b BillingStatus) IsValid() bool {
	for _, candidate := range validBillingStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsFinal reports whether the cycle can no longer change status.
func (b BillingStatus) IsFinal() bool {
	return b == BillingStatusPaid || b == BillingStatusCancelled
}

// ParseBillingStatus converts raw input into a BillingStatus.
func ParseBillingStatus(value string) (BillingStatus, error) {
	for _, candidate := range validBillingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing status %q", value)
}
