package enums

import "fmt"

// PaymentTransactionStatus tracks the lifecycle of one payment attempt.
type PaymentTransactionStatus string

const (
	PaymentTransactionStatusPending    PaymentTransactionStatus = "PENDING"
	PaymentTransactionStatusProcessing PaymentTransactionStatus = "PROCESSING"
	PaymentTransactionStatusCompleted  PaymentTransactionStatus = "COMPLETED"
	PaymentTransactionStatusFailed     PaymentTransactionStatus = "FAILED"
	PaymentTransactionStatusCancelled  PaymentTransactionStatus = "CANCELLED"
	PaymentTransactionStatusRefunded   PaymentTransactionStatus = "REFUNDED"
)

var validPaymentTransactionStatuses = []PaymentTransactionStatus{
	PaymentTransactionStatusPending,
	PaymentTransactionStatusProcessing,
	PaymentTransactionStatusCompleted,
	PaymentTransactionStatusFailed,
	PaymentTransactionStatusCancelled,
	PaymentTransactionStatusRefunded,
}

// paymentTransitions is the complete edge set. COMPLETED is reachable only
// through PROCESSING; FAILED, CANCELLED and REFUNDED have no outbound edges.
var paymentTransitions = map[PaymentTransactionStatus][]PaymentTransactionStatus{
	PaymentTransactionStatusPending: {
		PaymentTransactionStatusProcessing,
		PaymentTransactionStatusCancelled,
		PaymentTransactionStatusFailed,
	},
	PaymentTransactionStatusProcessing: {
		PaymentTransactionStatusCompleted,
		PaymentTransactionStatusFailed,
		PaymentTransactionStatusCancelled,
	},
	PaymentTransactionStatusCompleted: {
		PaymentTransactionStatusRefunded,
	},
	PaymentTransactionStatusFailed:    {},
	PaymentTransactionStatusCancelled: {},
	PaymentTransactionStatusRefunded:  {},
}

// String implements fmt.Stringer.
func (p PaymentTransactionStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentTransactionStatus.
func (p PaymentTransactionStatus) IsValid() bool {
	for _, candidate := range validPaymentTransactionStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outbound edges.
func (p PaymentTransactionStatus) IsTerminal() bool {
	edges, ok := paymentTransitions[p]
	return ok && len(edges) == 0
}

// CanTransitionTo reports whether the edge exists in the transition table.
func (p PaymentTransactionStatus) CanTransitionTo(next PaymentTransactionStatus) bool {
	for _, candidate := range paymentTransitions[p] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParsePaymentTransactionStatus converts raw input into a PaymentTransactionStatus.
func ParsePaymentTransactionStatus(value string) (PaymentTransactionStatus, error) {
	for _, candidate := range validPaymentTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment transaction status %q", value)
}
