package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics records the engine's write and transition activity.
type BillingMetrics struct {
	recordsCreated         *prometheus.CounterVec
	paymentTransitions     *prometheus.CounterVec
	reconciliationFailures *prometheus.CounterVec
}

// NewBillingMetrics registers the billing metrics on the provided registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_records_created",
		Help: "Billing records persisted, by record kind.",
	}, []string{"kind"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transitions",
		Help: "Payment transaction status transitions applied.",
	}, []string{"from", "to"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_failures",
		Help: "Writes rejected by the reconciliation gate, by failure kind.",
	}, []string{"kind"})
	reg.MustRegister(created, transitions, failures)
	return &BillingMetrics{
		recordsCreated:         created,
		paymentTransitions:     transitions,
		reconciliationFailures: failures,
	}
}

// IncCreated counts a persisted record of the named kind.
func (b *BillingMetrics) IncCreated(kind string) {
	if b == nil || b.recordsCreated == nil {
		return
	}
	b.recordsCreated.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncTransition counts an applied status transition.
func (b *BillingMetrics) IncTransition(from, to string) {
	if b == nil || b.paymentTransitions == nil {
		return
	}
	b.paymentTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncReconciliationFailure counts a rejected write.
func (b *BillingMetrics) IncReconciliationFailure(kind string) {
	if b == nil || b.reconciliationFailures == nil {
		return
	}
	b.reconciliationFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
