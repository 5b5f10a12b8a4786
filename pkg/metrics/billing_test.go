package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestBillingMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBillingMetrics(reg)

	m.IncCreated("billing_cycle")
	m.IncTransition("PENDING", "PROCESSING")
	m.IncTransition("PENDING", "PROCESSING")
	m.IncReconciliationFailure("AMOUNT_CONSISTENCY")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	counts := map[string]float64{}
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			counts[fam.GetName()+labelSuffix(metric)] = metric.GetCounter().GetValue()
		}
	}

	if counts["billing_records_created{kind=billing_cycle}"] != 1 {
		t.Fatalf("unexpected created count: %v", counts)
	}
	if counts["payment_transitions{from=PENDING,to=PROCESSING}"] != 2 {
		t.Fatalf("unexpected transition count: %v", counts)
	}
	if counts["reconciliation_failures{kind=AMOUNT_CONSISTENCY}"] != 1 {
		t.Fatalf("unexpected failure count: %v", counts)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewBillingMetrics(nil)
	m.IncCreated("adjustment")
	m.IncTransition("", "")
	m.IncReconciliationFailure("")
}

func labelSuffix(metric *dto.Metric) string {
	out := "{"
	for i, label := range metric.GetLabel() {
		if i > 0 {
			out += ","
		}
		out += label.GetName() + "=" + label.GetValue()
	}
	return out + "}"
}
