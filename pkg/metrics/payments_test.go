package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, label string) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := vec.WithLabelValues(label).Write(metric); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func TestPaymentMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPaymentMetrics(reg)

	m.IncReconciliation("accepted")
	m.IncReconciliation("accepted")
	m.IncReconciliation("")
	m.IncGatewayFailure("create_invoice")
	m.ObserveGatewayCall("create_invoice", 120*time.Millisecond)

	if got := counterValue(t, m.reconciliations, "accepted"); got != 2 {
		t.Fatalf("expected 2 accepted reconciliations, got %v", got)
	}
	if got := counterValue(t, m.reconciliations, "unknown"); got != 1 {
		t.Fatalf("expected empty outcome to normalize to unknown, got %v", got)
	}
	if got := counterValue(t, m.gatewayFailures, "create_invoice"); got != 1 {
		t.Fatalf("expected 1 gateway failure, got %v", got)
	}
}

func TestPaymentMetricsNilSafe(t *testing.T) {
	var m *PaymentMetrics
	m.IncReconciliation("accepted")
	m.ObserveGatewayCall("create_invoice", time.Second)
	m.IncGatewayFailure("create_invoice")

	empty := NewPaymentMetrics(nil)
	empty.IncReconciliation("accepted")
}
