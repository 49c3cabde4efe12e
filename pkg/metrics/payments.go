package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records reconciliation outcomes and gateway latency.
type PaymentMetrics struct {
	reconciliations *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	gatewayFailures *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payment callback reconciliations by outcome.",
	}, []string{"outcome"})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_call_duration_seconds",
		Help:    "Duration of outbound payment gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	gatewayFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_failures_total",
		Help: "Failed outbound payment gateway calls.",
	}, []string{"operation"})
	reg.MustRegister(reconciliations, gatewayDuration, gatewayFailures)
	return &PaymentMetrics{
		reconciliations: reconciliations,
		gatewayDuration: gatewayDuration,
		gatewayFailures: gatewayFailures,
	}
}

// IncReconciliation increments the counter for the named outcome.
func (p *PaymentMetrics) IncReconciliation(outcome string) {
	if p == nil || p.reconciliations == nil {
		return
	}
	p.reconciliations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveGatewayCall records the duration for the named gateway operation.
func (p *PaymentMetrics) ObserveGatewayCall(operation string, duration time.Duration) {
	if p == nil || p.gatewayDuration == nil {
		return
	}
	p.gatewayDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncGatewayFailure increments the failure counter for the named operation.
func (p *PaymentMetrics) IncGatewayFailure(operation string) {
	if p == nil || p.gatewayFailures == nil {
		return
	}
	p.gatewayFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
