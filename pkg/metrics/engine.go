package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records settlement and stock deduction activity.
type EngineMetrics struct {
	settlementDuration *prometheus.HistogramVec
	paymentsApplied    *prometheus.CounterVec
	salesSettled       *prometheus.CounterVec
	deductions         *prometheus.CounterVec
	stockAlerts        *prometheus.CounterVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	settlementDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of credit settlement runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	paymentsApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "credit_payments_applied",
		Help: "Credit payments applied to accounts.",
	}, []string{"outcome"})
	salesSettled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "credit_sales_settled",
		Help: "Credit sales settled, by settlement kind.",
	}, []string{"kind"})
	deductions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_deductions",
		Help: "Stock deduction runs triggered by paid sales.",
	}, []string{"outcome"})
	stockAlerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_alerts",
		Help: "Low and out-of-stock alerts raised.",
	}, []string{"type"})
	reg.MustRegister(settlementDuration, paymentsApplied, salesSettled, deductions, stockAlerts)
	return &EngineMetrics{
		settlementDuration: settlementDuration,
		paymentsApplied:    paymentsApplied,
		salesSettled:       salesSettled,
		deductions:         deductions,
		stockAlerts:        stockAlerts,
	}
}

// ObserveSettlement records the duration of a settlement run.
func (m *EngineMetrics) ObserveSettlement(outcome string, duration time.Duration) {
	if m == nil || m.settlementDuration == nil {
		return
	}
	m.settlementDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncPaymentApplied increments the payments counter.
func (m *EngineMetrics) IncPaymentApplied(outcome string) {
	if m == nil || m.paymentsApplied == nil {
		return
	}
	m.paymentsApplied.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncSaleSettled increments the settled sales counter for a settlement kind.
func (m *EngineMetrics) IncSaleSettled(kind string) {
	if m == nil || m.salesSettled == nil {
		return
	}
	m.salesSettled.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncDeduction increments the deduction counter.
func (m *EngineMetrics) IncDeduction(outcome string) {
	if m == nil || m.deductions == nil {
		return
	}
	m.deductions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncStockAlert increments the alert counter for the alert type.
func (m *EngineMetrics) IncStockAlert(alertType string) {
	if m == nil || m.stockAlerts == nil {
		return
	}
	m.stockAlerts.WithLabelValues(normalizeLabel(alertType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
