package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestEngineMetricsRecordAndGather(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)

	m.IncPaymentApplied("ok")
	m.IncSaleSettled("fully_settled")
	m.IncSaleSettled("partially_settled")
	m.IncDeduction("ok")
	m.IncStockAlert("stock_low")
	m.ObserveSettlement("ok", 120*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, fam := range families {
		byName[fam.GetName()] = fam
	}

	settled, ok := byName["credit_sales_settled"]
	if !ok {
		t.Fatalf("expected credit_sales_settled family, got %v", byName)
	}
	if len(settled.GetMetric()) != 2 {
		t.Fatalf("expected two settlement kinds, got %d", len(settled.GetMetric()))
	}

	duration, ok := byName["settlement_duration_seconds"]
	if !ok {
		t.Fatalf("expected settlement duration family")
	}
	if duration.GetType() != dto.MetricType_HISTOGRAM {
		t.Fatalf("expected histogram, got %v", duration.GetType())
	}
	if got := duration.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
		t.Fatalf("expected one observation, got %d", got)
	}
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var m *EngineMetrics
	m.IncPaymentApplied("ok")
	m.IncSaleSettled("fully_settled")
	m.IncDeduction("ok")
	m.IncStockAlert("stock_out")
	m.ObserveSettlement("ok", time.Second)

	unregistered := NewEngineMetrics(nil)
	unregistered.IncPaymentApplied("ok")
}
