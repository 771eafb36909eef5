package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.RecordOrderOutcome(ctx, "accepted")
	m.RecordOrderOutcome(ctx, "accepted")
	m.RecordOrderOutcome(ctx, "failed_chain_read")
	m.RecordSolve(ctx, 250*time.Millisecond, 2)

	got := collect(t, reader)

	orders, ok := got["vault_solver_orders_total"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("vault_solver_orders_total missing or wrong type: %+v", got["vault_solver_orders_total"])
	}
	counts := make(map[string]int64)
	for _, dp := range orders.DataPoints {
		status, _ := dp.Attributes.Value(attribute.Key("status"))
		counts[status.AsString()] = dp.Value
	}
	if counts["accepted"] != 2 || counts["failed_chain_read"] != 1 {
		t.Errorf("order counts = %v", counts)
	}

	duration, ok := got["vault_solver_solve_duration_seconds"].Data.(metricdata.Histogram[float64])
	if !ok || len(duration.DataPoints) != 1 {
		t.Fatalf("solve duration histogram = %+v", got["vault_solver_solve_duration_seconds"])
	}
	if dp := duration.DataPoints[0]; dp.Count != 1 || dp.Sum != 0.25 {
		t.Errorf("solve duration count=%d sum=%v, want 1 / 0.25", dp.Count, dp.Sum)
	}

	settled, ok := got["vault_solver_settled_orders"].Data.(metricdata.Histogram[int64])
	if !ok || len(settled.DataPoints) != 1 || settled.DataPoints[0].Sum != 2 {
		t.Errorf("settled orders histogram = %+v", got["vault_solver_settled_orders"])
	}
}

func TestInitMetrics_NoEndpoint(t *testing.T) {
	shutdown, err := InitMetrics(context.Background(), MetricConfig{ServiceName: "vault-solver"})
	if err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
