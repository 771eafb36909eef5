package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/archon-research/stl/vault-solver/internal/ports/outbound"
)

// meterName is the instrumentation scope of the solver's metrics.
const meterName = "github.com/archon-research/stl/vault-solver"

var _ outbound.SolverMetrics = (*Metrics)(nil)

// Metrics implements outbound.SolverMetrics using OpenTelemetry.
type Metrics struct {
	orderOutcomes metric.Int64Counter
	solveDuration metric.Float64Histogram
	settledOrders metric.Int64Histogram
}

// NewMetrics creates the solver's instruments on provider. A nil provider
// uses the global one set by InitMetrics.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	outcomes, err := meter.Int64Counter(
		"vault_solver_orders_total",
		metric.WithDescription("Vault deposit orders seen by the solver, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault_solver_orders_total counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"vault_solver_solve_duration_seconds",
		metric.WithDescription("Time taken to build a settlement for one auction"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault_solver_solve_duration_seconds histogram: %w", err)
	}

	settled, err := meter.Int64Histogram(
		"vault_solver_settled_orders",
		metric.WithDescription("Orders included in each settlement"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault_solver_settled_orders histogram: %w", err)
	}

	return &Metrics{
		orderOutcomes: outcomes,
		solveDuration: duration,
		settledOrders: settled,
	}, nil
}

// RecordOrderOutcome increments the order counter for status.
func (m *Metrics) RecordOrderOutcome(ctx context.Context, status string) {
	m.orderOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordSolve records the duration and size of one settlement.
func (m *Metrics) RecordSolve(ctx context.Context, duration time.Duration, accepted int) {
	m.solveDuration.Record(ctx, duration.Seconds())
	m.settledOrders.Record(ctx, int64(accepted))
}
