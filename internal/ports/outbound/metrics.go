// Package outbound defines the outbound port interfaces.
package outbound

import (
	"context"
	"time"
)

// SolverMetrics records settlement-level domain metrics without tying the
// solver to a telemetry backend.
type SolverMetrics interface {
	// RecordOrderOutcome counts one filtered order by its final status
	// (accepted, skipped or one of the failure kinds).
	RecordOrderOutcome(ctx context.Context, status string)

	// RecordSolve records the duration of one solve attempt and how many
	// orders ended up in the settlement.
	RecordSolve(ctx context.Context, duration time.Duration, accepted int)
}
