// Package inbound contains the primary/inbound ports.
// These interfaces define the use cases that the application exposes.
package inbound

import (
	"context"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
)

// Solver turns a batch auction into a settlement for the orders it can fill.
// Inbound adapters (HTTP handlers, CLI) call these methods.
type Solver interface {
	Solve(ctx context.Context, batch *entity.BatchAuction) (*entity.Settlement, error)
}

// HealthChecker reports readiness and liveness for deployment probes.
//
// Implementations:
//   - vault_solver.Service: ready once constructed, unhealthy while every
//     chain read of the latest solve failed on transport errors
type HealthChecker interface {
	// IsReady returns true when the service can accept solve requests.
	IsReady() bool

	// IsHealthy returns true when the chain endpoint is answering reads.
	IsHealthy() bool
}
