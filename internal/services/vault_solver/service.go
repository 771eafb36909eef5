// Package vault_solver settles batch auction orders that deposit an ERC20
// asset into a yield vault in exchange for vault shares.
//
// For every order buying a configured vault the service reads the vault's
// share price from chain, computes how many shares the sell amount mints and,
// when that covers the requested buy amount, emits approve + deposit
// interactions. Chain reads run concurrently; settlement identifiers and
// interaction order are assigned afterwards in ascending order ID, so the
// result is the same as processing orders one at a time.
package vault_solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
	"github.com/archon-research/stl/vault-solver/internal/ports/inbound"
	"github.com/archon-research/stl/vault-solver/internal/ports/outbound"
)

const (
	// tracerName is the instrumentation name for this service.
	tracerName = "github.com/archon-research/stl/vault-solver/internal/services/vault_solver"
)

var (
	_ inbound.Solver        = (*Service)(nil)
	_ inbound.HealthChecker = (*Service)(nil)
)

// Config holds configuration for the vault solver.
type Config struct {
	// Vaults are the share tokens orders may buy.
	Vaults VaultSet

	// MaxConcurrentReads bounds in-flight chain reads per solve.
	MaxConcurrentReads int

	// ReadTimeout bounds a single order's chain read. An order whose read
	// times out is skipped.
	ReadTimeout time.Duration

	Rounding Rounding

	// Archive, when set, receives every solved auction in the background.
	Archive        outbound.AuctionArchive
	ArchiveTimeout time.Duration
	Environment    string

	Logger  *slog.Logger
	Metrics outbound.SolverMetrics
}

func configDefaults() Config {
	return Config{
		MaxConcurrentReads: 4,
		ReadTimeout:        10 * time.Second,
		Rounding:           RoundDown,
		ArchiveTimeout:     10 * time.Second,
		Logger:             slog.Default(),
	}
}

// OrderResult is the outcome of one filtered order.
type OrderResult struct {
	OrderID uint64      `json:"order_id"`
	Status  OrderStatus `json:"status"`

	// SettlementID is set for accepted orders.
	SettlementID *uint64 `json:"settlement_id,omitempty"`

	// Convertible is the share amount the sell amount mints, when computed.
	Convertible *entity.Amount `json:"convertible,omitempty"`

	Err error `json:"-"`
}

// Report is a settlement together with the outcome of every filtered order,
// in ascending order ID.
type Report struct {
	Settlement *entity.Settlement
	Orders     []OrderResult
}

// Accepted returns the number of orders in the settlement.
func (r *Report) Accepted() int {
	return len(r.Settlement.Orders)
}

// interactionEncoder produces the approve + deposit pair for an accepted
// order. *InteractionBuilder is the only production implementation.
type interactionEncoder interface {
	Build(order entity.Order) ([2]entity.Interaction, error)
}

// Service builds vault deposit settlements.
type Service struct {
	config  Config
	reader  outbound.ChainStateReader
	builder interactionEncoder
	metrics outbound.SolverMetrics
	logger  *slog.Logger

	// unhealthy is set while every chain read of the latest solve failed on
	// the transport.
	unhealthy atomic.Bool

	archiving sync.WaitGroup
}

// NewService creates a new vault solver.
func NewService(reader outbound.ChainStateReader, config Config) (*Service, error) {
	if reader == nil {
		return nil, fmt.Errorf("chain state reader cannot be nil")
	}
	if config.Vaults.Len() == 0 {
		return nil, fmt.Errorf("at least one vault must be configured")
	}

	defaults := configDefaults()
	if config.MaxConcurrentReads <= 0 {
		config.MaxConcurrentReads = defaults.MaxConcurrentReads
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.ArchiveTimeout <= 0 {
		config.ArchiveTimeout = defaults.ArchiveTimeout
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	builder, err := NewInteractionBuilder()
	if err != nil {
		return nil, err
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &Service{
		config:  config,
		reader:  reader,
		builder: builder,
		metrics: metrics,
		logger:  config.Logger.With("component", "vault-solver"),
	}, nil
}

// Solve returns the settlement for batch. Orders that cannot be settled are
// skipped; only cancellation of ctx fails the whole attempt.
func (s *Service) Solve(ctx context.Context, batch *entity.BatchAuction) (*entity.Settlement, error) {
	report, err := s.SolveWithReport(ctx, batch)
	if err != nil {
		return nil, err
	}
	return report.Settlement, nil
}

// SolveWithReport is Solve plus the per-order outcomes.
func (s *Service) SolveWithReport(ctx context.Context, batch *entity.BatchAuction) (*Report, error) {
	if batch == nil {
		return nil, fmt.Errorf("batch cannot be nil")
	}

	start := time.Now()
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "vault_solver.solve",
		trace.WithAttributes(
			attribute.Int64("auction.id", batch.AuctionLabel()),
			attribute.Int("auction.orders", len(batch.Orders)),
		),
	)
	defer span.End()

	logger := s.logger.With("auction", batch.AuctionLabel())

	orders := Classify(batch.Orders, s.config.Vaults)
	span.SetAttributes(attribute.Int("auction.eligible_orders", len(orders)))
	if len(orders) == 0 {
		logger.Info("nothing to settle", "orders", len(batch.Orders), "reason", ErrNoEligibleOrders)
		s.metrics.RecordSolve(ctx, time.Since(start), 0)
		return &Report{Settlement: entity.NewSettlement(), Orders: []OrderResult{}}, nil
	}

	outcomes := make([]orderOutcome, len(orders))
	g := new(errgroup.Group)
	g.SetLimit(s.config.MaxConcurrentReads)
	for i, order := range orders {
		g.Go(func() error {
			outcomes[i] = s.evaluate(ctx, batch, order)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "solve cancelled")
		return nil, fmt.Errorf("solving auction %d: %w", batch.AuctionLabel(), err)
	}

	report := s.assemble(ctx, logger, outcomes)
	s.updateHealth(outcomes)

	duration := time.Since(start)
	s.metrics.RecordSolve(ctx, duration, report.Accepted())
	span.SetAttributes(
		attribute.Int("settlement.orders", report.Accepted()),
		attribute.Int("settlement.interactions", len(report.Settlement.Interactions)),
	)

	if report.Settlement.IsEmpty() {
		logger.Warn("no eligible order could be settled",
			"eligible", len(orders),
			"duration", duration)
	} else {
		logger.Info("solved auction",
			"eligible", len(orders),
			"accepted", report.Accepted(),
			"duration", duration)
	}

	s.archive(ctx, batch, report)
	return report, nil
}

// Close waits for pending archive uploads.
func (s *Service) Close() {
	s.archiving.Wait()
}

// archive uploads the auction in the background. The upload outlives the
// request but not ArchiveTimeout; failures are only logged.
func (s *Service) archive(ctx context.Context, batch *entity.BatchAuction, report *Report) {
	if s.config.Archive == nil {
		return
	}

	record := &entity.AuctionRecord{
		AuctionID:   batch.AuctionLabel(),
		Environment: s.config.Environment,
		SolvedAt:    time.Now().UTC(),
		Auction:     batch,
		Settlement:  report.Settlement,
		Outcomes:    make([]entity.OrderOutcome, 0, len(report.Orders)),
	}
	for _, r := range report.Orders {
		outcome := entity.OrderOutcome{OrderID: r.OrderID, Status: string(r.Status), SettlementID: r.SettlementID}
		if r.Err != nil {
			outcome.Error = r.Err.Error()
		}
		record.Outcomes = append(record.Outcomes, outcome)
	}

	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ArchiveTimeout)
	s.archiving.Add(1)
	go func() {
		defer s.archiving.Done()
		defer cancel()
		if err := s.config.Archive.Archive(archiveCtx, record); err != nil {
			s.logger.Warn("failed to archive auction", "auction", record.Name(), "error", err)
		}
	}()
}

// IsReady returns true once the service is constructed.
func (s *Service) IsReady() bool {
	return true
}

// IsHealthy returns false while chain reads are failing on the transport.
func (s *Service) IsHealthy() bool {
	return !s.unhealthy.Load()
}

// orderOutcome carries everything the fold needs for one order.
type orderOutcome struct {
	order        entity.Order
	status       OrderStatus
	convertible  entity.Amount
	interactions [2]entity.Interaction
	err          error

	// readAttempted and readTransient feed the health flag.
	readAttempted bool
	readTransient bool
}

// evaluate runs the per-order pipeline up to, but not including, assembly.
func (s *Service) evaluate(ctx context.Context, batch *entity.BatchAuction, order entity.Order) orderOutcome {
	out := orderOutcome{order: order}

	if err := order.Validate(); err != nil {
		out.status, out.err = StatusInvalidOrder, err
		return out
	}

	pair, err := s.readPair(ctx, order)
	out.readAttempted = true
	if err != nil {
		out.status, out.err = StatusChainReadFailed, err
		out.readTransient = isTransient(err)
		return out
	}
	s.checkRegistry(batch, order, pair)

	convertible, err := ConvertibleShares(
		order.SellAmount,
		pair.Asset.Decimals,
		pair.Vault.Decimals,
		pair.Vault.PricePerShare,
		s.config.Rounding,
	)
	if err != nil {
		out.status, out.err = StatusRateFailed, err
		return out
	}
	out.convertible = convertible

	if err := CheckAcceptable(order, convertible); err != nil {
		out.status, out.err = StatusInsufficientAmount, err
		return out
	}

	interactions, err := s.builder.Build(order)
	if err != nil {
		out.status, out.err = StatusEncodingFailed, err
		return out
	}

	out.status = StatusAccepted
	out.interactions = interactions
	return out
}

func (s *Service) readPair(ctx context.Context, order entity.Order) (*entity.VaultPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readCtx, cancel := context.WithTimeout(ctx, s.config.ReadTimeout)
	defer cancel()

	pair, err := s.reader.ReadVaultPair(readCtx, order.SellToken, order.BuyToken)
	if err != nil {
		return nil, fmt.Errorf("reading chain state for order %d: %w", order.ID, err)
	}
	return pair, nil
}

// checkRegistry warns when the auction's token registry disagrees with
// chain decimals. Chain state wins.
func (s *Service) checkRegistry(batch *entity.BatchAuction, order entity.Order, pair *entity.VaultPair) {
	for _, side := range []entity.AssetState{pair.Asset, pair.Vault.AssetState} {
		info, ok := batch.Tokens[side.Address]
		if !ok || info.Decimals == nil || *info.Decimals == side.Decimals {
			continue
		}
		s.logger.Warn("token registry decimals differ from chain",
			"order", order.ID,
			"token", side.Label(),
			"registry", *info.Decimals,
			"chain", side.Decimals)
	}
}

// assemble folds outcomes in ascending order ID.
func (s *Service) assemble(ctx context.Context, logger *slog.Logger, outcomes []orderOutcome) *Report {
	assembler := NewAssembler()
	results := make([]OrderResult, 0, len(outcomes))

	for _, out := range outcomes {
		result := OrderResult{OrderID: out.order.ID, Status: out.status, Err: out.err}
		if !out.convertible.IsZero() || out.status == StatusInsufficientAmount {
			convertible := out.convertible
			result.Convertible = &convertible
		}

		switch out.status {
		case StatusAccepted:
			id := assembler.Accept(out.order, out.convertible, out.interactions)
			result.SettlementID = &id
			logger.Debug("accepted order",
				"order", out.order.ID,
				"settlementID", id,
				"sellAmount", out.order.SellAmount.String(),
				"shares", out.convertible.String())
		case StatusInsufficientAmount:
			logger.Info("skipping order", "order", out.order.ID, "status", out.status, "reason", out.err)
		default:
			logger.Warn("order failed", "order", out.order.ID, "status", out.status, "error", out.err)
		}

		s.metrics.RecordOrderOutcome(ctx, string(out.status))
		results = append(results, result)
	}

	return &Report{Settlement: assembler.Settlement(), Orders: results}
}

func (s *Service) updateHealth(outcomes []orderOutcome) {
	attempted, transient := 0, 0
	for _, out := range outcomes {
		if !out.readAttempted {
			continue
		}
		attempted++
		if out.readTransient {
			transient++
		}
	}
	if attempted == 0 {
		return
	}
	down := attempted == transient
	if s.unhealthy.Swap(down) != down {
		s.logger.Warn("chain endpoint health changed", "healthy", !down)
	}
}

// isTransient reports whether err is a transport failure: a read error
// flagged as transient by the adapter, or a per-read timeout.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var transient interface{ Transient() bool }
	return errors.As(err, &transient) && transient.Transient()
}

type noopMetrics struct{}

func (noopMetrics) RecordOrderOutcome(context.Context, string) {}

func (noopMetrics) RecordSolve(context.Context, time.Duration, int) {}
