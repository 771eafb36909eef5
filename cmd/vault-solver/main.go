// Package main runs the vault deposit solver: an HTTP service that answers
// batch auctions with settlements depositing assets into configured vaults.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	httpadapter "github.com/archon-research/stl/vault-solver/internal/adapters/inbound/http"
	"github.com/archon-research/stl/vault-solver/internal/adapters/outbound/chainstate"
	s3adapter "github.com/archon-research/stl/vault-solver/internal/adapters/outbound/s3"
	"github.com/archon-research/stl/vault-solver/internal/adapters/outbound/telemetry"
	"github.com/archon-research/stl/vault-solver/internal/pkg/blockchain"
	"github.com/archon-research/stl/vault-solver/internal/pkg/blockchain/multicall"
	"github.com/archon-research/stl/vault-solver/internal/pkg/env"
	"github.com/archon-research/stl/vault-solver/internal/pkg/retry"
	"github.com/archon-research/stl/vault-solver/internal/ports/outbound"
	"github.com/archon-research/stl/vault-solver/internal/services/vault_solver"
)

const serviceName = "vault-solver"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

type cliConfig struct {
	vaults   vault_solver.VaultSet
	rpcURL   string
	httpAddr string

	maxConcurrentReads int
	readTimeout        time.Duration
	rateLimit          float64
	rateBurst          int
	maxRetries         int
	directCalls        bool
	rounding           vault_solver.Rounding

	otlpEndpoint string
	traceStdout  bool
	environment  string

	archiveBucket string
	archivePrefix string
	awsRegion     string
	s3Endpoint    string
}

func parseConfig(args []string) (cliConfig, error) {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	vaultsFlag := fs.String("vaults", "", "Comma separated vault addresses")
	rpcFlag := fs.String("rpc", "", "Ethereum JSON-RPC URL")
	addrFlag := fs.String("addr", "", "HTTP listen address")
	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}

	vaultList := *vaultsFlag
	if vaultList == "" {
		vaultList = env.Get("VAULT_ADDRESSES", "")
	}
	if vaultList == "" {
		return cliConfig{}, fmt.Errorf("vault addresses not provided (use -vaults flag or VAULT_ADDRESSES env var)")
	}
	vaults, err := vault_solver.ParseVaultSet(vaultList)
	if err != nil {
		return cliConfig{}, fmt.Errorf("parsing vault addresses: %w", err)
	}

	cfg := cliConfig{
		vaults:       vaults,
		rpcURL:       *rpcFlag,
		httpAddr:     *addrFlag,
		otlpEndpoint: env.Get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		environment:  env.Get("ENVIRONMENT", "development"),

		archiveBucket: env.Get("ARCHIVE_BUCKET", ""),
		archivePrefix: env.Get("ARCHIVE_PREFIX", "auctions"),
		awsRegion:     env.Get("AWS_REGION", "eu-west-1"),
		s3Endpoint:    env.Get("AWS_S3_ENDPOINT", ""),
	}
	if cfg.rpcURL == "" {
		cfg.rpcURL = env.Get("ETH_RPC_URL", "")
	}
	if cfg.rpcURL == "" {
		return cliConfig{}, fmt.Errorf("RPC URL not provided (use -rpc flag or ETH_RPC_URL env var)")
	}
	if cfg.httpAddr == "" {
		cfg.httpAddr = env.Get("HTTP_ADDR", ":8080")
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg.maxConcurrentReads, err = env.GetInt("MAX_CONCURRENT_READS", 4)
	collect(err)
	cfg.readTimeout, err = env.GetDuration("READ_TIMEOUT", 10*time.Second)
	collect(err)
	cfg.rateLimit, err = env.GetFloat("RPC_RATE_LIMIT", 20)
	collect(err)
	cfg.rateBurst, err = env.GetInt("RPC_RATE_BURST", 5)
	collect(err)
	cfg.maxRetries, err = env.GetInt("READ_MAX_RETRIES", retry.DefaultConfig().MaxRetries)
	collect(err)
	cfg.directCalls, err = env.GetBool("USE_DIRECT_CALLS", false)
	collect(err)
	cfg.traceStdout, err = env.GetBool("TRACE_STDOUT", false)
	collect(err)
	cfg.rounding, err = vault_solver.ParseRounding(env.Get("ROUNDING", "down"))
	collect(err)

	if cfg.maxConcurrentReads < 1 {
		collect(fmt.Errorf("MAX_CONCURRENT_READS must be at least 1, got %d", cfg.maxConcurrentReads))
	}
	if cfg.maxRetries < 0 {
		collect(fmt.Errorf("READ_MAX_RETRIES must not be negative, got %d", cfg.maxRetries))
	}
	if cfg.rateLimit <= 0 {
		collect(fmt.Errorf("RPC_RATE_LIMIT must be positive, got %v", cfg.rateLimit))
	}

	if len(errs) > 0 {
		return cliConfig{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func run(ctx context.Context, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))
	slog.SetDefault(logger)

	logger.Info("starting vault solver",
		"vaults", cfg.vaults.Addresses(),
		"addr", cfg.httpAddr,
		"directCalls", cfg.directCalls,
		"rounding", cfg.rounding.String())

	shutdownTelemetry, metrics, err := initTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	rpcClient, err := rpc.DialContext(ctx, cfg.rpcURL)
	if err != nil {
		return fmt.Errorf("connecting to Ethereum node: %w", err)
	}
	defer rpcClient.Close()

	var mc outbound.Multicaller
	if cfg.directCalls {
		mc = multicall.NewDirectCaller(rpcClient)
	} else {
		mc, err = multicall.NewClient(ethclient.NewClient(rpcClient), blockchain.Multicall3)
		if err != nil {
			return fmt.Errorf("creating multicall client: %w", err)
		}
	}

	retryConfig := retry.DefaultConfig()
	retryConfig.MaxRetries = cfg.maxRetries

	reader, err := chainstate.NewReader(mc, chainstate.Config{
		Retry:     retryConfig,
		RateLimit: rate.Limit(cfg.rateLimit),
		RateBurst: cfg.rateBurst,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating chain state reader: %w", err)
	}

	archive, err := newArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}

	service, err := vault_solver.NewService(reader, vault_solver.Config{
		Vaults:             cfg.vaults,
		MaxConcurrentReads: cfg.maxConcurrentReads,
		ReadTimeout:        cfg.readTimeout,
		Rounding:           cfg.rounding,
		Archive:            archive,
		Environment:        cfg.environment,
		Logger:             logger,
		Metrics:            metrics,
	})
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	defer service.Close()

	var shuttingDown atomic.Bool
	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Addr:   cfg.httpAddr,
		Logger: logger,
	}, service, service, &shuttingDown)
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting http server: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down...")
	shuttingDown.Store(true)

	if err := server.Shutdown(25 * time.Second); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// newArchive returns the S3 auction archive, or nil when ARCHIVE_BUCKET is
// not set.
func newArchive(ctx context.Context, cfg cliConfig, logger *slog.Logger) (outbound.AuctionArchive, error) {
	if cfg.archiveBucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.awsRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var optFns []func(*s3.Options)
	if cfg.s3Endpoint != "" {
		optFns = append(optFns, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.s3Endpoint)
			o.UsePathStyle = true
		})
	}

	archive, err := s3adapter.NewArchive(awsCfg, s3adapter.ArchiveConfig{
		Bucket: cfg.archiveBucket,
		Prefix: cfg.archivePrefix,
		Logger: logger,
	}, optFns...)
	if err != nil {
		return nil, fmt.Errorf("creating auction archive: %w", err)
	}
	logger.Info("archiving auctions", "bucket", cfg.archiveBucket, "prefix", cfg.archivePrefix)
	return archive, nil
}

// initTelemetry sets up tracing and metrics. Tracing is enabled when an OTLP
// endpoint is configured or TRACE_STDOUT is set.
func initTelemetry(ctx context.Context, cfg cliConfig) (func(context.Context) error, outbound.SolverMetrics, error) {
	var shutdowns []func(context.Context) error

	if cfg.otlpEndpoint != "" || cfg.traceStdout {
		shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
			ServiceName:  serviceName,
			Environment:  cfg.environment,
			OTLPEndpoint: cfg.otlpEndpoint,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("initializing tracer: %w", err)
		}
		shutdowns = append(shutdowns, shutdownTracer)
	}

	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricConfig{
		ServiceName:  serviceName,
		Environment:  cfg.environment,
		OTLPEndpoint: cfg.otlpEndpoint,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initializing metrics: %w", err)
	}
	shutdowns = append(shutdowns, shutdownMetrics)

	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating metrics: %w", err)
	}

	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}
	return shutdown, metrics, nil
}
