// Package chainstate reads the vault and asset state the solver prices
// deposits with, batching every read for one order into a single multicall.
package chainstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
	"github.com/archon-research/stl/vault-solver/internal/pkg/blockchain/abis"
	"github.com/archon-research/stl/vault-solver/internal/pkg/retry"
	"github.com/archon-research/stl/vault-solver/internal/ports/outbound"
)

// revertErrorCode is the JSON-RPC error code nodes use for execution reverts.
const revertErrorCode = 3

// Compile-time assertion that Reader implements ChainStateReader.
var _ outbound.ChainStateReader = (*Reader)(nil)

// Config holds configuration for the chain state reader.
type Config struct {
	// Retry controls how transport failures are retried.
	Retry retry.Config

	// RateLimit caps read batches per second across all orders.
	RateLimit rate.Limit

	// RateBurst is the limiter's bucket size.
	RateBurst int

	// BlockNumber pins reads to a block; nil reads latest.
	BlockNumber *big.Int

	Logger *slog.Logger
}

func configDefaults() Config {
	return Config{
		Retry:     retry.DefaultConfig(),
		RateLimit: rate.Limit(20),
		RateBurst: 5,
		Logger:    slog.Default(),
	}
}

// ChainReadError reports that the state of an asset/vault pair could not be
// read. Retryable is true for transport faults and reads that ran out of
// time, and false when the contracts answered with something unusable.
type ChainReadError struct {
	Asset     common.Address
	Vault     common.Address
	Retryable bool
	Err       error
}

func (e *ChainReadError) Error() string {
	kind := "permanent"
	if e.Retryable {
		kind = "transient"
	}
	return fmt.Sprintf("reading %s/%s (%s): %v", e.Asset.Hex(), e.Vault.Hex(), kind, e.Err)
}

func (e *ChainReadError) Unwrap() error {
	return e.Err
}

// Transient reports whether the read failed on the transport.
func (e *ChainReadError) Transient() bool {
	return e.Retryable
}

// Reader implements outbound.ChainStateReader over a Multicaller.
type Reader struct {
	multicaller outbound.Multicaller
	erc20ABI    *abi.ABI
	vaultABI    *abi.ABI
	limiter     *rate.Limiter
	config      Config
	logger      *slog.Logger
}

// NewReader creates a new chain state reader.
func NewReader(multicaller outbound.Multicaller, config Config) (*Reader, error) {
	if multicaller == nil {
		return nil, fmt.Errorf("multicaller cannot be nil")
	}

	defaults := configDefaults()
	if config.RateLimit == 0 {
		config.RateLimit = defaults.RateLimit
	}
	if config.RateBurst == 0 {
		config.RateBurst = defaults.RateBurst
	}
	if config.Retry == (retry.Config{}) {
		config.Retry = defaults.Retry
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	erc20ABI, err := abis.GetERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("loading ERC20 ABI: %w", err)
	}
	vaultABI, err := abis.GetVaultABI()
	if err != nil {
		return nil, fmt.Errorf("loading vault ABI: %w", err)
	}

	return &Reader{
		multicaller: multicaller,
		erc20ABI:    erc20ABI,
		vaultABI:    vaultABI,
		limiter:     rate.NewLimiter(config.RateLimit, config.RateBurst),
		config:      config,
		logger:      config.Logger.With("component", "chain-state-reader"),
	}, nil
}

// ReadVaultPair reads decimals and names of asset and vault plus the vault's
// price per full share in one batch. Transport failures are retried; a
// revert or undecodable answer fails immediately.
func (r *Reader) ReadVaultPair(ctx context.Context, asset, vault common.Address) (*entity.VaultPair, error) {
	onRetry := func(attempt int, err error, backoff time.Duration) {
		r.logger.Warn("chain read failed, retrying",
			"asset", asset.Hex(),
			"vault", vault.Hex(),
			"attempt", attempt,
			"maxRetries", r.config.Retry.MaxRetries,
			"backoff", backoff,
			"error", err)
	}

	pair, err := retry.Do(ctx, r.config.Retry, retry.NotPermanent, onRetry, func() (*entity.VaultPair, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			// Wait gives up early when the next token would arrive after
			// the deadline. That is a throttled read, not a contract fault.
			if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
				err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
			}
			return nil, retry.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		return r.read(ctx, asset, vault)
	})
	if err != nil {
		return nil, &ChainReadError{
			Asset:     asset,
			Vault:     vault,
			Retryable: !retry.IsPermanent(err) || errors.Is(err, context.DeadlineExceeded),
			Err:       err,
		}
	}
	return pair, nil
}

// Call layout of one read batch.
const (
	idxAssetDecimals = iota
	idxVaultDecimals
	idxPricePerShare
	idxAssetName
	idxVaultName
	numCalls
)

func (r *Reader) read(ctx context.Context, asset, vault common.Address) (*entity.VaultPair, error) {
	calls, err := r.buildCalls(asset, vault)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	results, err := r.multicaller.Execute(ctx, calls, r.config.BlockNumber)
	if err != nil {
		if isRevert(err) {
			return nil, retry.Permanent(fmt.Errorf("executing read batch: %w", err))
		}
		return nil, fmt.Errorf("executing read batch: %w", err)
	}
	if len(results) != numCalls {
		return nil, retry.Permanent(fmt.Errorf("expected %d results, got %d", numCalls, len(results)))
	}
	for _, idx := range []int{idxAssetDecimals, idxVaultDecimals, idxPricePerShare} {
		if !results[idx].Success {
			return nil, retry.Permanent(fmt.Errorf("required call %d reverted", idx))
		}
	}

	assetDecimals, err := unpackDecimals(r.erc20ABI, results[idxAssetDecimals].ReturnData)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("decoding asset decimals: %w", err))
	}
	vaultDecimals, err := unpackDecimals(r.vaultABI, results[idxVaultDecimals].ReturnData)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("decoding vault decimals: %w", err))
	}
	pricePerShare, err := unpackPricePerShare(r.vaultABI, results[idxPricePerShare].ReturnData)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("decoding price per share: %w", err))
	}

	pair, err := entity.NewVaultPair(
		entity.AssetState{
			Address:  asset,
			Name:     r.optionalName(r.erc20ABI, results[idxAssetName]),
			Decimals: assetDecimals,
		},
		entity.VaultState{
			AssetState: entity.AssetState{
				Address:  vault,
				Name:     r.optionalName(r.vaultABI, results[idxVaultName]),
				Decimals: vaultDecimals,
			},
			PricePerShare: pricePerShare,
		},
	)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	r.logger.Debug("read vault pair",
		"asset", pair.Asset.Label(),
		"vault", pair.Vault.Label(),
		"assetDecimals", assetDecimals,
		"vaultDecimals", vaultDecimals,
		"pricePerShare", pricePerShare.String())

	return pair, nil
}

func (r *Reader) buildCalls(asset, vault common.Address) ([]outbound.Call, error) {
	decimalsData, err := r.erc20ABI.Pack("decimals")
	if err != nil {
		return nil, fmt.Errorf("packing decimals: %w", err)
	}
	ppsData, err := r.vaultABI.Pack("getPricePerFullShare")
	if err != nil {
		return nil, fmt.Errorf("packing getPricePerFullShare: %w", err)
	}
	nameData, err := r.erc20ABI.Pack("name")
	if err != nil {
		return nil, fmt.Errorf("packing name: %w", err)
	}

	calls := make([]outbound.Call, numCalls)
	calls[idxAssetDecimals] = outbound.Call{Target: asset, CallData: decimalsData}
	calls[idxVaultDecimals] = outbound.Call{Target: vault, CallData: decimalsData}
	calls[idxPricePerShare] = outbound.Call{Target: vault, CallData: ppsData}
	calls[idxAssetName] = outbound.Call{Target: asset, AllowFailure: true, CallData: nameData}
	calls[idxVaultName] = outbound.Call{Target: vault, AllowFailure: true, CallData: nameData}
	return calls, nil
}

// optionalName decodes a name() result; tokens without a name (or with a
// bytes32 name) yield "".
func (r *Reader) optionalName(contractABI *abi.ABI, result outbound.Result) string {
	if !result.Success || len(result.ReturnData) == 0 {
		return ""
	}
	unpacked, err := contractABI.Unpack("name", result.ReturnData)
	if err != nil || len(unpacked) != 1 {
		return ""
	}
	name, _ := unpacked[0].(string)
	return name
}

func unpackDecimals(contractABI *abi.ABI, data []byte) (uint8, error) {
	unpacked, err := contractABI.Unpack("decimals", data)
	if err != nil {
		return 0, err
	}
	decimals, ok := unpacked[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type %T", unpacked[0])
	}
	return decimals, nil
}

func unpackPricePerShare(vaultABI *abi.ABI, data []byte) (entity.Amount, error) {
	unpacked, err := vaultABI.Unpack("getPricePerFullShare", data)
	if err != nil {
		return entity.Amount{}, err
	}
	price, ok := unpacked[0].(*big.Int)
	if !ok {
		return entity.Amount{}, fmt.Errorf("unexpected price type %T", unpacked[0])
	}
	return entity.AmountFromBig(price)
}

// isRevert reports whether err is a contract revert rather than a transport
// problem. Retrying a revert cannot succeed.
func isRevert(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertErrorCode {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
