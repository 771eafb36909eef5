package outbound

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
)

// ChainStateReader supplies the live on-chain state needed to price a
// deposit of asset into vault: both decimal precisions and the vault's
// current price per full share. Implementations must not cache results
// across calls.
type ChainStateReader interface {
	ReadVaultPair(ctx context.Context, asset, vault common.Address) (*entity.VaultPair, error)
}
