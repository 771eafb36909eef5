// Package testutil provides mocks and fixtures shared by the solver's tests.
package testutil

import (
	"io"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
)

// Well-known fixtures. The vault is the vTERC test vault on Gnosis chain.
var (
	TokenAddr  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	VaultAddr  = common.HexToAddress("0xe4cb7cfd027c024aca339026b1e70ff68f82305b")
	OtherVault = common.HexToAddress("0x19D97D8fA813EE2f51aD4B4e04EA08bAf4DFfC28")
	OtherToken = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

// DiscardLogger returns an slog.Logger that writes to io.Discard.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WAD returns n * 1e18.
func WAD(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// Amount converts b to an entity.Amount, panicking on invalid input.
func Amount(b *big.Int) entity.Amount {
	a, err := entity.AmountFromBig(b)
	if err != nil {
		panic(err)
	}
	return a
}

// VaultPair builds a chain snapshot for asset/vault with the given decimals
// and price per share.
func VaultPair(asset, vault common.Address, assetDecimals, vaultDecimals uint8, pricePerShare *big.Int) *entity.VaultPair {
	return &entity.VaultPair{
		Asset: entity.AssetState{Address: asset, Decimals: assetDecimals},
		Vault: entity.VaultState{
			AssetState:    entity.AssetState{Address: vault, Decimals: vaultDecimals},
			PricePerShare: Amount(pricePerShare),
		},
	}
}

// DepositOrder returns an order selling sell units of asset for at least buy
// shares of vault.
func DepositOrder(id uint64, asset, vault common.Address, sell, buy uint64) entity.Order {
	return entity.Order{
		ID:         id,
		SellToken:  asset,
		BuyToken:   vault,
		SellAmount: entity.NewAmount(sell),
		BuyAmount:  entity.NewAmount(buy),
	}
}
