package testutil

import (
	"math/big"
	"testing"

	"github.com/archon-research/stl/vault-solver/internal/pkg/blockchain/abis"
)

// PackDecimals ABI-encodes decimals() return data (uint8).
func PackDecimals(t *testing.T, decimals uint8) []byte {
	t.Helper()
	erc20ABI, err := abis.GetERC20ABI()
	if err != nil {
		t.Fatalf("loading ERC20 ABI: %v", err)
	}
	data, err := erc20ABI.Methods["decimals"].Outputs.Pack(decimals)
	if err != nil {
		t.Fatalf("packing decimals: %v", err)
	}
	return data
}

// PackName ABI-encodes name() return data (string).
func PackName(t *testing.T, name string) []byte {
	t.Helper()
	erc20ABI, err := abis.GetERC20ABI()
	if err != nil {
		t.Fatalf("loading ERC20 ABI: %v", err)
	}
	data, err := erc20ABI.Methods["name"].Outputs.Pack(name)
	if err != nil {
		t.Fatalf("packing name: %v", err)
	}
	return data
}

// PackPricePerFullShare ABI-encodes getPricePerFullShare() return data (uint256).
func PackPricePerFullShare(t *testing.T, price *big.Int) []byte {
	t.Helper()
	vaultABI, err := abis.GetVaultABI()
	if err != nil {
		t.Fatalf("loading vault ABI: %v", err)
	}
	data, err := vaultABI.Methods["getPricePerFullShare"].Outputs.Pack(price)
	if err != nil {
		t.Fatalf("packing price per share: %v", err)
	}
	return data
}

// MulticallResult matches the multicall3 aggregate3 output tuple.
type MulticallResult struct {
	Success    bool
	ReturnData []byte
}
