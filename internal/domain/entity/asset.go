package entity

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrZeroPricePerShare is returned when a vault reports a share price of zero.
var ErrZeroPricePerShare = errors.New("vault price per share is zero")

// AssetState is a snapshot of an ERC20 token read from chain.
type AssetState struct {
	Address  common.Address
	Name     string // empty when the token does not expose name()
	Decimals uint8
}

// VaultState is a snapshot of a vault share token. PricePerShare is the
// amount of underlying one full share is worth, scaled by 1e18.
type VaultState struct {
	AssetState
	PricePerShare Amount
}

// VaultPair is the chain state needed to price one deposit of Asset into Vault.
type VaultPair struct {
	Asset AssetState
	Vault VaultState
}

// NewVaultPair creates a VaultPair with validation.
func NewVaultPair(asset AssetState, vault VaultState) (*VaultPair, error) {
	p := &VaultPair{Asset: asset, Vault: vault}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *VaultPair) validate() error {
	if p.Asset.Address == (common.Address{}) {
		return fmt.Errorf("asset address must not be zero")
	}
	if p.Vault.Address == (common.Address{}) {
		return fmt.Errorf("vault address must not be zero")
	}
	if p.Vault.PricePerShare.IsZero() {
		return fmt.Errorf("vault %s: %w", p.Vault.Address.Hex(), ErrZeroPricePerShare)
	}
	return nil
}

// Label returns a human readable name for logs, falling back to the address.
func (a AssetState) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Address.Hex()
}
