package vault_solver

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
	"github.com/archon-research/stl/vault-solver/internal/pkg/blockchain/abis"
)

// InteractionBuilder encodes the approve and deposit calls that execute one
// vault deposit.
type InteractionBuilder struct {
	erc20ABI *abi.ABI
	vaultABI *abi.ABI
}

// NewInteractionBuilder loads the ABIs the builder packs against.
func NewInteractionBuilder() (*InteractionBuilder, error) {
	erc20ABI, err := abis.GetERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("loading ERC20 ABI: %w", err)
	}
	vaultABI, err := abis.GetVaultABI()
	if err != nil {
		return nil, fmt.Errorf("loading vault ABI: %w", err)
	}
	return &InteractionBuilder{erc20ABI: erc20ABI, vaultABI: vaultABI}, nil
}

// Build returns approve(vault, sellAmount) on the sell token followed by
// deposit(sellAmount) on the vault.
func (b *InteractionBuilder) Build(order entity.Order) ([2]entity.Interaction, error) {
	var out [2]entity.Interaction

	approveData, err := b.erc20ABI.Pack("approve", order.BuyToken, order.SellAmount.Big())
	if err != nil {
		return out, &EncodingError{OrderID: order.ID, Method: "approve", Err: err}
	}
	depositData, err := b.vaultABI.Pack("deposit", order.SellAmount.Big())
	if err != nil {
		return out, &EncodingError{OrderID: order.ID, Method: "deposit", Err: err}
	}

	out[0] = entity.NewCallInteraction(order.SellToken, approveData)
	out[1] = entity.NewCallInteraction(order.BuyToken, depositData)
	return out, nil
}
