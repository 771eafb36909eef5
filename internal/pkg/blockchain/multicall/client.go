// Package multicall batches read-only contract calls, either through the
// Multicall3 contract or as a JSON-RPC batch of plain eth_calls.
package multicall

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/stl/vault-solver/internal/pkg/blockchain/abis"
	"github.com/archon-research/stl/vault-solver/internal/ports/outbound"
)

// ContractCaller is the subset of ethclient.Client the Multicall3 client uses.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// aggregate3Call mirrors the Multicall3.Call3 tuple for ABI packing.
type aggregate3Call struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// Client implements outbound.Multicaller on top of the Multicall3 contract.
type Client struct {
	caller  ContractCaller
	address common.Address
	abi     *abi.ABI
}

// NewClient creates a Multicall3 client for the contract at multicall3Address.
func NewClient(caller ContractCaller, multicall3Address common.Address) (*Client, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller cannot be nil")
	}
	multicallABI, err := abis.GetMulticall3ABI()
	if err != nil {
		return nil, fmt.Errorf("failed to load multicall3 ABI: %w", err)
	}

	return &Client{
		caller:  caller,
		address: multicall3Address,
		abi:     multicallABI,
	}, nil
}

func (c *Client) Address() common.Address {
	return c.address
}

func (c *Client) Execute(ctx context.Context, calls []outbound.Call, blockNumber *big.Int) ([]outbound.Result, error) {
	if len(calls) == 0 {
		return []outbound.Result{}, nil
	}

	packed := make([]aggregate3Call, len(calls))
	for i, call := range calls {
		packed[i] = aggregate3Call(call)
	}

	data, err := c.abi.Pack("aggregate3", packed)
	if err != nil {
		return nil, fmt.Errorf("failed to pack multicall: %w", err)
	}

	msg := ethereum.CallMsg{
		To:   &c.address,
		Data: data,
	}

	result, err := c.caller.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to call multicall contract at address=%s block=%s calls=%d: %w",
			c.address.Hex(), blockNumberString(blockNumber), len(calls), err)
	}

	unpacked, err := c.abi.Unpack("aggregate3", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack multicall response at block=%s: %w",
			blockNumberString(blockNumber), err)
	}
	if len(unpacked) != 1 {
		return nil, fmt.Errorf("unexpected multicall output count %d", len(unpacked))
	}

	resultsRaw, ok := unpacked[0].([]struct {
		Success    bool   `json:"success"`
		ReturnData []byte `json:"returnData"`
	})
	if !ok {
		return nil, fmt.Errorf("unexpected multicall output type %T", unpacked[0])
	}
	if len(resultsRaw) != len(calls) {
		return nil, fmt.Errorf("expected %d multicall results, got %d", len(calls), len(resultsRaw))
	}

	results := make([]outbound.Result, len(resultsRaw))
	for i, r := range resultsRaw {
		results[i] = outbound.Result{
			Success:    r.Success,
			ReturnData: r.ReturnData,
		}
	}

	return results, nil
}

func blockNumberString(blockNumber *big.Int) string {
	if blockNumber == nil {
		return "latest"
	}
	return blockNumber.String()
}
