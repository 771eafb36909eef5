package outbound

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Multicaller batches read-only contract calls into one round trip.
// A nil blockNumber reads at the latest block.
type Multicaller interface {
	Execute(ctx context.Context, calls []Call, blockNumber *big.Int) ([]Result, error)
	Address() common.Address
}

// Call is a single eth_call inside a batch.
type Call struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// Result is the outcome of one Call, positionally matched to the request.
type Result struct {
	Success    bool
	ReturnData []byte
}
