package entity

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// BatchAuction is one solver instance: the orders to settle, the token
// registry and liquidity the solver may use. Liquidity is accepted but not
// interpreted.
type BatchAuction struct {
	Orders   map[uint64]Order             `json:"orders"`
	Tokens   map[common.Address]TokenInfo `json:"tokens"`
	AMMs     json.RawMessage              `json:"amms,omitempty"`
	Metadata *BatchMetadata               `json:"metadata,omitempty"`
}

// BatchMetadata carries auction bookkeeping passed through for logging.
type BatchMetadata struct {
	Environment string `json:"environment,omitempty"`
	AuctionID   *int64 `json:"auction_id,omitempty"`
	GasPrice    string `json:"gas_price,omitempty"`
}

// TokenInfo is the batch's registry entry for a token. Decimals is optional
// because the registry does not know every token.
type TokenInfo struct {
	Decimals *uint8 `json:"decimals,omitempty"`
	Alias    string `json:"alias,omitempty"`
}

// UnmarshalJSON decodes the batch and stamps every order with its map key.
func (b *BatchAuction) UnmarshalJSON(data []byte) error {
	type batchAlias BatchAuction
	var raw batchAlias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for id, order := range raw.Orders {
		order.ID = id
		raw.Orders[id] = order
	}
	*b = BatchAuction(raw)
	return nil
}

// AuctionLabel returns the auction id for logs, or -1 when absent.
func (b *BatchAuction) AuctionLabel() int64 {
	if b.Metadata == nil || b.Metadata.AuctionID == nil {
		return -1
	}
	return *b.Metadata.AuctionID
}
