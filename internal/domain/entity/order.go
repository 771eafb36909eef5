package entity

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Order is a limit order taken from a batch auction. ID is the key the order
// was submitted under and is unique within the batch.
type Order struct {
	ID               uint64         `json:"-"`
	SellToken        common.Address `json:"sell_token"`
	BuyToken         common.Address `json:"buy_token"`
	SellAmount       Amount         `json:"sell_amount"`
	BuyAmount        Amount         `json:"buy_amount"`
	AllowPartialFill bool           `json:"allow_partial_fill"`
	IsSellOrder      bool           `json:"is_sell_order"`
}

// ErrInvalidOrder is wrapped by every Order validation failure.
var ErrInvalidOrder = errors.New("invalid order")

// Validate checks that the order can be settled at all.
func (o Order) Validate() error {
	if o.SellToken == (common.Address{}) {
		return fmt.Errorf("%w %d: sell token is the zero address", ErrInvalidOrder, o.ID)
	}
	if o.BuyToken == (common.Address{}) {
		return fmt.Errorf("%w %d: buy token is the zero address", ErrInvalidOrder, o.ID)
	}
	if o.SellToken == o.BuyToken {
		return fmt.Errorf("%w %d: sell and buy token are both %s", ErrInvalidOrder, o.ID, o.SellToken.Hex())
	}
	if o.SellAmount.IsZero() {
		return fmt.Errorf("%w %d: sell amount is zero", ErrInvalidOrder, o.ID)
	}
	return nil
}
