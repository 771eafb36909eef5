package entity

import "github.com/ethereum/go-ethereum/common"

// ExecutedOrder is the filled amount of one settled order.
type ExecutedOrder struct {
	ExecSellAmount Amount `json:"exec_sell_amount"`
	ExecBuyAmount  Amount `json:"exec_buy_amount"`
}

// Settlement is the solver's answer for a batch: executed orders keyed by
// settlement-local identifiers, reference prices and the ordered calls that
// realise the trades.
type Settlement struct {
	Orders       map[uint64]ExecutedOrder  `json:"orders"`
	Prices       map[common.Address]Amount `json:"prices"`
	Interactions []Interaction             `json:"interaction_data"`
}

// NewSettlement returns an empty settlement with non-nil collections so that
// it encodes as {} / [] rather than null.
func NewSettlement() *Settlement {
	return &Settlement{
		Orders:       make(map[uint64]ExecutedOrder),
		Prices:       make(map[common.Address]Amount),
		Interactions: []Interaction{},
	}
}

// AddPrice records a reference price for token unless one is already set.
// It reports whether the price was inserted.
func (s *Settlement) AddPrice(token common.Address, price Amount) bool {
	if _, ok := s.Prices[token]; ok {
		return false
	}
	s.Prices[token] = price
	return true
}

// IsEmpty reports whether the settlement executes nothing.
func (s *Settlement) IsEmpty() bool {
	return len(s.Orders) == 0 && len(s.Interactions) == 0
}
