package vault_solver

import (
	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
)

// unitPrice is the placeholder reference price set for both sides of every
// deposit.
var unitPrice = entity.NewAmount(1)

// Assembler folds accepted orders into a settlement. It is not safe for
// concurrent use; the solve loop owns it.
type Assembler struct {
	settlement *entity.Settlement
	nextID     uint64
}

// NewAssembler returns an assembler holding an empty settlement.
func NewAssembler() *Assembler {
	return &Assembler{settlement: entity.NewSettlement()}
}

// Accept records order under the next settlement identifier and appends its
// interactions contiguously. Existing prices are never overwritten.
func (a *Assembler) Accept(order entity.Order, convertible entity.Amount, interactions [2]entity.Interaction) uint64 {
	id := a.nextID
	a.nextID++

	a.settlement.Orders[id] = entity.ExecutedOrder{
		ExecSellAmount: order.SellAmount,
		ExecBuyAmount:  convertible,
	}
	a.settlement.Interactions = append(a.settlement.Interactions, interactions[0], interactions[1])
	a.settlement.AddPrice(order.SellToken, unitPrice)
	a.settlement.AddPrice(order.BuyToken, unitPrice)
	return id
}

// Settlement returns the settlement built so far.
func (a *Assembler) Settlement() *entity.Settlement {
	return a.settlement
}
