package entity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Interaction is one on-chain call the settlement executor replays in order.
type Interaction struct {
	Target   common.Address `json:"target"`
	Value    Amount         `json:"value"`
	CallData hexutil.Bytes  `json:"call_data"`
	ExecPlan *ExecPlan      `json:"exec_plan"`
	Inputs   []TokenAmount  `json:"inputs"`
	Outputs  []TokenAmount  `json:"outputs"`
}

// ExecPlan positions an interaction inside a multi-step settlement.
// Vault deposits never set it.
type ExecPlan struct {
	Sequence uint32 `json:"sequence"`
	Position uint32 `json:"position"`
	Internal bool   `json:"internal"`
}

// TokenAmount is a token flow into or out of an interaction.
type TokenAmount struct {
	Amount Amount         `json:"amount"`
	Token  common.Address `json:"token"`
}

// NewCallInteraction returns a zero-value call to target with the given payload.
func NewCallInteraction(target common.Address, callData []byte) Interaction {
	return Interaction{
		Target:   target,
		CallData: callData,
		Inputs:   []TokenAmount{},
		Outputs:  []TokenAmount{},
	}
}
