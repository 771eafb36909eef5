package vault_solver

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/stl/vault-solver/internal/pkg/blockchain/abis"
	"github.com/archon-research/stl/vault-solver/internal/testutil"
)

func TestInteractionBuilder_Build(t *testing.T) {
	builder, err := NewInteractionBuilder()
	if err != nil {
		t.Fatalf("NewInteractionBuilder: %v", err)
	}

	order := testutil.DepositOrder(4, testutil.TokenAddr, testutil.VaultAddr, 1000, 900)
	got, err := builder.Build(order)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	approve, deposit := got[0], got[1]
	if approve.Target != testutil.TokenAddr {
		t.Errorf("approve target = %s, want sell token", approve.Target.Hex())
	}
	if deposit.Target != testutil.VaultAddr {
		t.Errorf("deposit target = %s, want vault", deposit.Target.Hex())
	}
	if !bytes.HasPrefix(approve.CallData, []byte{0x09, 0x5e, 0xa7, 0xb3}) {
		t.Errorf("approve selector = %x", approve.CallData[:4])
	}
	if !bytes.HasPrefix(deposit.CallData, []byte{0xb6, 0xb5, 0x5f, 0x25}) {
		t.Errorf("deposit selector = %x", deposit.CallData[:4])
	}

	for i, in := range got {
		if !in.Value.IsZero() {
			t.Errorf("interaction %d value = %s, want 0", i, in.Value)
		}
		if in.ExecPlan != nil {
			t.Errorf("interaction %d has an exec plan", i)
		}
		if in.Inputs == nil || in.Outputs == nil || len(in.Inputs) != 0 || len(in.Outputs) != 0 {
			t.Errorf("interaction %d token flows = %v / %v, want empty", i, in.Inputs, in.Outputs)
		}
	}

	erc20ABI, _ := abis.GetERC20ABI()
	args, err := erc20ABI.Methods["approve"].Inputs.Unpack(approve.CallData[4:])
	if err != nil {
		t.Fatalf("unpack approve: %v", err)
	}
	if spender := args[0].(common.Address); spender != testutil.VaultAddr {
		t.Errorf("approve spender = %s, want vault", spender.Hex())
	}
	if amount := args[1].(*big.Int); amount.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("approve amount = %s, want 1000", amount)
	}

	vaultABI, _ := abis.GetVaultABI()
	args, err = vaultABI.Methods["deposit"].Inputs.Unpack(deposit.CallData[4:])
	if err != nil {
		t.Fatalf("unpack deposit: %v", err)
	}
	if amount := args[0].(*big.Int); amount.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("deposit amount = %s, want full sell amount 1000", amount)
	}
}
