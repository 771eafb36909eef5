package entity

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSettlement_AddPriceFirstWriteWins(t *testing.T) {
	s := NewSettlement()

	if !s.AddPrice(testToken, NewAmount(1)) {
		t.Fatal("first insert should succeed")
	}
	if s.AddPrice(testToken, NewAmount(5)) {
		t.Error("second insert for the same token should be rejected")
	}
	if !s.AddPrice(testVault, NewAmount(2)) {
		t.Error("insert for a different token should succeed")
	}

	if got := s.Prices[testToken]; got.Cmp(NewAmount(1)) != 0 {
		t.Errorf("price for token = %s, want 1", got)
	}
	if len(s.Prices) != 2 {
		t.Errorf("len(Prices) = %d, want 2", len(s.Prices))
	}
}

func TestSettlement_EmptyJSON(t *testing.T) {
	s := NewSettlement()
	if !s.IsEmpty() {
		t.Error("new settlement should be empty")
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"orders":{},"prices":{},"interaction_data":[]}`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}
}

func TestSettlement_InteractionJSON(t *testing.T) {
	s := NewSettlement()
	s.Orders[0] = ExecutedOrder{ExecSellAmount: NewAmount(1000), ExecBuyAmount: NewAmount(500)}
	s.Interactions = append(s.Interactions, NewCallInteraction(testToken, []byte{0x09, 0x5e, 0xa7, 0xb3}))

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, fragment := range []string{
		`"0":{"exec_sell_amount":"1000","exec_buy_amount":"500"}`,
		`"call_data":"0x095ea7b3"`,
		`"value":"0"`,
		`"exec_plan":null`,
		`"inputs":[]`,
		`"target":"` + strings.ToLower(testToken.Hex()) + `"`,
	} {
		if !strings.Contains(string(data), fragment) {
			t.Errorf("encoded settlement %s missing %s", data, fragment)
		}
	}
	if s.IsEmpty() {
		t.Error("settlement with an order should not be empty")
	}
}

func TestNewCallInteraction(t *testing.T) {
	i := NewCallInteraction(common.HexToAddress("0x01"), []byte{0xaa})
	if !i.Value.IsZero() {
		t.Errorf("Value = %s, want 0", i.Value)
	}
	if i.ExecPlan != nil || len(i.Inputs) != 0 || len(i.Outputs) != 0 {
		t.Errorf("unexpected plan or token flows: %+v", i)
	}
}
