package entity

import (
	"encoding/json"
	"testing"
)

const batchJSON = `{
	"tokens": {
		"0x6b175474e89094c44da98b954eedeac495271d0f": {"decimals": 18, "alias": "DAI"},
		"0xe4cb7cfd027c024aca339026b1e70ff68f82305b": {"alias": "vTERC"}
	},
	"orders": {
		"7": {
			"sell_token": "0x6b175474e89094c44da98b954eedeac495271d0f",
			"buy_token": "0xe4cb7cfd027c024aca339026b1e70ff68f82305b",
			"sell_amount": "1000",
			"buy_amount": "900",
			"allow_partial_fill": false,
			"is_sell_order": true
		},
		"2": {
			"sell_token": "0xe4cb7cfd027c024aca339026b1e70ff68f82305b",
			"buy_token": "0x6b175474e89094c44da98b954eedeac495271d0f",
			"sell_amount": "5",
			"buy_amount": "5"
		}
	},
	"amms": {"0": {"kind": "ConstantProduct"}},
	"metadata": {"environment": "xdai", "auction_id": 42}
}`

func TestBatchAuction_UnmarshalJSON(t *testing.T) {
	var batch BatchAuction
	if err := json.Unmarshal([]byte(batchJSON), &batch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(batch.Orders) != 2 {
		t.Fatalf("len(Orders) = %d, want 2", len(batch.Orders))
	}
	for id, order := range batch.Orders {
		if order.ID != id {
			t.Errorf("order under key %d has ID %d", id, order.ID)
		}
	}

	order := batch.Orders[7]
	if order.SellToken != testToken || order.BuyToken != testVault {
		t.Errorf("unexpected tokens: %s -> %s", order.SellToken.Hex(), order.BuyToken.Hex())
	}
	if order.SellAmount.Cmp(NewAmount(1000)) != 0 || order.BuyAmount.Cmp(NewAmount(900)) != 0 {
		t.Errorf("unexpected amounts: %s / %s", order.SellAmount, order.BuyAmount)
	}
	if !order.IsSellOrder {
		t.Error("IsSellOrder = false, want true")
	}

	info := batch.Tokens[testToken]
	if info.Decimals == nil || *info.Decimals != 18 || info.Alias != "DAI" {
		t.Errorf("unexpected token info %+v", info)
	}
	if batch.Tokens[testVault].Decimals != nil {
		t.Error("vault registry entry should have no decimals")
	}

	if got := batch.AuctionLabel(); got != 42 {
		t.Errorf("AuctionLabel() = %d, want 42", got)
	}
	if len(batch.AMMs) == 0 {
		t.Error("AMMs should be preserved as raw JSON")
	}
}

func TestBatchAuction_AuctionLabel(t *testing.T) {
	if (&BatchAuction{}).AuctionLabel() != -1 {
		t.Error("AuctionLabel() without metadata should be -1")
	}
}

func TestBatchAuction_RejectsBadAmount(t *testing.T) {
	var batch BatchAuction
	err := json.Unmarshal([]byte(`{"orders":{"0":{"sell_amount":"abc"}}}`), &batch)
	if err == nil {
		t.Fatal("expected error for malformed amount")
	}
}
