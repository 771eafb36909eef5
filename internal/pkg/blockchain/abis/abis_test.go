package abis

import (
	"bytes"
	"testing"
)

func TestMethodSelectors(t *testing.T) {
	erc20, err := GetERC20ABI()
	if err != nil {
		t.Fatalf("loading ERC20 ABI: %v", err)
	}
	vault, err := GetVaultABI()
	if err != nil {
		t.Fatalf("loading vault ABI: %v", err)
	}
	multicall, err := GetMulticall3ABI()
	if err != nil {
		t.Fatalf("loading multicall3 ABI: %v", err)
	}

	tests := []struct {
		name     string
		selector []byte
		want     []byte
	}{
		{"approve", erc20.Methods["approve"].ID, []byte{0x09, 0x5e, 0xa7, 0xb3}},
		{"decimals", erc20.Methods["decimals"].ID, []byte{0x31, 0x3c, 0xe5, 0x67}},
		{"name", erc20.Methods["name"].ID, []byte{0x06, 0xfd, 0xde, 0x03}},
		{"deposit", vault.Methods["deposit"].ID, []byte{0xb6, 0xb5, 0x5f, 0x25}},
		{"getPricePerFullShare", vault.Methods["getPricePerFullShare"].ID, []byte{0x77, 0xc7, 0xb8, 0xfc}},
		{"aggregate3", multicall.Methods["aggregate3"].ID, []byte{0x82, 0xad, 0x56, 0xcb}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.selector, tt.want) {
				t.Errorf("selector = %x, want %x", tt.selector, tt.want)
			}
		})
	}
}

func TestParseABI_Invalid(t *testing.T) {
	if _, err := ParseABI(`not json`); err == nil {
		t.Fatal("expected error for malformed ABI")
	}
}
