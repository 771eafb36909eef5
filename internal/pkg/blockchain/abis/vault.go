package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

// GetVaultABI returns the ABI for yield vaults that price shares through
// getPricePerFullShare() (1e18 fixed point) and mint shares on deposit(uint256).
func GetVaultABI() (*abi.ABI, error) {
	return ParseABI(`[
		{
			"inputs": [],
			"name": "name",
			"outputs": [{"name": "", "type": "string"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "decimals",
			"outputs": [{"name": "", "type": "uint8"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "getPricePerFullShare",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [{"name": "_amount", "type": "uint256"}],
			"name": "deposit",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		}
	]`)
}
