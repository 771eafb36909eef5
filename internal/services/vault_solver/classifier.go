package vault_solver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
)

// VaultSet is the set of vault share tokens the solver deposits into.
type VaultSet struct {
	vaults map[common.Address]struct{}
}

// NewVaultSet builds a VaultSet. Duplicates collapse; the zero address and an
// empty set are rejected.
func NewVaultSet(vaults ...common.Address) (VaultSet, error) {
	set := VaultSet{vaults: make(map[common.Address]struct{}, len(vaults))}
	for _, v := range vaults {
		if v == (common.Address{}) {
			return VaultSet{}, fmt.Errorf("vault address must not be zero")
		}
		set.vaults[v] = struct{}{}
	}
	if len(set.vaults) == 0 {
		return VaultSet{}, fmt.Errorf("vault set is empty")
	}
	return set, nil
}

// ParseVaultSet parses a comma separated list of vault addresses.
func ParseVaultSet(list string) (VaultSet, error) {
	var vaults []common.Address
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if !common.IsHexAddress(field) {
			return VaultSet{}, fmt.Errorf("invalid vault address %q", field)
		}
		vaults = append(vaults, common.HexToAddress(field))
	}
	return NewVaultSet(vaults...)
}

// Contains reports whether addr is a configured vault.
func (s VaultSet) Contains(addr common.Address) bool {
	_, ok := s.vaults[addr]
	return ok
}

// Len returns the number of vaults.
func (s VaultSet) Len() int {
	return len(s.vaults)
}

// Addresses returns the vaults in ascending byte order.
func (s VaultSet) Addresses() []common.Address {
	out := make([]common.Address, 0, len(s.vaults))
	for v := range s.vaults {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b common.Address) int { return a.Cmp(b) })
	return out
}

// Classify returns the orders buying one of the vaults, sorted by ID.
func Classify(orders map[uint64]entity.Order, vaults VaultSet) []entity.Order {
	var out []entity.Order
	for _, order := range orders {
		if vaults.Contains(order.BuyToken) {
			out = append(out, order)
		}
	}
	slices.SortFunc(out, func(a, b entity.Order) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}
