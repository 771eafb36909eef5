package vault_solver

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
)

// Rounding selects how a fractional share amount is turned into an integer.
type Rounding int

const (
	// RoundDown floors the share amount; the trader never receives more than
	// the vault would mint.
	RoundDown Rounding = iota
	// RoundHalfUp rounds to the nearest share, ties away from zero.
	RoundHalfUp
)

func (r Rounding) String() string {
	switch r {
	case RoundDown:
		return "down"
	case RoundHalfUp:
		return "half_up"
	default:
		return fmt.Sprintf("Rounding(%d)", int(r))
	}
}

// ParseRounding parses "down" or "half_up". The empty string means RoundDown.
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "down":
		return RoundDown, nil
	case "half_up", "halfup":
		return RoundHalfUp, nil
	default:
		return 0, fmt.Errorf("unknown rounding mode %q", s)
	}
}

// wad is the fixed point scale of getPricePerFullShare.
var wad = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ConvertibleShares returns how many vault shares sellAmount of the asset
// buys at pricePerShare:
//
//	shares = sell * 10^vaultDecimals * 1e18 / (10^assetDecimals * pricePerShare)
//
// The division is exact until the final rounding step.
func ConvertibleShares(
	sellAmount entity.Amount,
	assetDecimals, vaultDecimals uint8,
	pricePerShare entity.Amount,
	rounding Rounding,
) (entity.Amount, error) {
	if pricePerShare.IsZero() {
		return entity.Amount{}, entity.ErrZeroPricePerShare
	}

	num := new(big.Int).Mul(sellAmount.Big(), pow10(vaultDecimals))
	num.Mul(num, wad)
	den := new(big.Int).Mul(pow10(assetDecimals), pricePerShare.Big())

	quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if rounding == RoundHalfUp && rem.Sign() > 0 {
		if new(big.Int).Lsh(rem, 1).Cmp(den) >= 0 {
			quo.Add(quo, big.NewInt(1))
		}
	}

	shares, err := entity.AmountFromBig(quo)
	if err != nil {
		return entity.Amount{}, fmt.Errorf("%w: %v", ErrConvertibleOverflow, err)
	}
	return shares, nil
}

// CheckAcceptable reports ErrInsufficientConvertibleAmount unless convertible
// is positive and covers the order's requested buy amount.
func CheckAcceptable(order entity.Order, convertible entity.Amount) error {
	if convertible.IsZero() {
		return fmt.Errorf("%w: sell amount %s converts to zero shares", ErrInsufficientConvertibleAmount, order.SellAmount)
	}
	if order.BuyAmount.Cmp(convertible) > 0 {
		return fmt.Errorf("%w: want %s shares, can mint %s", ErrInsufficientConvertibleAmount, order.BuyAmount, convertible)
	}
	return nil
}
