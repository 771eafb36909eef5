// Package entity holds the solver's domain model: batch input, chain state
// snapshots and the settlement it produces.
package entity

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Amount is an unsigned 256-bit token amount.
// It encodes to JSON as a decimal string and accepts decimal or 0x-hex input.
type Amount struct {
	value uint256.Int
}

// NewAmount returns an Amount holding v.
func NewAmount(v uint64) Amount {
	var a Amount
	a.value.SetUint64(v)
	return a
}

// AmountFromBig converts b, failing if it is negative or wider than 256 bits.
func AmountFromBig(b *big.Int) (Amount, error) {
	var a Amount
	if b == nil {
		return a, nil
	}
	if b.Sign() < 0 {
		return a, fmt.Errorf("amount must be non-negative, got %s", b)
	}
	if overflow := a.value.SetFromBig(b); overflow {
		return Amount{}, fmt.Errorf("amount %s overflows 256 bits", b)
	}
	return a, nil
}

// ParseAmount parses a decimal or 0x-prefixed hex string.
func ParseAmount(s string) (Amount, error) {
	var a Amount
	if err := a.UnmarshalText([]byte(s)); err != nil {
		return Amount{}, err
	}
	return a, nil
}

// MustParseAmount is ParseAmount for constants and tests; it panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Big returns the amount as a new big.Int.
func (a Amount) Big() *big.Int {
	return a.value.ToBig()
}

func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.value.Cmp(&b.value)
}

func (a Amount) String() string {
	return a.value.Dec()
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.value.Dec()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		return fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		b, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return fmt.Errorf("invalid hex amount %q", s)
		}
		parsed, err := AmountFromBig(b)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	if err := a.value.SetFromDecimal(s); err != nil {
		return fmt.Errorf("invalid decimal amount %q: %w", s, err)
	}
	return nil
}
