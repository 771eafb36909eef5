package vault_solver

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEligibleOrders is logged when no order in a batch buys a known vault.
	ErrNoEligibleOrders = errors.New("no eligible vault deposit orders")

	// ErrInsufficientConvertibleAmount means the sell amount converts to fewer
	// shares than the order asks for.
	ErrInsufficientConvertibleAmount = errors.New("insufficient convertible amount")

	// ErrConvertibleOverflow means the share amount does not fit in 256 bits.
	ErrConvertibleOverflow = errors.New("convertible share amount overflows 256 bits")
)

// EncodingError reports that a call payload for one order could not be packed.
type EncodingError struct {
	OrderID uint64
	Method  string
	Err     error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %s for order %d: %v", e.Method, e.OrderID, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// OrderStatus is the outcome of one filtered order within a solve.
type OrderStatus string

const (
	StatusAccepted           OrderStatus = "accepted"
	StatusInsufficientAmount OrderStatus = "skipped_insufficient_amount"
	StatusInvalidOrder       OrderStatus = "invalid_order"
	StatusChainReadFailed    OrderStatus = "failed_chain_read"
	StatusRateFailed         OrderStatus = "failed_rate"
	StatusEncodingFailed     OrderStatus = "failed_encoding"
)
