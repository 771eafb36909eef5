package entity

import (
	"strconv"
	"time"
)

// AuctionRecord is what the solver keeps of one solved auction for replay:
// the input, the answer and why each eligible order ended up where it did.
type AuctionRecord struct {
	AuctionID   int64          `json:"auction_id"`
	Environment string         `json:"environment,omitempty"`
	SolvedAt    time.Time      `json:"solved_at"`
	Auction     *BatchAuction  `json:"auction"`
	Settlement  *Settlement    `json:"settlement"`
	Outcomes    []OrderOutcome `json:"outcomes"`
}

// OrderOutcome is the archived form of one order's result.
type OrderOutcome struct {
	OrderID      uint64  `json:"order_id"`
	Status       string  `json:"status"`
	SettlementID *uint64 `json:"settlement_id,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Name identifies the record in storage: the auction id, or the solve time
// in nanoseconds for auctions without one.
func (r *AuctionRecord) Name() string {
	if r.AuctionID >= 0 {
		return strconv.FormatInt(r.AuctionID, 10)
	}
	return "t" + strconv.FormatInt(r.SolvedAt.UnixNano(), 10)
}
