package shared

import (
	"time"

	"github.com/google/uuid"
)

// SettlementResult describes the payout made when a lot is retired
type SettlementResult struct {
	ItemID        uuid.UUID `json:"item_id"`
	ScheduleID    int64     `json:"schedule_id"`
	Name          string    `json:"name"`
	WinnerID      *string   `json:"winner_id,omitempty"`
	WinningBid    int64     `json:"winning_bid"`
	SellValue     int64     `json:"sell_value"`
	Payout        int64     `json:"payout"`
	PayoutApplied bool      `json:"payout_applied"`
	NewBalance    *int64    `json:"new_balance,omitempty"`
	SettledAt     time.Time `json:"settled_at"`
}

// HasWinner reports whether anyone bid on the retired lot
func (r *SettlementResult) HasWinner() bool {
	return r.WinnerID != nil
}

// LotEndResult represents the state of a lot whose deadline has been reached
type LotEndResult struct {
	ItemID          uuid.UUID
	ScheduleID      int64
	Ended           bool
	Deadline        time.Time
	HighestBidderID *string
	CurrentBid      int64
}
