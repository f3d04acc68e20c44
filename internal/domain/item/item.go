package item

import (
	"time"

	"github.com/google/uuid"
)

// State is the derived bidding state of the auction house
type State string

const (
	StateNoActiveLot State = "no_active_lot"
	StateOpen        State = "open"
	StateEnded       State = "ended"
)

// Item represents the lot being auctioned
type Item struct {
	ID              uuid.UUID `json:"id"`
	ScheduleID      int64     `json:"schedule_id"`
	Name            string    `json:"name"`
	StartingPrice   int64     `json:"starting_price"`
	CurrentBid      int64     `json:"current_bid"`
	HighestBidderID string    `json:"highest_bidder_id,omitempty"`
	Deadline        time.Time `json:"deadline"`
	CreatedAt       time.Time `json:"created_at"`
}

// New creates an open lot with no bids
func New(scheduleID int64, name string, startingPrice int64, now time.Time, duration time.Duration) *Item {
	return &Item{
		ID:            uuid.New(),
		ScheduleID:    scheduleID,
		Name:          name,
		StartingPrice: startingPrice,
		CurrentBid:    startingPrice,
		Deadline:      now.Add(duration),
		CreatedAt:     now,
	}
}

// StateOf returns the state for a possibly missing lot
func StateOf(it *Item, now time.Time) State {
	if it == nil {
		return StateNoActiveLot
	}
	return it.StateAt(now)
}

// StateAt returns StateOpen while now is before the deadline
func (i *Item) StateAt(now time.Time) State {
	if now.Before(i.Deadline) {
		return StateOpen
	}
	return StateEnded
}

// IsOpenAt returns true if bids are accepted at now
func (i *Item) IsOpenAt(now time.Time) bool {
	return i.StateAt(now) == StateOpen
}

// HasBids returns true once someone holds the high bid
func (i *Item) HasBids() bool {
	return i.HighestBidderID != ""
}

// Winner returns the highest bidder, or nil
func (i *Item) Winner() *string {
	if !i.HasBids() {
		return nil
	}
	winner := i.HighestBidderID
	return &winner
}

// Beats reports whether amount outbids the current price
func (i *Item) Beats(amount int64) bool {
	return amount > i.CurrentBid
}

// ApplyBid records an accepted bid and pushes the deadline to now+extension
func (i *Item) ApplyBid(userID string, amount int64, now time.Time, extension time.Duration) {
	i.CurrentBid = amount
	i.HighestBidderID = userID
	i.Deadline = now.Add(extension)
}

// NextScheduleID returns a schedule id derived from now that is strictly greater than previous
func NextScheduleID(now time.Time, previous int64) int64 {
	id := now.UnixMilli()
	if id <= previous {
		return previous + 1
	}
	return id
}
