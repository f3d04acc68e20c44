package inbound

import (
	"context"
	"time"

	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

//go:generate mockgen -source=auction_service.go -destination=mock_auction_service.go -package=inbound

// AuctionService defines the interface for lot lifecycle operations
type AuctionService interface {
	// GenerateNextItem settles the ended lot (if any) and opens a freshly generated one
	GenerateNextItem(ctx context.Context) (*NewItemSummary, error)

	// GetActiveLot retrieves the active lot together with its derived state
	GetActiveLot(ctx context.Context) (*LotView, error)

	// CheckLotEnded reports whether the given lot has passed its deadline
	CheckLotEnded(ctx context.Context, itemID uuid.UUID) (*shared.LotEndResult, error)
}

// BidService defines the interface for bid operations
type BidService interface {
	// PlaceBid places a bid on the active lot
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*BidAck, error)
}

// UserService defines the interface for bidder operations
type UserService interface {
	// EnsureUser returns the user, creating it with the starting balance on first sight
	EnsureUser(ctx context.Context, req EnsureUserRequest) (*shared.User, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, userID string) (*shared.User, error)

	// ListUsers retrieves every known user
	ListUsers(ctx context.Context) ([]*shared.User, error)
}

// request to place a bid
type PlaceBidRequest struct {
	UserID     string `json:"user_id"`
	ScheduleID int64  `json:"schedule_id"`
	Amount     int64  `json:"amount"`
}

// Validate checks the request shape; business rules are checked by the service
func (r PlaceBidRequest) Validate() error {
	if r.UserID == "" {
		return shared.ErrUserIDRequired
	}
	if r.ScheduleID == 0 {
		return shared.ErrScheduleIDRequired
	}
	if r.Amount <= 0 {
		return shared.ErrInvalidAmount
	}
	return nil
}

// request to ensure a user exists
type EnsureUserRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BidAck is returned for an accepted bid
type BidAck struct {
	ItemID          uuid.UUID `json:"item_id"`
	ScheduleID      int64     `json:"schedule_id"`
	CurrentBid      int64     `json:"current_bid"`
	HighestBidderID string    `json:"highest_bidder_id"`
	Deadline        time.Time `json:"deadline"`
}

// NewItemSummary describes the lot opened by GenerateNextItem and the settlement that preceded it
type NewItemSummary struct {
	ID            uuid.UUID                `json:"id"`
	ScheduleID    int64                    `json:"schedule_id"`
	Name          string                   `json:"name"`
	StartingPrice int64                    `json:"starting_price"`
	Deadline      time.Time                `json:"deadline"`
	Settlement    *shared.SettlementResult `json:"settlement,omitempty"`
}

// LotView is the active lot as seen at a point in time
type LotView struct {
	Item       *item.Item `json:"item"`
	State      item.State `json:"state"`
	ObservedAt time.Time  `json:"observed_at"`
}
