package shared

import "errors"

// Domain-specific errors
var (
	// Bid validation errors, reported to the bidder as-is
	ErrUserNotFound        = errors.New("user not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBidTooLow           = errors.New("bid must be higher than current price")
	ErrLotEnded            = errors.New("auction has ended")

	// Lot lifecycle errors
	ErrLotStillOpen      = errors.New("active lot is still open for bidding")
	ErrActiveLotExists   = errors.New("an active lot already exists")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Validation errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrUserIDRequired = errors.New("user_id is required")
	ErrInvalidAmount  = errors.New("valid amount is required")

	// Database errors
	ErrDatabaseTransaction = errors.New("database transaction failed")

	// WebSocket message validation errors
	ErrMessageTypeRequired  = errors.New("message type is required")
	ErrScheduleIDRequired   = errors.New("schedule_id is required")
	ErrCollectionRequired   = errors.New("collection is required")
	ErrUnknownCollection    = errors.New("unknown collection")
	ErrUnknownMessageType   = errors.New("unknown message type")
	ErrClientChannelMissing = errors.New("client event channel not found")

	// Broadcasting errors
	ErrBroadcastFailed = errors.New("broadcast failed")
)

// IsBidRejection reports whether err is one of the expected, user-facing bid outcomes
func IsBidRejection(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrBidTooLow) ||
		errors.Is(err, ErrLotEnded)
}
