package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/inbound"
	"lot-auction-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// BidService implements the bid use cases
type BidService struct {
	store       outbound.Transactor
	broadcaster outbound.Broadcaster
	scheduler   outbound.LotScheduler
	extension   time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

type BidServiceParams struct {
	Store       outbound.Transactor
	Broadcaster outbound.Broadcaster
	Scheduler   outbound.LotScheduler
	Extension   time.Duration
	Now         func() time.Time
	Logger      zerolog.Logger
}

// NewBidService creates a new bid service
func NewBidService(params BidServiceParams) *BidService {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &BidService{
		store:       params.Store,
		broadcaster: params.Broadcaster,
		scheduler:   params.Scheduler,
		extension:   params.Extension,
		now:         now,
		logger:      params.Logger.With().Str("component", "bid_service").Logger(),
	}
}

// SetScheduler sets the lot scheduler
func (client *BidService) SetScheduler(scheduler outbound.LotScheduler) {
	client.scheduler = scheduler
}

/*
PlaceBid places a bid on the active lot.
Checks run in order inside one transaction and the first failure wins:
 1. the user exists
 2. the active lot carries req.ScheduleID
 3. the lot is still open
 4. the amount does not exceed the user's balance
 5. the amount is strictly greater than the current bid

The lot row is read (and locked) before the user row, the same order
GenerateNextItem takes them in, so the two never wait on each other in a cycle.
A missing lot is only reported once the user lookup has succeeded.

The update is then written with a compare-and-set on the bid that was read,
so exactly one of several concurrent bids can take a given price level.
*/
func (client *BidService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*inbound.BidAck, error) {
	client.logger.Info().
		Str("user_id", req.UserID).
		Int64("schedule_id", req.ScheduleID).
		Int64("amount", req.Amount).
		Msg("Attempting to place bid")

	now := client.now()

	var accepted *item.Item
	err := client.store.WithinTransaction(ctx, func(ctx context.Context, tx outbound.Repositories) error {
		accepted = nil

		lot, lotErr := tx.Items.GetActive(ctx)
		if lotErr != nil && !errors.Is(lotErr, shared.ErrItemNotFound) {
			return lotErr
		}

		user, err := tx.Users.GetByID(ctx, req.UserID)
		if err != nil {
			return err
		}

		if lotErr != nil {
			return lotErr
		}
		if lot.ScheduleID != req.ScheduleID {
			return fmt.Errorf("%w: schedule %d is not the active lot", shared.ErrItemNotFound, req.ScheduleID)
		}

		if !lot.IsOpenAt(now) {
			return shared.ErrLotEnded
		}

		if !user.CanAfford(req.Amount) {
			return shared.ErrInsufficientBalance
		}

		if !lot.Beats(req.Amount) {
			return shared.ErrBidTooLow
		}

		expected := lot.CurrentBid
		lot.ApplyBid(user.ID, req.Amount, now, client.extension)
		if err := tx.Items.UpdateBid(ctx, lot, expected); err != nil {
			return err
		}

		accepted = lot
		return nil
	})
	if err != nil {
		if shared.IsBidRejection(err) {
			client.logger.Warn().
				Err(err).
				Str("user_id", req.UserID).
				Int64("schedule_id", req.ScheduleID).
				Int64("amount", req.Amount).
				Msg("Bid rejected")
			return nil, err
		}
		client.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to place bid")
		return nil, errors.Join(shared.ErrDatabaseTransaction, err)
	}

	client.logger.Info().
		Str("item_id", accepted.ID.String()).
		Str("user_id", accepted.HighestBidderID).
		Int64("amount", accepted.CurrentBid).
		Time("deadline", accepted.Deadline).
		Msg("Bid placed successfully")

	publishAll(ctx, client.broadcaster, client.logger, itemChange(outbound.ActionUpdate, accepted, now))

	if client.scheduler != nil {
		if err := client.scheduler.ScheduleLot(ctx, accepted.ID, accepted.Deadline); err != nil {
			client.logger.Error().Err(err).Str("item_id", accepted.ID.String()).Msg("Failed to move lot deadline")
		}
	}

	return &inbound.BidAck{
		ItemID:          accepted.ID,
		ScheduleID:      accepted.ScheduleID,
		CurrentBid:      accepted.CurrentBid,
		HighestBidderID: accepted.HighestBidderID,
		Deadline:        accepted.Deadline,
	}, nil
}
