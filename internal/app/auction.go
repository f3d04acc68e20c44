package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"lot-auction-service/internal/domain/generator"
	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/inbound"
	"lot-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ItemGenerator supplies new lots and resale values
type ItemGenerator interface {
	GenerateRandomItem() generator.Candidate
	CalculateSellValue(name string, price int64) int64
}

// AuctionService implements inbound.AuctionService and scheduler.LotEndChecker
type AuctionService struct {
	store          outbound.Transactor
	generator      ItemGenerator
	broadcaster    outbound.Broadcaster
	scheduler      outbound.LotScheduler
	settlements    outbound.SettlementPublisher
	duration       time.Duration
	now            func() time.Time
	lastScheduleID atomic.Int64
	logger         zerolog.Logger
}

type AuctionServiceParams struct {
	Store       outbound.Transactor
	Generator   ItemGenerator
	Broadcaster outbound.Broadcaster
	Scheduler   outbound.LotScheduler
	Settlements outbound.SettlementPublisher
	Duration    time.Duration
	Now         func() time.Time
	Logger      zerolog.Logger
}

// NewAuctionService creates a new auction service
func NewAuctionService(params AuctionServiceParams) *AuctionService {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &AuctionService{
		store:       params.Store,
		generator:   params.Generator,
		broadcaster: params.Broadcaster,
		scheduler:   params.Scheduler,
		settlements: params.Settlements,
		duration:    params.Duration,
		now:         now,
		logger:      params.Logger.With().Str("component", "auction_service").Logger(),
	}
}

// SetScheduler sets the lot scheduler
func (service *AuctionService) SetScheduler(scheduler outbound.LotScheduler) {
	service.scheduler = scheduler
}

// GenerateNextItem settles the ended lot, if any, and opens the next one in a single transaction
func (service *AuctionService) GenerateNextItem(ctx context.Context) (*inbound.NewItemSummary, error) {
	now := service.now()
	service.logger.Info().Time("now", now).Msg("Attempting to generate next item")

	var (
		retired    *item.Item
		created    *item.Item
		settlement *shared.SettlementResult
		winner     *shared.User
	)

	err := service.store.WithinTransaction(ctx, func(ctx context.Context, tx outbound.Repositories) error {
		retired, created, settlement, winner = nil, nil, nil, nil
		previousScheduleID := service.lastScheduleID.Load()

		current, err := tx.Items.GetActive(ctx)
		if err != nil && !errors.Is(err, shared.ErrItemNotFound) {
			return err
		}

		if current != nil {
			if current.IsOpenAt(now) {
				service.logger.Warn().
					Str("item_id", current.ID.String()).
					Time("deadline", current.Deadline).
					Msg("Active lot is still open")
				return shared.ErrLotStillOpen
			}

			settlement, winner, err = service.settle(ctx, tx, current, now)
			if err != nil {
				return err
			}

			if err := tx.Items.Delete(ctx, current.ID); err != nil {
				return err
			}
			retired = current
			if current.ScheduleID > previousScheduleID {
				previousScheduleID = current.ScheduleID
			}
		}

		candidate := service.generator.GenerateRandomItem()
		created = item.New(item.NextScheduleID(now, previousScheduleID), candidate.Name, candidate.StartingPrice, now, service.duration)
		return tx.Items.Create(ctx, created)
	})
	if err != nil {
		if !errors.Is(err, shared.ErrLotStillOpen) {
			service.logger.Error().Err(err).Msg("Failed to generate next item")
		}
		return nil, err
	}

	service.recordScheduleID(created.ScheduleID)

	service.logger.Info().
		Str("item_id", created.ID.String()).
		Int64("schedule_id", created.ScheduleID).
		Str("name", created.Name).
		Int64("starting_price", created.StartingPrice).
		Time("deadline", created.Deadline).
		Msg("Next item generated")

	service.afterGenerate(ctx, retired, created, settlement, winner, now)

	return &inbound.NewItemSummary{
		ID:            created.ID,
		ScheduleID:    created.ScheduleID,
		Name:          created.Name,
		StartingPrice: created.StartingPrice,
		Deadline:      created.Deadline,
		Settlement:    settlement,
	}, nil
}

// settle pays the winner of an ended lot sellValue - currentBid
func (service *AuctionService) settle(ctx context.Context, tx outbound.Repositories, lot *item.Item, now time.Time) (*shared.SettlementResult, *shared.User, error) {
	result := &shared.SettlementResult{
		ItemID:     lot.ID,
		ScheduleID: lot.ScheduleID,
		Name:       lot.Name,
		SettledAt:  now,
	}

	winnerID := lot.Winner()
	if winnerID == nil {
		service.logger.Info().Str("item_id", lot.ID.String()).Msg("Lot ended with no bids")
		return result, nil, nil
	}

	result.WinnerID = winnerID
	result.WinningBid = lot.CurrentBid
	result.SellValue = service.generator.CalculateSellValue(lot.Name, lot.CurrentBid)
	result.Payout = result.SellValue - lot.CurrentBid

	user, err := tx.Users.AdjustBalance(ctx, *winnerID, result.Payout)
	if errors.Is(err, shared.ErrUserNotFound) {
		service.logger.Warn().
			Str("item_id", lot.ID.String()).
			Str("winner_id", *winnerID).
			Msg("Winner no longer exists, skipping payout")
		return result, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	result.PayoutApplied = true
	balance := user.Balance
	result.NewBalance = &balance

	service.logger.Info().
		Str("item_id", lot.ID.String()).
		Str("winner_id", user.ID).
		Int64("winning_bid", result.WinningBid).
		Int64("sell_value", result.SellValue).
		Int64("payout", result.Payout).
		Int64("new_balance", balance).
		Msg("Lot settled")

	return result, user, nil
}

func (service *AuctionService) recordScheduleID(id int64) {
	for {
		last := service.lastScheduleID.Load()
		if id <= last || service.lastScheduleID.CompareAndSwap(last, id) {
			return
		}
	}
}

// afterGenerate runs the post-commit side effects; none of them can fail the operation
func (service *AuctionService) afterGenerate(ctx context.Context, retired, created *item.Item, settlement *shared.SettlementResult, winner *shared.User, now time.Time) {
	events := make([]outbound.Event, 0, 3)
	if winner != nil {
		events = append(events, userChange(outbound.ActionUpdate, winner, now))
	}
	if retired != nil {
		events = append(events, itemChange(outbound.ActionDelete, retired, now))
	}
	events = append(events, itemChange(outbound.ActionCreate, created, now))
	publishAll(ctx, service.broadcaster, service.logger, events...)

	if service.scheduler != nil {
		if retired != nil {
			if err := service.scheduler.CancelLot(ctx, retired.ID); err != nil {
				service.logger.Error().Err(err).Str("item_id", retired.ID.String()).Msg("Failed to unschedule retired lot")
			}
		}
		if err := service.scheduler.ScheduleLot(ctx, created.ID, created.Deadline); err != nil {
			service.logger.Error().Err(err).Str("item_id", created.ID.String()).Msg("Failed to schedule lot deadline")
		}
	}

	if service.settlements != nil && settlement != nil {
		if err := service.settlements.PublishSettlement(ctx, *settlement); err != nil {
			service.logger.Error().Err(err).Str("item_id", settlement.ItemID.String()).Msg("Failed to publish settlement")
		}
	}
}

// GetActiveLot retrieves the active lot and its state
func (service *AuctionService) GetActiveLot(ctx context.Context) (*inbound.LotView, error) {
	now := service.now()

	var active *item.Item
	err := service.store.View(ctx, func(ctx context.Context, repos outbound.Repositories) error {
		var err error
		active, err = repos.Items.GetActive(ctx)
		return err
	})
	if err != nil {
		if !errors.Is(err, shared.ErrItemNotFound) {
			service.logger.Error().Err(err).Msg("Failed to retrieve active lot")
		}
		return nil, err
	}

	return &inbound.LotView{
		Item:       active,
		State:      active.StateAt(now),
		ObservedAt: now,
	}, nil
}

// CheckLotEnded implements scheduler.LotEndChecker
func (service *AuctionService) CheckLotEnded(ctx context.Context, itemID uuid.UUID) (*shared.LotEndResult, error) {
	now := service.now()

	var lot *item.Item
	err := service.store.View(ctx, func(ctx context.Context, repos outbound.Repositories) error {
		var err error
		lot, err = repos.Items.GetByID(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &shared.LotEndResult{
		ItemID:          lot.ID,
		ScheduleID:      lot.ScheduleID,
		Ended:           !lot.IsOpenAt(now),
		Deadline:        lot.Deadline,
		HighestBidderID: lot.Winner(),
		CurrentBid:      lot.CurrentBid,
	}, nil
}
