package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DeadlinesKey is the sorted set holding lot ids scored by deadline in unix milliseconds
const DeadlinesKey = "lot:deadlines"

const (
	pollInterval = 1 * time.Second
	batchSize    = 10
)

// SortedSet is the subset of the Redis client the scheduler relies on
type SortedSet interface {
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	ZRangeByScore(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd
}

type LotEndChecker interface {
	CheckLotEnded(ctx context.Context, itemID uuid.UUID) (*shared.LotEndResult, error)
}

// LotScheduler announces the end of bidding once a lot's deadline passes.
// Bids that extend a deadline simply move the lot's score.
type LotScheduler struct {
	redis       SortedSet
	checker     LotEndChecker
	broadcaster outbound.Broadcaster
	now         func() time.Time
	logger      zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

type LotSchedulerParams struct {
	RedisClient SortedSet
	Checker     LotEndChecker
	Broadcaster outbound.Broadcaster
	Now         func() time.Time
	Logger      zerolog.Logger
}

func NewLotScheduler(params LotSchedulerParams) *LotScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &LotScheduler{
		redis:       params.RedisClient,
		checker:     params.Checker,
		broadcaster: params.Broadcaster,
		now:         now,
		logger:      params.Logger.With().Str("component", "lot_scheduler").Logger(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetChecker wires the service that reports whether a lot has ended
func (s *LotScheduler) SetChecker(checker LotEndChecker) {
	s.checker = checker
}

// ScheduleLot adds a lot to the deadline schedule or moves its deadline
func (s *LotScheduler) ScheduleLot(ctx context.Context, itemID uuid.UUID, deadline time.Time) error {
	err := s.redis.ZAdd(ctx, DeadlinesKey, redis.Z{
		Score:  float64(deadline.UnixMilli()),
		Member: itemID.String(),
	}).Err()
	if err != nil {
		s.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("Failed to schedule lot")
		return fmt.Errorf("failed to schedule lot: %w", err)
	}

	s.logger.Debug().
		Str("item_id", itemID.String()).
		Time("deadline", deadline).
		Msg("Lot deadline scheduled")
	return nil
}

// CancelLot removes a lot from the deadline schedule
func (s *LotScheduler) CancelLot(ctx context.Context, itemID uuid.UUID) error {
	if err := s.redis.ZRem(ctx, DeadlinesKey, itemID.String()).Err(); err != nil {
		s.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("Failed to cancel lot")
		return fmt.Errorf("failed to cancel lot: %w", err)
	}
	return nil
}

// Start begins the scheduler loop
func (s *LotScheduler) Start() {
	s.logger.Info().Msg("Starting lot scheduler")

	s.wg.Add(1)
	go s.schedulerLoop()
}

// Stop gracefully stops the scheduler
func (s *LotScheduler) Stop() {
	s.logger.Info().Msg("Stopping lot scheduler")
	s.cancel()
	s.wg.Wait()
}

func (s *LotScheduler) schedulerLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkDueLots(s.ctx)
		case <-s.ctx.Done():
			s.logger.Info().Msg("Scheduler loop stopped")
			return
		}
	}
}

// checkDueLots handles every lot whose scheduled deadline has been reached
func (s *LotScheduler) checkDueLots(ctx context.Context) {
	now := s.now().UnixMilli()

	due, err := s.redis.ZRangeByScore(ctx, DeadlinesKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now, 10),
		Count: batchSize,
	}).Result()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get due lots")
		return
	}

	if len(due) > 0 {
		s.logger.Debug().Int("count", len(due)).Msg("Found due lots")
	}

	for _, member := range due {
		itemID, err := uuid.Parse(member)
		if err != nil {
			s.logger.Error().Err(err).Str("item_id", member).Msg("Invalid lot id in schedule")
			s.redis.ZRem(ctx, DeadlinesKey, member)
			continue
		}
		s.handleDueLot(ctx, itemID)
	}
}

func (s *LotScheduler) handleDueLot(ctx context.Context, itemID uuid.UUID) {
	result, err := s.checker.CheckLotEnded(ctx, itemID)
	if errors.Is(err, shared.ErrItemNotFound) {
		s.logger.Debug().Str("item_id", itemID.String()).Msg("Lot no longer exists, dropping from schedule")
		s.redis.ZRem(ctx, DeadlinesKey, itemID.String())
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("Failed to check lot")
		return
	}

	// a late bid moved the deadline after it was read from the schedule
	if !result.Ended {
		_ = s.ScheduleLot(ctx, itemID, result.Deadline)
		return
	}

	if err := s.broadcaster.Publish(ctx, lotEndedEvent(result, s.now())); err != nil {
		s.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("Failed to broadcast lot end event")
		return
	}
	s.redis.ZRem(ctx, DeadlinesKey, itemID.String())

	logger := s.logger.Info().
		Str("item_id", itemID.String()).
		Int64("schedule_id", result.ScheduleID).
		Int64("current_bid", result.CurrentBid)
	if result.HighestBidderID != nil {
		logger = logger.Str("highest_bidder_id", *result.HighestBidderID)
	}
	logger.Msg("Lot ended")
}

func lotEndedEvent(result *shared.LotEndResult, now time.Time) outbound.Event {
	data := map[string]interface{}{
		"item_id":           result.ItemID.String(),
		"schedule_id":       result.ScheduleID,
		"current_bid":       result.CurrentBid,
		"deadline":          result.Deadline.UTC().Format(time.RFC3339Nano),
		"highest_bidder_id": nil,
	}
	if result.HighestBidderID != nil {
		data["highest_bidder_id"] = *result.HighestBidderID
	}

	return outbound.Event{
		Type:       outbound.EventTypeLotEnded,
		Collection: outbound.CollectionItem,
		RecordID:   result.ItemID.String(),
		Data:       data,
		Timestamp:  now.Unix(),
	}
}
