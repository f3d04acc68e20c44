package scheduler

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/inbound"
	"lot-auction-service/internal/ports/outbound"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeSortedSet keeps a single sorted set in memory
type fakeSortedSet struct {
	mu      sync.Mutex
	scores  map[string]float64
	readErr error
}

func newFakeSortedSet() *fakeSortedSet {
	return &fakeSortedSet{scores: make(map[string]float64)}
}

func (f *fakeSortedSet) ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range members {
		f.scores[m.Member.(string)] = m.Score
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeSortedSet) ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	var removed int64
	for _, m := range members {
		if _, ok := f.scores[m.(string)]; ok {
			delete(f.scores, m.(string))
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeSortedSet) ZRangeByScore(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.readErr != nil {
		return redis.NewStringSliceResult(nil, f.readErr)
	}

	max, err := strconv.ParseFloat(opt.Max, 64)
	if err != nil {
		return redis.NewStringSliceResult(nil, err)
	}

	var members []string
	for member, score := range f.scores {
		if score <= max {
			members = append(members, member)
		}
	}
	return redis.NewStringSliceResult(members, nil)
}

func (f *fakeSortedSet) score(member string) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	score, ok := f.scores[member]
	return score, ok
}

type schedulerEnv struct {
	set         *fakeSortedSet
	checker     *inbound.MockAuctionService
	broadcaster *outbound.MockBroadcaster
	scheduler   *LotScheduler
	now         time.Time
}

func newSchedulerEnv(t *testing.T) *schedulerEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	env := &schedulerEnv{
		set:         newFakeSortedSet(),
		checker:     inbound.NewMockAuctionService(ctrl),
		broadcaster: outbound.NewMockBroadcaster(ctrl),
		now:         time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	env.scheduler = NewLotScheduler(LotSchedulerParams{
		RedisClient: env.set,
		Checker:     env.checker,
		Broadcaster: env.broadcaster,
		Now:         func() time.Time { return env.now },
		Logger:      zerolog.Nop(),
	})
	return env
}

func TestLotScheduler_ScheduleAndCancel(t *testing.T) {
	t.Parallel()

	env := newSchedulerEnv(t)
	ctx := context.Background()
	itemID := uuid.New()
	deadline := env.now.Add(10 * time.Second)

	require.NoError(t, env.scheduler.ScheduleLot(ctx, itemID, deadline))
	score, ok := env.set.score(itemID.String())
	require.True(t, ok)
	require.Equal(t, float64(deadline.UnixMilli()), score)

	extended := deadline.Add(5 * time.Second)
	require.NoError(t, env.scheduler.ScheduleLot(ctx, itemID, extended))
	score, _ = env.set.score(itemID.String())
	require.Equal(t, float64(extended.UnixMilli()), score)

	require.NoError(t, env.scheduler.CancelLot(ctx, itemID))
	_, ok = env.set.score(itemID.String())
	require.False(t, ok)
}

func TestLotScheduler_CheckDueLots(t *testing.T) {
	t.Parallel()

	bidder := "u1"

	testCases := []struct {
		name          string
		result        *shared.LotEndResult
		checkErr      error
		expectPublish bool
		expectKept    bool
	}{
		{
			name:          "ended_lot_is_announced",
			result:        &shared.LotEndResult{Ended: true, ScheduleID: 7, CurrentBid: 150, HighestBidderID: &bidder},
			expectPublish: true,
		},
		{
			name:       "extended_lot_is_rescheduled",
			result:     &shared.LotEndResult{Ended: false, ScheduleID: 7},
			expectKept: true,
		},
		{
			name:     "missing_lot_is_dropped",
			checkErr: shared.ErrItemNotFound,
		},
		{
			name:       "check_failure_keeps_lot",
			checkErr:   errors.New("store unavailable"),
			expectKept: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newSchedulerEnv(t)
			ctx := context.Background()
			itemID := uuid.New()

			require.NoError(t, env.scheduler.ScheduleLot(ctx, itemID, env.now.Add(-time.Second)))

			if tc.result != nil {
				tc.result.ItemID = itemID
				if tc.result.Deadline.IsZero() {
					tc.result.Deadline = env.now.Add(4 * time.Second)
				}
			}
			env.checker.EXPECT().CheckLotEnded(gomock.Any(), itemID).Return(tc.result, tc.checkErr)

			if tc.expectPublish {
				env.broadcaster.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, event outbound.Event) error {
						require.Equal(t, outbound.EventTypeLotEnded, event.Type)
						require.Equal(t, outbound.CollectionItem, event.Collection)
						require.Equal(t, itemID.String(), event.RecordID)
						require.Equal(t, "u1", event.Data["highest_bidder_id"])
						require.Equal(t, int64(150), event.Data["current_bid"])
						return nil
					})
			}

			env.scheduler.checkDueLots(ctx)

			score, kept := env.set.score(itemID.String())
			require.Equal(t, tc.expectKept, kept)
			if tc.result != nil && !tc.result.Ended {
				require.Equal(t, float64(tc.result.Deadline.UnixMilli()), score)
			}
		})
	}
}

func TestLotScheduler_FutureLotsAreNotChecked(t *testing.T) {
	t.Parallel()

	env := newSchedulerEnv(t)
	ctx := context.Background()
	itemID := uuid.New()

	require.NoError(t, env.scheduler.ScheduleLot(ctx, itemID, env.now.Add(time.Minute)))

	// no expectations on the checker: any call fails the test
	env.scheduler.checkDueLots(ctx)

	_, ok := env.set.score(itemID.String())
	require.True(t, ok)
}

func TestLotScheduler_ReadFailureIsLogged(t *testing.T) {
	t.Parallel()

	env := newSchedulerEnv(t)
	env.set.readErr = errors.New("connection reset")

	env.scheduler.checkDueLots(context.Background())
}

func TestLotScheduler_InvalidMemberIsDropped(t *testing.T) {
	t.Parallel()

	env := newSchedulerEnv(t)
	ctx := context.Background()
	env.set.ZAdd(ctx, DeadlinesKey, redis.Z{Score: 0, Member: "not-a-uuid"})

	env.scheduler.checkDueLots(ctx)

	_, ok := env.set.score("not-a-uuid")
	require.False(t, ok)
}

func TestLotScheduler_StartStop(t *testing.T) {
	t.Parallel()

	env := newSchedulerEnv(t)
	env.scheduler.Start()
	env.scheduler.Stop()
}
