package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"lot-auction-service/internal/adapters/memory"
	"lot-auction-service/internal/domain/generator"
	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/outbound"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testDuration  = 10 * time.Second
	testExtension = 5 * time.Second
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixedGenerator always produces the same lot and appraisal
type fixedGenerator struct {
	candidate generator.Candidate
	sellValue int64
}

func (g *fixedGenerator) GenerateRandomItem() generator.Candidate {
	return g.candidate
}

func (g *fixedGenerator) CalculateSellValue(name string, price int64) int64 {
	return g.sellValue
}

type testEnv struct {
	store   *memory.Store
	clock   *fakeClock
	gen     *fixedGenerator
	auction *AuctionService
	bids    *BidService
	users   *UserService
}

type envOptions struct {
	broadcaster outbound.Broadcaster
	scheduler   outbound.LotScheduler
	settlements outbound.SettlementPublisher
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	store := memory.NewStore(memory.StoreParams{Logger: zerolog.Nop()})
	clock := newFakeClock()
	gen := &fixedGenerator{candidate: generator.Candidate{Name: "Gold Sword", StartingPrice: 100}, sellValue: 90}

	return &testEnv{
		store: store,
		clock: clock,
		gen:   gen,
		auction: NewAuctionService(AuctionServiceParams{
			Store:       store,
			Generator:   gen,
			Broadcaster: opts.broadcaster,
			Scheduler:   opts.scheduler,
			Settlements: opts.settlements,
			Duration:    testDuration,
			Now:         clock.Now,
			Logger:      zerolog.Nop(),
		}),
		bids: NewBidService(BidServiceParams{
			Store:       store,
			Broadcaster: opts.broadcaster,
			Scheduler:   opts.scheduler,
			Extension:   testExtension,
			Now:         clock.Now,
			Logger:      zerolog.Nop(),
		}),
		users: NewUserService(UserServiceParams{
			Store:       store,
			Broadcaster: opts.broadcaster,
			Now:         clock.Now,
			Logger:      zerolog.Nop(),
		}),
	}
}

func (env *testEnv) addUser(t *testing.T, id string, balance int64) {
	t.Helper()
	err := env.store.WithinTransaction(context.Background(), func(ctx context.Context, tx outbound.Repositories) error {
		return tx.Users.Create(ctx, &shared.User{ID: id, Name: shared.DefaultUserName(id), Online: true, Balance: balance, CreatedAt: env.clock.Now()})
	})
	require.NoError(t, err)
}

func (env *testEnv) user(t *testing.T, id string) *shared.User {
	t.Helper()
	user, err := env.users.GetUser(context.Background(), id)
	require.NoError(t, err)
	return user
}

func (env *testEnv) activeLot(t *testing.T) *item.Item {
	t.Helper()
	view, err := env.auction.GetActiveLot(context.Background())
	require.NoError(t, err)
	return view.Item
}

func (env *testEnv) openLot(t *testing.T) *item.Item {
	t.Helper()
	_, err := env.auction.GenerateNextItem(context.Background())
	require.NoError(t, err)
	return env.activeLot(t)
}
