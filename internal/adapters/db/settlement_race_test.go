package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"lot-auction-service/internal/app"
	"lot-auction-service/internal/config"
	"lot-auction-service/internal/domain/generator"
	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/inbound"
	"lot-auction-service/internal/ports/outbound"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// A winner bidding on its ended lot while the lot is settled touches the same
// lot and user rows from two transactions. Both must finish with a domain
// outcome; a lock cycle would surface as a database error (40P01).
func TestWinnerBidDuringSettlement_Postgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	conn, err := NewConnection(ctx, &config.Config{Database: config.DatabaseConfig{URL: url}})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.Migrate(ctx))

	store := NewTransactor(TransactorParams{Connection: conn, Logger: zerolog.Nop()})
	auction := app.NewAuctionService(app.AuctionServiceParams{
		Store:     store,
		Generator: generator.NewSeeded(7),
		Duration:  10 * time.Second,
		Logger:    zerolog.Nop(),
	})
	bids := app.NewBidService(app.BidServiceParams{
		Store:     store,
		Extension: 5 * time.Second,
		Logger:    zerolog.Nop(),
	})

	const rounds = 25
	for round := 0; round < rounds; round++ {
		_, err = conn.GetDB().ExecContext(ctx, `TRUNCATE items, users`)
		require.NoError(t, err)

		now := time.Now().UTC().Truncate(time.Microsecond)
		lot := item.New(int64(round+1), "Gold Sword", 100, now.Add(-time.Minute), 10*time.Second)
		err = store.WithinTransaction(ctx, func(ctx context.Context, tx outbound.Repositories) error {
			if err := tx.Users.Create(ctx, &shared.User{ID: "winner", Name: "User winner", Online: true, Balance: 5000, CreatedAt: now}); err != nil {
				return err
			}
			if err := tx.Items.Create(ctx, lot); err != nil {
				return err
			}
			won := *lot
			won.CurrentBid = 150
			won.HighestBidderID = "winner"
			return tx.Items.UpdateBid(ctx, &won, 100)
		})
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			bidErr    error
			settleErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, bidErr = bids.PlaceBid(ctx, inbound.PlaceBidRequest{UserID: "winner", ScheduleID: lot.ScheduleID, Amount: 200})
		}()
		go func() {
			defer wg.Done()
			_, settleErr = auction.GenerateNextItem(ctx)
		}()
		wg.Wait()

		require.NoError(t, settleErr, "round %d", round)
		require.Error(t, bidErr, "round %d: the lot had already ended", round)
		require.True(t, shared.IsBidRejection(bidErr), "round %d: unexpected bid error %v", round, bidErr)
		require.NotErrorIs(t, bidErr, shared.ErrDatabaseTransaction, "round %d", round)
	}
}
