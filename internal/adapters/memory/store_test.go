package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/outbound"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(StoreParams{Logger: zerolog.Nop()})
}

func seed(t *testing.T, store *Store, users []shared.User, it *item.Item) {
	t.Helper()
	err := store.WithinTransaction(context.Background(), func(ctx context.Context, tx outbound.Repositories) error {
		for i := range users {
			if err := tx.Users.Create(ctx, &users[i]); err != nil {
				return err
			}
		}
		if it != nil {
			return tx.Items.Create(ctx, it)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestStore_CommitOnSuccess(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	now := time.Now()
	lot := item.New(1, "Gold Sword", 100, now, 10*time.Second)
	seed(t, store, []shared.User{{ID: "user:u1", Balance: 5000, CreatedAt: now}}, lot)

	err := store.View(context.Background(), func(ctx context.Context, repos outbound.Repositories) error {
		active, err := repos.Items.GetActive(ctx)
		require.NoError(t, err)
		require.Equal(t, lot.ID, active.ID)

		user, err := repos.Users.GetByID(ctx, "user:u1")
		require.NoError(t, err)
		require.Equal(t, int64(5000), user.Balance)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_RollbackOnError(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	now := time.Now()
	lot := item.New(1, "Gold Sword", 100, now, 10*time.Second)
	seed(t, store, []shared.User{{ID: "user:u1", Balance: 5000, CreatedAt: now}}, lot)

	boom := errors.New("boom")
	err := store.WithinTransaction(context.Background(), func(ctx context.Context, tx outbound.Repositories) error {
		_, err := tx.Users.AdjustBalance(ctx, "user:u1", -30)
		require.NoError(t, err)
		require.NoError(t, tx.Items.Delete(ctx, lot.ID))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.View(context.Background(), func(ctx context.Context, repos outbound.Repositories) error {
		user, err := repos.Users.GetByID(ctx, "user:u1")
		require.NoError(t, err)
		require.Equal(t, int64(5000), user.Balance)

		_, err = repos.Items.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_SingleActiveLot(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	now := time.Now()
	seed(t, store, nil, item.New(1, "Gold Sword", 100, now, 10*time.Second))

	err := store.WithinTransaction(context.Background(), func(ctx context.Context, tx outbound.Repositories) error {
		return tx.Items.Create(ctx, item.New(2, "Iron Helm", 50, now, 10*time.Second))
	})
	require.ErrorIs(t, err, shared.ErrActiveLotExists)
}

func TestStore_UpdateBidCompareAndSet(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	now := time.Now()
	lot := item.New(1, "Gold Sword", 100, now, 10*time.Second)
	seed(t, store, nil, lot)

	tests := []struct {
		name     string
		expected int64
		amount   int64
		wantErr  error
		wantBid  int64
	}{
		{name: "stale_expected_bid", expected: 90, amount: 150, wantErr: shared.ErrBidTooLow, wantBid: 100},
		{name: "matching_expected_bid", expected: 100, amount: 120, wantErr: nil, wantBid: 120},
		{name: "replayed_expected_bid", expected: 100, amount: 130, wantErr: shared.ErrBidTooLow, wantBid: 120},
	}

	// sequential: each case depends on the previous one's outcome
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := store.WithinTransaction(context.Background(), func(ctx context.Context, tx outbound.Repositories) error {
				update := *lot
				update.ApplyBid("user:u1", tc.amount, now, 5*time.Second)
				return tx.Items.UpdateBid(ctx, &update, tc.expected)
			})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}

			_ = store.View(context.Background(), func(ctx context.Context, repos outbound.Repositories) error {
				active, err := repos.Items.GetActive(ctx)
				require.NoError(t, err)
				require.Equal(t, tc.wantBid, active.CurrentBid)
				return nil
			})
		})
	}
}

func TestStore_Users(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	base := time.Now()
	seed(t, store, []shared.User{
		{ID: "user:b", Balance: 5000, CreatedAt: base.Add(time.Second)},
		{ID: "user:a", Balance: 5000, CreatedAt: base},
	}, nil)

	err := store.WithinTransaction(context.Background(), func(ctx context.Context, tx outbound.Repositories) error {
		return tx.Users.Create(ctx, &shared.User{ID: "user:a"})
	})
	require.ErrorIs(t, err, shared.ErrUserAlreadyExists)

	err = store.WithinTransaction(context.Background(), func(ctx context.Context, tx outbound.Repositories) error {
		_, err := tx.Users.AdjustBalance(ctx, "user:missing", 10)
		return err
	})
	require.ErrorIs(t, err, shared.ErrUserNotFound)

	err = store.View(context.Background(), func(ctx context.Context, repos outbound.Repositories) error {
		users, err := repos.Users.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		require.Equal(t, "user:a", users[0].ID)
		require.Equal(t, "user:b", users[1].ID)

		_, err = repos.Users.AdjustBalance(ctx, "user:a", 1)
		require.Error(t, err, "view must be read-only")
		return nil
	})
	require.NoError(t, err)
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.WithinTransaction(ctx, func(ctx context.Context, tx outbound.Repositories) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}
