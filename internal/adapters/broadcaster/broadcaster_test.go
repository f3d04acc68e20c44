package broadcaster

import (
	"context"
	"os"
	"testing"
	"time"

	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/outbound"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func itemEvent(action outbound.Action, recordID string) outbound.Event {
	return outbound.Event{
		Type:       outbound.EventTypeChange,
		Collection: outbound.CollectionItem,
		Action:     action,
		RecordID:   recordID,
		Data:       map[string]interface{}{"current_bid": float64(120)},
	}
}

func receive(t *testing.T, ch chan outbound.Event) outbound.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return outbound.Event{}
	}
}

func requireNoEvent(t *testing.T, ch chan outbound.Event) {
	t.Helper()
	select {
	case event := <-ch:
		t.Fatalf("unexpected event %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLocalBroadcaster_FanOutPerCollection(t *testing.T) {
	t.Parallel()

	b := NewLocalBroadcaster(LocalBroadcasterParams{Logger: zerolog.Nop()})
	ctx := context.Background()

	itemsOnly := make(chan outbound.Event, 4)
	everything := make(chan outbound.Event, 4)

	require.NoError(t, b.Subscribe(ctx, outbound.CollectionItem, "c1", itemsOnly))
	require.NoError(t, b.Subscribe(ctx, outbound.CollectionItem, "c2", everything))
	require.NoError(t, b.Subscribe(ctx, outbound.CollectionUser, "c2", everything))

	require.True(t, b.IsSubscribed(ctx, outbound.CollectionItem, "c1"))
	require.False(t, b.IsSubscribed(ctx, outbound.CollectionUser, "c1"))

	require.NoError(t, b.Publish(ctx, itemEvent(outbound.ActionCreate, "item-1")))
	require.NoError(t, b.Publish(ctx, outbound.Event{Type: outbound.EventTypeChange, Collection: outbound.CollectionUser, Action: outbound.ActionUpdate, RecordID: "user:u1"}))

	got := receive(t, itemsOnly)
	require.Equal(t, "item-1", got.RecordID)
	require.NotZero(t, got.Timestamp)
	requireNoEvent(t, itemsOnly)

	require.Equal(t, "item-1", receive(t, everything).RecordID)
	require.Equal(t, "user:u1", receive(t, everything).RecordID)
}

func TestLocalBroadcaster_Unsubscribe(t *testing.T) {
	t.Parallel()

	b := NewLocalBroadcaster(LocalBroadcasterParams{Logger: zerolog.Nop()})
	ctx := context.Background()
	ch := make(chan outbound.Event, 1)

	require.NoError(t, b.Subscribe(ctx, outbound.CollectionItem, "c1", ch))
	require.NoError(t, b.Unsubscribe(ctx, outbound.CollectionItem, "c1"))
	require.NoError(t, b.Unsubscribe(ctx, outbound.CollectionItem, "c1"), "unsubscribing twice is harmless")
	require.False(t, b.IsSubscribed(ctx, outbound.CollectionItem, "c1"))

	require.NoError(t, b.Publish(ctx, itemEvent(outbound.ActionDelete, "item-1")))
	requireNoEvent(t, ch)
}

func TestLocalBroadcaster_FullChannelDropsEvent(t *testing.T) {
	t.Parallel()

	b := NewLocalBroadcaster(LocalBroadcasterParams{Logger: zerolog.Nop()})
	ctx := context.Background()
	ch := make(chan outbound.Event, 1)
	require.NoError(t, b.Subscribe(ctx, outbound.CollectionItem, "slow", ch))

	require.NoError(t, b.Publish(ctx, itemEvent(outbound.ActionUpdate, "first")))
	require.NoError(t, b.Publish(ctx, itemEvent(outbound.ActionUpdate, "second")))

	require.Equal(t, "first", receive(t, ch).RecordID)
	requireNoEvent(t, ch)
}

func TestLocalBroadcaster_Validation(t *testing.T) {
	t.Parallel()

	b := NewLocalBroadcaster(LocalBroadcasterParams{Logger: zerolog.Nop()})
	ctx := context.Background()

	require.ErrorIs(t, b.Subscribe(ctx, outbound.CollectionItem, "c1", nil), shared.ErrClientChannelMissing)
	require.ErrorIs(t, b.Publish(ctx, outbound.Event{Type: outbound.EventTypeChange}), shared.ErrCollectionRequired)
}

func TestChannelName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "changes:item", ChannelName(outbound.CollectionItem))
	require.Equal(t, "changes:user", ChannelName(outbound.CollectionUser))
}

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	event, err := decodeEvent(`{"type":"change","collection":"item","action":"UPDATE","record_id":"abc","data":{"current_bid":150},"timestamp":17}`)
	require.NoError(t, err)
	require.Equal(t, outbound.ActionUpdate, event.Action)
	require.Equal(t, float64(150), event.Data["current_bid"])

	_, err = decodeEvent(`not json`)
	require.Error(t, err)
}

// requires a reachable Redis; set REDIS_ADDR to run
func TestRedisBroadcaster_PublishSubscribe(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	b := NewBroadcaster(RedisBroadcasterParams{RedisClient: client, Logger: zerolog.Nop()})
	defer b.Close()

	ctx := context.Background()
	ch := make(chan outbound.Event, 4)
	require.NoError(t, b.Subscribe(ctx, outbound.CollectionItem, "c1", ch))
	require.True(t, b.IsSubscribed(ctx, outbound.CollectionItem, "c1"))

	// the subscription is confirmed asynchronously by Redis
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, b.Publish(ctx, itemEvent(outbound.ActionCreate, "item-redis")))
	got := receive(t, ch)
	require.Equal(t, "item-redis", got.RecordID)
	require.Equal(t, outbound.CollectionItem, got.Collection)

	require.NoError(t, b.Unsubscribe(ctx, outbound.CollectionItem, "c1"))
	require.False(t, b.IsSubscribed(ctx, outbound.CollectionItem, "c1"))
}
