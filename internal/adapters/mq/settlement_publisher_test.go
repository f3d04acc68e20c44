package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"lot-auction-service/internal/domain/shared"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type recordingChannel struct {
	published  []publishedMessage
	publishErr error
	closed     bool
}

func (c *recordingChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	if c.closed {
		return amqp.ErrClosed
	}
	c.published = append(c.published, publishedMessage{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *recordingChannel) IsClosed() bool {
	return c.closed
}

func (c *recordingChannel) Close() error {
	c.closed = true
	return nil
}

type fakeConn struct {
	closed bool
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// scriptedDialer hands out the given channels in order, one per dial
type scriptedDialer struct {
	channels []*recordingChannel
	conns    []*fakeConn
	dialErr  error
	dials    int
}

func (d *scriptedDialer) dial() (publishChannel, io.Closer, error) {
	d.dials++
	if d.dialErr != nil {
		return nil, nil, d.dialErr
	}
	if len(d.channels) == 0 {
		return nil, nil, errors.New("no channel left")
	}
	ch := d.channels[0]
	d.channels = d.channels[1:]
	conn := &fakeConn{}
	d.conns = append(d.conns, conn)
	return ch, conn, nil
}

func TestSettlementPublisher_Publish(t *testing.T) {
	t.Parallel()

	ch := &recordingChannel{}
	dialer := &scriptedDialer{channels: []*recordingChannel{ch}}
	publisher := newSettlementPublisher(dialer.dial, "auction.settlements", zerolog.Nop())

	winner := "u1"
	balance := int64(4970)
	settledAt := time.Date(2026, 3, 14, 12, 0, 10, 0, time.UTC)
	result := shared.SettlementResult{
		ItemID:        uuid.New(),
		ScheduleID:    42,
		Name:          "Gold Sword",
		WinnerID:      &winner,
		WinningBid:    120,
		SellValue:     90,
		Payout:        -30,
		PayoutApplied: true,
		NewBalance:    &balance,
		SettledAt:     settledAt,
	}

	require.NoError(t, publisher.PublishSettlement(context.Background(), result))
	require.Len(t, ch.published, 1)

	published := ch.published[0]
	require.Equal(t, "auction.settlements", published.exchange)
	require.Equal(t, SettlementRoutingKey, published.key)
	require.Equal(t, "application/json", published.msg.ContentType)
	require.Equal(t, amqp.Persistent, published.msg.DeliveryMode)
	require.Equal(t, result.ItemID.String(), published.msg.MessageId)
	require.Equal(t, settledAt, published.msg.Timestamp)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(published.msg.Body, &body))
	require.Equal(t, "u1", body["winner_id"])
	require.Equal(t, float64(-30), body["payout"])
	require.Equal(t, float64(4970), body["new_balance"])
}

func TestSettlementPublisher_NoWinnerOmitsFields(t *testing.T) {
	t.Parallel()

	msg, err := settlementMessage(shared.SettlementResult{ItemID: uuid.New(), ScheduleID: 1, Name: "Ice Bow"})
	require.NoError(t, err)
	require.False(t, msg.Timestamp.IsZero())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	require.NotContains(t, body, "winner_id")
	require.NotContains(t, body, "new_balance")
}

func TestSettlementPublisher_PublishErrorAfterRedial(t *testing.T) {
	t.Parallel()

	first := &recordingChannel{publishErr: errors.New("channel closed")}
	second := &recordingChannel{publishErr: errors.New("still down")}
	dialer := &scriptedDialer{channels: []*recordingChannel{first, second}}
	publisher := newSettlementPublisher(dialer.dial, "auction.settlements", zerolog.Nop())

	err := publisher.PublishSettlement(context.Background(), shared.SettlementResult{ItemID: uuid.New()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "still down")
	require.Equal(t, 2, dialer.dials, "one redial per publish")
	require.True(t, first.closed)
	require.True(t, dialer.conns[0].closed)

	require.NoError(t, publisher.Close())
	require.True(t, second.closed)
	require.True(t, dialer.conns[1].closed)

	err = publisher.PublishSettlement(context.Background(), shared.SettlementResult{ItemID: uuid.New()})
	require.ErrorIs(t, err, ErrPublisherClosed)
	require.Equal(t, 2, dialer.dials, "no redial after Close")
}

func TestSettlementPublisher_RedialsAfterPublishError(t *testing.T) {
	t.Parallel()

	broken := &recordingChannel{publishErr: amqp.ErrClosed}
	healthy := &recordingChannel{}
	dialer := &scriptedDialer{channels: []*recordingChannel{broken, healthy}}
	publisher := newSettlementPublisher(dialer.dial, "auction.settlements", zerolog.Nop())

	result := shared.SettlementResult{ItemID: uuid.New(), ScheduleID: 7, Name: "Ice Bow"}
	require.NoError(t, publisher.PublishSettlement(context.Background(), result))

	require.Equal(t, 2, dialer.dials)
	require.Empty(t, broken.published)
	require.True(t, broken.closed)
	require.True(t, dialer.conns[0].closed)
	require.Len(t, healthy.published, 1)
	require.Equal(t, result.ItemID.String(), healthy.published[0].msg.MessageId)

	require.NoError(t, publisher.PublishSettlement(context.Background(), result))
	require.Equal(t, 2, dialer.dials, "a healthy channel is reused")
	require.Len(t, healthy.published, 2)
}

func TestSettlementPublisher_RedialsClosedChannel(t *testing.T) {
	t.Parallel()

	first := &recordingChannel{}
	second := &recordingChannel{}
	dialer := &scriptedDialer{channels: []*recordingChannel{first, second}}
	publisher := newSettlementPublisher(dialer.dial, "auction.settlements", zerolog.Nop())

	result := shared.SettlementResult{ItemID: uuid.New(), ScheduleID: 8, Name: "Rusty Helm"}
	require.NoError(t, publisher.PublishSettlement(context.Background(), result))
	require.Len(t, first.published, 1)

	// broker restart
	first.closed = true

	require.NoError(t, publisher.PublishSettlement(context.Background(), result))
	require.Equal(t, 2, dialer.dials)
	require.Len(t, first.published, 1)
	require.Len(t, second.published, 1)
	require.True(t, dialer.conns[0].closed)
}

func TestSettlementPublisher_DialError(t *testing.T) {
	t.Parallel()

	dialer := &scriptedDialer{dialErr: errors.New("connection refused")}
	publisher := newSettlementPublisher(dialer.dial, "auction.settlements", zerolog.Nop())

	err := publisher.PublishSettlement(context.Background(), shared.SettlementResult{ItemID: uuid.New()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
	require.NoError(t, publisher.Close())
}
