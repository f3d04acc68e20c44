package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"lot-auction-service/internal/domain/shared"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// SettlementRoutingKey is the topic every settled lot is published under
const SettlementRoutingKey = "lot.settled"

// ErrPublisherClosed is returned when publishing after Close
var ErrPublisherClosed = errors.New("settlement publisher is closed")

// publishChannel is the part of *amqp.Channel used for publishing
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialFunc opens a connection and a channel with the exchange declared
type dialFunc func() (publishChannel, io.Closer, error)

// SettlementPublisher publishes settled lots to a RabbitMQ topic exchange.
// A closed channel or a failed publish drops the connection and redials once.
type SettlementPublisher struct {
	mu       sync.Mutex
	conn     io.Closer
	ch       publishChannel
	dial     dialFunc
	closed   bool
	exchange string
	logger   zerolog.Logger
}

type SettlementPublisherParams struct {
	URL      string
	Exchange string
	Logger   zerolog.Logger
}

func NewSettlementPublisher(params SettlementPublisherParams) (*SettlementPublisher, error) {
	publisher := newSettlementPublisher(rabbitDialer(params.URL, params.Exchange), params.Exchange, params.Logger)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if err := publisher.connect(); err != nil {
		return nil, err
	}
	return publisher, nil
}

func newSettlementPublisher(dial dialFunc, exchange string, logger zerolog.Logger) *SettlementPublisher {
	return &SettlementPublisher{
		dial:     dial,
		exchange: exchange,
		logger:   logger.With().Str("component", "settlement_publisher").Logger(),
	}
}

func rabbitDialer(url, exchange string) dialFunc {
	return func() (publishChannel, io.Closer, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("open channel: %w", err)
		}
		if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, fmt.Errorf("declare exchange: %w", err)
		}
		return ch, conn, nil
	}
}

// connect replaces the current session. Callers hold p.mu.
func (p *SettlementPublisher) connect() error {
	p.drop()
	ch, conn, err := p.dial()
	if err != nil {
		return err
	}
	p.ch, p.conn = ch, conn
	return nil
}

// drop closes the current session. Callers hold p.mu.
func (p *SettlementPublisher) drop() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// PublishSettlement implements outbound.SettlementPublisher
func (p *SettlementPublisher) PublishSettlement(ctx context.Context, result shared.SettlementResult) error {
	msg, err := settlementMessage(result)
	if err != nil {
		return err
	}

	if err := p.publish(ctx, msg); err != nil {
		p.logger.Error().Err(err).Str("item_id", result.ItemID.String()).Msg("Failed to publish settlement")
		return fmt.Errorf("publish settlement: %w", err)
	}

	p.logger.Debug().
		Str("item_id", result.ItemID.String()).
		Int64("schedule_id", result.ScheduleID).
		Int64("payout", result.Payout).
		Msg("Settlement published")
	return nil
}

func (p *SettlementPublisher) publish(ctx context.Context, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}

	if p.ch == nil || p.ch.IsClosed() {
		p.logger.Warn().Msg("Settlement channel is closed, reconnecting")
		if err := p.connect(); err != nil {
			return err
		}
	}

	err := p.ch.PublishWithContext(ctx, p.exchange, SettlementRoutingKey, false, false, msg)
	if err == nil {
		return nil
	}

	p.logger.Warn().Err(err).Msg("Publish failed, reconnecting once")
	if connErr := p.connect(); connErr != nil {
		return errors.Join(err, connErr)
	}
	return p.ch.PublishWithContext(ctx, p.exchange, SettlementRoutingKey, false, false, msg)
}

func settlementMessage(result shared.SettlementResult) (amqp.Publishing, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal settlement: %w", err)
	}

	timestamp := result.SettledAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    result.ItemID.String(),
		Timestamp:    timestamp.UTC(),
		Body:         body,
	}, nil
}

func (p *SettlementPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
