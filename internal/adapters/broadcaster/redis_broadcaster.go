package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/outbound"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ChannelName returns the Redis channel carrying a collection's changes
func ChannelName(collection outbound.Collection) string {
	return fmt.Sprintf("changes:%s", collection)
}

// RedisBroadcaster implements the broadcaster interface using Redis pub/sub,
// so that every service instance sees changes committed by any other.
type RedisBroadcaster struct {
	client              *redis.Client
	subscribers         map[string]chan outbound.Event          // clientID -> local channel
	pubsubs             map[string]*redis.PubSub                // clientID -> pubsub instance
	clientsToCollection map[string]map[outbound.Collection]bool // clientID -> collection -> subscribed
	mu                  sync.RWMutex
	ctx                 context.Context
	cancel              context.CancelFunc
	logger              zerolog.Logger
}

type RedisBroadcasterParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

func NewBroadcaster(params RedisBroadcasterParams) *RedisBroadcaster {
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisBroadcaster{
		client:              params.RedisClient,
		subscribers:         make(map[string]chan outbound.Event),
		pubsubs:             make(map[string]*redis.PubSub),
		clientsToCollection: make(map[string]map[outbound.Collection]bool),
		ctx:                 ctx,
		cancel:              cancel,
		logger:              params.Logger.With().Str("component", "redis_broadcaster").Logger(),
	}
}

// Subscribe subscribes a client to changes of a collection
func (r *RedisBroadcaster) Subscribe(ctx context.Context, collection outbound.Collection, clientID string, eventChan chan outbound.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clientsToCollection[clientID][collection] {
		r.logger.Debug().
			Str("client_id", clientID).
			Str("collection", string(collection)).
			Msg("Client already subscribed to collection")
		return nil
	}

	// Store the event channel if this is the first subscription
	if r.subscribers[clientID] == nil {
		r.subscribers[clientID] = eventChan
	}

	pubsub, exists := r.pubsubs[clientID]
	if !exists {
		pubsub = r.client.Subscribe(ctx)
		r.pubsubs[clientID] = pubsub

		go r.listenForRedisMessages(pubsub, clientID, r.subscribers[clientID])
	}

	if err := pubsub.Subscribe(ctx, ChannelName(collection)); err != nil {
		r.logger.Error().Err(err).Str("client_id", clientID).Str("collection", string(collection)).Msg("Failed to subscribe to Redis channel")
		return fmt.Errorf("%w: %v", shared.ErrBroadcastFailed, err)
	}

	if r.clientsToCollection[clientID] == nil {
		r.clientsToCollection[clientID] = make(map[outbound.Collection]bool)
	}
	r.clientsToCollection[clientID][collection] = true

	r.logger.Info().
		Str("client_id", clientID).
		Str("collection", string(collection)).
		Msg("Client subscribed to collection via Redis")
	return nil
}

// Unsubscribe unsubscribes a client from a collection. The client's channel is never closed
// here: it belongs to the caller.
func (r *RedisBroadcaster) Unsubscribe(ctx context.Context, collection outbound.Collection, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clientCollections, exists := r.clientsToCollection[clientID]
	if !exists || !clientCollections[collection] {
		return nil
	}
	delete(clientCollections, collection)

	if len(clientCollections) == 0 {
		delete(r.clientsToCollection, clientID)
		delete(r.subscribers, clientID)

		if pubsub, exists := r.pubsubs[clientID]; exists {
			if err := pubsub.Close(); err != nil {
				r.logger.Error().Err(err).Str("client_id", clientID).Msg("Error closing Redis pubsub for client")
			}
			delete(r.pubsubs, clientID)
		}
	} else if pubsub, exists := r.pubsubs[clientID]; exists {
		if err := pubsub.Unsubscribe(ctx, ChannelName(collection)); err != nil {
			r.logger.Error().Err(err).Str("client_id", clientID).Str("collection", string(collection)).Msg("Error unsubscribing from Redis channel")
		}
	}

	r.logger.Info().
		Str("client_id", clientID).
		Str("collection", string(collection)).
		Msg("Client unsubscribed from collection")
	return nil
}

// Publish publishes an event to all subscribers of its collection via Redis
func (r *RedisBroadcaster) Publish(ctx context.Context, event outbound.Event) error {
	if event.Collection == "" {
		return shared.ErrCollectionRequired
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channelName := ChannelName(event.Collection)
	result := r.client.Publish(ctx, channelName, eventJSON)
	if err := result.Err(); err != nil {
		r.logger.Error().Err(err).Str("channel_name", channelName).Msg("Failed to publish to Redis")
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}

	r.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("channel_name", channelName).
		Str("action", string(event.Action)).
		Str("record_id", event.RecordID).
		Int64("subscriber_count", result.Val()).
		Msg("Published event")

	return nil
}

// IsSubscribed checks if a client is subscribed to a collection
func (r *RedisBroadcaster) IsSubscribed(ctx context.Context, collection outbound.Collection, clientID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.clientsToCollection[clientID][collection]
}

// listenForRedisMessages forwards Redis messages to the client's local channel
func (r *RedisBroadcaster) listenForRedisMessages(pubsub *redis.PubSub, clientID string, localChan chan outbound.Event) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error().Interface("panic", err).Str("client_id", clientID).Msg("Redis message listener panic for client")
		}
	}()

	ch := pubsub.Channel()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				r.logger.Debug().Str("client_id", clientID).Msg("Redis channel closed for client")
				return
			}

			event, err := decodeEvent(msg.Payload)
			if err != nil {
				r.logger.Error().Err(err).Str("client_id", clientID).Msg("Failed to unmarshal Redis message for client")
				continue
			}

			deliver(r.logger, clientID, localChan, event)

		case <-r.ctx.Done():
			return
		}
	}
}

func decodeEvent(payload string) (outbound.Event, error) {
	var event outbound.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return outbound.Event{}, err
	}
	return event, nil
}

// Close stops every listener. The Redis client is owned by the caller.
func (r *RedisBroadcaster) Close() error {
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	for clientID, pubsub := range r.pubsubs {
		if err := pubsub.Close(); err != nil {
			r.logger.Error().Err(err).Str("client_id", clientID).Msg("Error closing Redis pubsub for client")
		}
		delete(r.pubsubs, clientID)
	}
	r.subscribers = make(map[string]chan outbound.Event)
	r.clientsToCollection = make(map[string]map[outbound.Collection]bool)

	return nil
}
