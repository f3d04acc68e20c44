package broadcaster

import (
	"context"
	"sync"
	"time"

	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// LocalBroadcaster fans events out to subscribers of the same process
type LocalBroadcaster struct {
	subscribers map[outbound.Collection]map[string]chan outbound.Event // collection -> clientID -> channel
	mu          sync.RWMutex
	logger      zerolog.Logger
}

type LocalBroadcasterParams struct {
	Logger zerolog.Logger
}

func NewLocalBroadcaster(params LocalBroadcasterParams) *LocalBroadcaster {
	return &LocalBroadcaster{
		subscribers: make(map[outbound.Collection]map[string]chan outbound.Event),
		logger:      params.Logger.With().Str("component", "local_broadcaster").Logger(),
	}
}

func (l *LocalBroadcaster) Subscribe(ctx context.Context, collection outbound.Collection, clientID string, eventChan chan outbound.Event) error {
	if eventChan == nil {
		return shared.ErrClientChannelMissing
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subscribers[collection] == nil {
		l.subscribers[collection] = make(map[string]chan outbound.Event)
	}
	if _, exists := l.subscribers[collection][clientID]; !exists {
		l.subscribers[collection][clientID] = eventChan
	}
	return nil
}

func (l *LocalBroadcaster) Unsubscribe(ctx context.Context, collection outbound.Collection, clientID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.subscribers[collection], clientID)
	if len(l.subscribers[collection]) == 0 {
		delete(l.subscribers, collection)
	}
	return nil
}

func (l *LocalBroadcaster) Publish(ctx context.Context, event outbound.Event) error {
	if event.Collection == "" {
		return shared.ErrCollectionRequired
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for clientID, ch := range l.subscribers[event.Collection] {
		deliver(l.logger, clientID, ch, event)
	}
	return nil
}

func (l *LocalBroadcaster) IsSubscribed(ctx context.Context, collection outbound.Collection, clientID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.subscribers[collection][clientID]
	return ok
}

// deliver never blocks the publisher; a full channel drops the event
func deliver(logger zerolog.Logger, clientID string, ch chan outbound.Event, event outbound.Event) {
	select {
	case ch <- event:
	default:
		logger.Warn().Str("client_id", clientID).Str("record_id", event.RecordID).Msg("Local channel full for client, dropping event")
	}
}
