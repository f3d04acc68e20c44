package outbound

import (
	"context"
)

//go:generate mockgen -source=broadcaster.go -destination=mock_broadcaster.go -package=outbound

// EventType represents the type of event being broadcasted
type EventType string

const (
	EventTypeChange   EventType = "change"
	EventTypeLotEnded EventType = "lot.ended"
)

// Collection names the entity set a change belongs to
type Collection string

const (
	CollectionItem Collection = "item"
	CollectionUser Collection = "user"
)

// Collections lists every collection clients may follow
var Collections = []Collection{CollectionItem, CollectionUser}

// ParseCollection validates a collection name
func ParseCollection(s string) (Collection, bool) {
	for _, c := range Collections {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Action is the kind of change applied to a record
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Event represents a broadcast event
type Event struct {
	Type       EventType              `json:"type"`
	Collection Collection             `json:"collection"`
	Action     Action                 `json:"action,omitempty"`
	RecordID   string                 `json:"record_id"`
	Data       map[string]interface{} `json:"data"`
	Timestamp  int64                  `json:"timestamp"`
}

// Broadcaster defines the change feed
type Broadcaster interface {
	// Subscribe subscribes a client to a collection
	// When a client subscribes to multiple collections, all events are delivered to the same channel
	Subscribe(ctx context.Context, collection Collection, clientID string, eventChan chan Event) error

	// Unsubscribe unsubscribes a client from a collection
	Unsubscribe(ctx context.Context, collection Collection, clientID string) error

	// Publish publishes an event to all subscribers of event.Collection
	Publish(ctx context.Context, event Event) error

	// IsSubscribed checks if a client is subscribed to a collection
	IsSubscribed(ctx context.Context, collection Collection, clientID string) bool
}
