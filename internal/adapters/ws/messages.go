package ws

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/outbound"
)

type MessageType string

const (
	// Client to Server message types
	MessageTypeSubscribe    MessageType = "subscribe"
	MessageTypeUnsubscribe  MessageType = "unsubscribe"
	MessageTypePlaceBid     MessageType = "place_bid"
	MessageTypeGenerateItem MessageType = "generate_item"
	MessageTypeGetState     MessageType = "get_state"
	MessageTypePing         MessageType = "ping"

	// Server to Client message types
	MessageTypeChange        MessageType = "change"
	MessageTypeLotEnded      MessageType = "lot_ended"
	MessageTypeState         MessageType = "state"
	MessageTypeBidAccepted   MessageType = "bid_accepted"
	MessageTypeItemGenerated MessageType = "item_generated"
	MessageTypeSubscribed    MessageType = "subscribed"
	MessageTypeUnsubscribed  MessageType = "unsubscribed"
	MessageTypeError         MessageType = "error"
	MessageTypePong          MessageType = "pong"
)

type ClientMessage struct {
	Type       MessageType            `json:"type"`
	ScheduleID *int64                 `json:"schedule_id,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
}

// ServerMessage represents a message sent from server to client
type ServerMessage struct {
	Type       MessageType            `json:"type"`
	Collection outbound.Collection    `json:"collection,omitempty"`
	Action     outbound.Action        `json:"action,omitempty"`
	RecordID   string                 `json:"record_id,omitempty"`
	ScheduleID *int64                 `json:"schedule_id,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Error      *string                `json:"error,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
}

func NewServerMessage(msgType MessageType) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now().Unix(),
	}
}

func NewErrorMessage(err string, scheduleID *int64) *ServerMessage {
	return &ServerMessage{
		Type:       MessageTypeError,
		ScheduleID: scheduleID,
		Error:      &err,
		Timestamp:  time.Now().Unix(),
	}
}

// NewEventMessage converts a change feed event into the message pushed to clients
func NewEventMessage(event outbound.Event) *ServerMessage {
	msgType := MessageTypeChange
	if event.Type == outbound.EventTypeLotEnded {
		msgType = MessageTypeLotEnded
	}

	return &ServerMessage{
		Type:       msgType,
		Collection: event.Collection,
		Action:     event.Action,
		RecordID:   event.RecordID,
		Data:       event.Data,
		Timestamp:  event.Timestamp,
	}
}

// ParseClientMessage parses a JSON message from client
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse client message: %w", err)
	}

	if msg.Type == "" {
		return nil, shared.ErrMessageTypeRequired
	}

	return &msg, nil
}

// Validate validates a client message
func (m *ClientMessage) Validate() error {
	switch m.Type {
	case MessageTypeSubscribe, MessageTypeUnsubscribe:
		if _, err := m.Collection(); err != nil {
			return err
		}
	case MessageTypePlaceBid:
		if m.ScheduleID == nil || *m.ScheduleID == 0 {
			return shared.ErrScheduleIDRequired
		}
		if _, err := m.Amount(); err != nil {
			return err
		}
	case MessageTypeGenerateItem, MessageTypeGetState, MessageTypePing:

	default:
		return shared.ErrUnknownMessageType
	}

	return nil
}

// Amount returns data.amount as a positive whole number
func (m *ClientMessage) Amount() (int64, error) {
	amount, ok := m.Data["amount"].(float64)
	if !ok || amount <= 0 || amount != math.Trunc(amount) || amount >= math.MaxInt64 {
		return 0, shared.ErrInvalidAmount
	}
	return int64(amount), nil
}

// Collection returns data.collection
func (m *ClientMessage) Collection() (outbound.Collection, error) {
	name, ok := m.Data["collection"].(string)
	if !ok || name == "" {
		return "", shared.ErrCollectionRequired
	}
	collection, ok := outbound.ParseCollection(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrUnknownCollection, name)
	}
	return collection, nil
}
