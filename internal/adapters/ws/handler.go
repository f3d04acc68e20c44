package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/inbound"
	"lot-auction-service/internal/ports/outbound"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WsHandler manages WebSocket connections and message routing
type WsHandler struct {
	clients        map[string]*WsClient // clientID -> Client
	clientsMu      sync.RWMutex
	eventChannels  map[string]chan outbound.Event // clientID -> local event channel
	channelsMu     sync.RWMutex
	upgrader       websocket.Upgrader
	auctionService inbound.AuctionService
	bidService     inbound.BidService
	userService    inbound.UserService
	broadcaster    outbound.Broadcaster
	logger         zerolog.Logger
}

type WsHandlerParams struct {
	Upgrader       websocket.Upgrader
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	UserService    inbound.UserService
	Broadcaster    outbound.Broadcaster
	Logger         zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(params WsHandlerParams) *WsHandler {
	return &WsHandler{
		clients:        make(map[string]*WsClient),
		eventChannels:  make(map[string]chan outbound.Event),
		upgrader:       params.Upgrader,
		auctionService: params.AuctionService,
		bidService:     params.BidService,
		userService:    params.UserService,
		broadcaster:    params.Broadcaster,
		logger:         params.Logger.With().Str("component", "ws_handler").Logger(),
	}
}

// HandleWebSocket handles WebSocket connection upgrades
func (handler *WsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, shared.ErrUserIDRequired.Error(), http.StatusBadRequest)
		return
	}

	user, err := handler.userService.EnsureUser(r.Context(), inbound.EnsureUserRequest{
		ID:   userID,
		Name: r.URL.Query().Get("name"),
	})
	if err != nil {
		handler.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to ensure user")
		http.Error(w, "failed to register user", http.StatusInternalServerError)
		return
	}

	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(WsClientParams{
		UserID:  user.ID,
		Conn:    conn,
		Handler: handler,
		Logger:  handler.logger,
	})

	handler.registerClient(client)
	eventChan := handler.createEventChannel(client.id)

	for _, collection := range outbound.Collections {
		if err := handler.broadcaster.Subscribe(client.ctx, collection, client.id, eventChan); err != nil {
			handler.logger.Error().Err(err).Str("client_id", client.id).Str("collection", string(collection)).Msg("Failed to subscribe client")
		}
	}

	client.Start()

	go handler.listenForClientEvents(client, eventChan)

	go func() {
		<-client.ctx.Done()
		handler.unregisterClient(client)
	}()

	if err := client.Send(handler.stateMessage(client.ctx)); err != nil {
		handler.logger.Debug().Err(err).Str("client_id", client.id).Msg("Failed to send initial state")
	}

	handler.logger.Info().Str("client_id", client.id).Str("user_id", client.userID).Msg("WebSocket client connected")
}

// createEventChannel creates a local event channel for a client
func (handler *WsHandler) createEventChannel(clientID string) chan outbound.Event {
	handler.channelsMu.Lock()
	defer handler.channelsMu.Unlock()

	if eventChan, exists := handler.eventChannels[clientID]; exists {
		return eventChan
	}

	eventChan := make(chan outbound.Event, 100)
	handler.eventChannels[clientID] = eventChan

	handler.logger.Debug().Str("client_id", clientID).Msg("Created local event channel for client")
	return eventChan
}

func (handler *WsHandler) getEventChannel(clientID string) chan outbound.Event {
	handler.channelsMu.RLock()
	defer handler.channelsMu.RUnlock()

	return handler.eventChannels[clientID]
}

// removeEventChannel forgets the channel without closing it; a late broadcast may still hold it
func (handler *WsHandler) removeEventChannel(clientID string) {
	handler.channelsMu.Lock()
	defer handler.channelsMu.Unlock()

	delete(handler.eventChannels, clientID)
}

func (handler *WsHandler) registerClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()
	handler.clients[client.id] = client
	handler.logger.Debug().Str("client_id", client.id).Int("total_clients", len(handler.clients)).Msg("Client registered")
}

func (handler *WsHandler) unregisterClient(client *WsClient) {
	for _, collection := range outbound.Collections {
		if err := handler.broadcaster.Unsubscribe(context.Background(), collection, client.id); err != nil {
			handler.logger.Error().Err(err).Str("client_id", client.id).Msg("Failed to unsubscribe client")
		}
	}

	handler.clientsMu.Lock()
	delete(handler.clients, client.id)
	total := len(handler.clients)
	handler.clientsMu.Unlock()

	client.Stop()
	handler.removeEventChannel(client.id)

	handler.logger.Info().Str("client_id", client.id).Str("user_id", client.userID).Int("total_clients", total).Msg("WebSocket client disconnected")
}

// listenForClientEvents forwards change feed events to the client
func (handler *WsHandler) listenForClientEvents(client *WsClient, eventChan chan outbound.Event) {
	for {
		select {
		case event := <-eventChan:
			if err := client.Send(NewEventMessage(event)); err != nil {
				handler.logger.Error().Err(err).Str("client_id", client.id).Msg("Failed to send event to WebSocket client")
			}

		case <-client.ctx.Done():
			handler.logger.Debug().Str("client_id", client.id).Msg("Client disconnected, stopping event listener")
			return
		}
	}
}

func (handler *WsHandler) HandleClientMessage(client *WsClient, msg *ClientMessage) error {
	switch msg.Type {
	case MessageTypeSubscribe:
		return handler.handleSubscribe(client, msg)

	case MessageTypeUnsubscribe:
		return handler.handleUnsubscribe(client, msg)

	case MessageTypePlaceBid:
		return handler.handlePlaceBid(client, msg)

	case MessageTypeGenerateItem:
		return handler.handleGenerateItem(client)

	case MessageTypeGetState:
		return client.Send(handler.stateMessage(client.ctx))

	default:
		handler.logger.Warn().Str("client_id", client.id).Str("message_type", string(msg.Type)).Msg("Unknown message type from client")
		return shared.ErrUnknownMessageType
	}
}

// GetConnectedClients returns the number of connected clients
func (handler *WsHandler) GetConnectedClients() int {
	handler.clientsMu.RLock()
	defer handler.clientsMu.RUnlock()
	return len(handler.clients)
}

func (handler *WsHandler) handleSubscribe(client *WsClient, msg *ClientMessage) error {
	collection, err := msg.Collection()
	if err != nil {
		return err
	}

	eventChan := handler.getEventChannel(client.id)
	if eventChan == nil {
		handler.logger.Error().Str("client_id", client.id).Msg("No event channel found for client")
		return shared.ErrClientChannelMissing
	}

	if err := handler.broadcaster.Subscribe(client.ctx, collection, client.id, eventChan); err != nil {
		handler.logger.Error().Err(err).Str("client_id", client.id).Str("collection", string(collection)).Msg("Failed to subscribe to collection")
		return err
	}

	response := NewServerMessage(MessageTypeSubscribed)
	response.Collection = collection
	return client.Send(response)
}

func (handler *WsHandler) handleUnsubscribe(client *WsClient, msg *ClientMessage) error {
	collection, err := msg.Collection()
	if err != nil {
		return err
	}

	if err := handler.broadcaster.Unsubscribe(client.ctx, collection, client.id); err != nil {
		return err
	}

	response := NewServerMessage(MessageTypeUnsubscribed)
	response.Collection = collection
	return client.Send(response)
}

// handlePlaceBid reports rejections to the bidder as error messages
func (handler *WsHandler) handlePlaceBid(client *WsClient, msg *ClientMessage) error {
	amount, err := msg.Amount()
	if err != nil {
		return err
	}

	req := inbound.PlaceBidRequest{
		UserID:     client.userID,
		ScheduleID: *msg.ScheduleID,
		Amount:     amount,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ack, err := handler.bidService.PlaceBid(client.ctx, req)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error(), msg.ScheduleID))
	}

	response := NewServerMessage(MessageTypeBidAccepted)
	response.ScheduleID = &ack.ScheduleID
	response.RecordID = ack.ItemID.String()
	response.Data["current_bid"] = ack.CurrentBid
	response.Data["highest_bidder_id"] = ack.HighestBidderID
	response.Data["deadline"] = ack.Deadline.UTC().Format(time.RFC3339Nano)

	handler.logger.Info().Str("user_id", client.userID).Int64("schedule_id", ack.ScheduleID).Int64("amount", amount).Msg("Bid placed successfully")
	return client.Send(response)
}

func (handler *WsHandler) handleGenerateItem(client *WsClient) error {
	summary, err := handler.auctionService.GenerateNextItem(client.ctx)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error(), nil))
	}

	response := NewServerMessage(MessageTypeItemGenerated)
	response.ScheduleID = &summary.ScheduleID
	response.RecordID = summary.ID.String()
	response.Data["name"] = summary.Name
	response.Data["starting_price"] = summary.StartingPrice
	response.Data["deadline"] = summary.Deadline.UTC().Format(time.RFC3339Nano)
	if summary.Settlement != nil {
		response.Data["settlement"] = summary.Settlement
	}
	return client.Send(response)
}

// stateMessage describes the active lot, or its absence
func (handler *WsHandler) stateMessage(ctx context.Context) *ServerMessage {
	view, err := handler.auctionService.GetActiveLot(ctx)
	if err != nil && !errors.Is(err, shared.ErrItemNotFound) {
		return NewErrorMessage(err.Error(), nil)
	}

	response := NewServerMessage(MessageTypeState)
	if view == nil {
		response.Data["state"] = item.StateNoActiveLot
		response.Data["item"] = nil
		return response
	}

	response.ScheduleID = &view.Item.ScheduleID
	response.RecordID = view.Item.ID.String()
	response.Data["state"] = view.State
	response.Data["item"] = view.Item
	response.Data["observed_at"] = view.ObservedAt.UTC().Format(time.RFC3339Nano)
	return response
}
