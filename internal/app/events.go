package app

import (
	"context"
	"time"

	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

func itemData(it *item.Item) map[string]interface{} {
	data := map[string]interface{}{
		"id":                it.ID.String(),
		"schedule_id":       it.ScheduleID,
		"name":              it.Name,
		"starting_price":    it.StartingPrice,
		"current_bid":       it.CurrentBid,
		"highest_bidder_id": nil,
		"deadline":          it.Deadline.UTC().Format(time.RFC3339Nano),
	}
	if it.HasBids() {
		data["highest_bidder_id"] = it.HighestBidderID
	}
	return data
}

func userData(user *shared.User) map[string]interface{} {
	return map[string]interface{}{
		"id":      user.ID,
		"name":    user.Name,
		"online":  user.Online,
		"balance": user.Balance,
	}
}

func itemChange(action outbound.Action, it *item.Item, now time.Time) outbound.Event {
	return outbound.Event{
		Type:       outbound.EventTypeChange,
		Collection: outbound.CollectionItem,
		Action:     action,
		RecordID:   it.ID.String(),
		Data:       itemData(it),
		Timestamp:  now.Unix(),
	}
}

func userChange(action outbound.Action, user *shared.User, now time.Time) outbound.Event {
	return outbound.Event{
		Type:       outbound.EventTypeChange,
		Collection: outbound.CollectionUser,
		Action:     action,
		RecordID:   user.ID,
		Data:       userData(user),
		Timestamp:  now.Unix(),
	}
}

// publishAll sends committed changes to the feed; failures are logged, never returned
func publishAll(ctx context.Context, broadcaster outbound.Broadcaster, logger zerolog.Logger, events ...outbound.Event) {
	if broadcaster == nil {
		return
	}
	for _, event := range events {
		if err := broadcaster.Publish(ctx, event); err != nil {
			logger.Error().
				Err(err).
				Str("collection", string(event.Collection)).
				Str("action", string(event.Action)).
				Str("record_id", event.RecordID).
				Msg("Failed to broadcast change event")
		}
	}
}
