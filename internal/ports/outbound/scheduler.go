package outbound

import (
	"context"
	"time"

	"lot-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

//go:generate mockgen -source=scheduler.go -destination=mock_scheduler.go -package=outbound

// LotScheduler tracks lot deadlines so that the end of bidding can be announced
type LotScheduler interface {
	// ScheduleLot sets or moves the deadline of a lot
	ScheduleLot(ctx context.Context, itemID uuid.UUID, deadline time.Time) error

	// CancelLot stops tracking a lot
	CancelLot(ctx context.Context, itemID uuid.UUID) error
}

// SettlementPublisher announces settled lots to downstream consumers
type SettlementPublisher interface {
	PublishSettlement(ctx context.Context, result shared.SettlementResult) error
}
