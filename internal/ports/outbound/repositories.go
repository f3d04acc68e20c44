package outbound

import (
	"context"

	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

// ItemRepository defines the interface for lot data operations
type ItemRepository interface {
	// GetActive retrieves the active lot, or shared.ErrItemNotFound
	GetActive(ctx context.Context) (*item.Item, error)

	// GetByID retrieves a lot by ID
	GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error)

	// Create creates a new lot; fails with shared.ErrActiveLotExists if one exists
	Create(ctx context.Context, it *item.Item) error

	// UpdateBid writes the bid fields of it only if current_bid still equals expectedCurrentBid
	UpdateBid(ctx context.Context, it *item.Item, expectedCurrentBid int64) error

	// Delete deletes a lot
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines the interface for bidder data operations
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*shared.User, error)

	// List retrieves all users ordered by creation
	List(ctx context.Context) ([]*shared.User, error)

	// Create creates a new user; fails with shared.ErrUserAlreadyExists on a duplicate id
	Create(ctx context.Context, user *shared.User) error

	// AdjustBalance adds delta to the user's balance and returns the updated user
	AdjustBalance(ctx context.Context, id string, delta int64) (*shared.User, error)
}

// Repositories groups the repositories bound to one unit of work
type Repositories struct {
	Items ItemRepository
	Users UserRepository
}

// Transactor runs units of work against the store
type Transactor interface {
	// WithinTransaction runs fn atomically. Rows read through tx are held exclusively until fn returns;
	// any error from fn discards every write made through tx.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error

	// View runs fn against a consistent read-only view without taking write locks
	View(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
