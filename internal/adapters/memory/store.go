package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is a concurrency-safe in-memory implementation of outbound.Transactor.
// Transactions are serialized by a single writer lock and operate on a staged copy
// that replaces the live state only when the unit of work succeeds.
type Store struct {
	mu     sync.RWMutex
	state  *state
	logger zerolog.Logger
}

type StoreParams struct {
	Logger zerolog.Logger
}

type state struct {
	items map[uuid.UUID]item.Item // key: item ID -> value: lot, at most one entry
	users map[string]shared.User  // key: user ID -> value: user
}

// NewStore creates a new empty in-memory store
func NewStore(params StoreParams) *Store {
	return &Store{
		state: &state{
			items: make(map[uuid.UUID]item.Item),
			users: make(map[string]shared.User),
		},
		logger: params.Logger.With().Str("component", "memory_store").Logger(),
	}
}

func (s *state) clone() *state {
	c := &state{
		items: make(map[uuid.UUID]item.Item, len(s.items)),
		users: make(map[string]shared.User, len(s.users)),
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

func (s *state) repositories(readOnly bool) outbound.Repositories {
	return outbound.Repositories{
		Items: &itemRepository{state: s, readOnly: readOnly},
		Users: &userRepository{state: s, readOnly: readOnly},
	}
}

// WithinTransaction runs fn while holding the store's writer lock
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx outbound.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	staged := s.state.clone()
	if err := fn(ctx, staged.repositories(false)); err != nil {
		s.logger.Debug().Err(err).Msg("Discarding staged changes")
		return err
	}

	s.state = staged
	return nil
}

// View runs fn against a snapshot of the current state
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, repos outbound.Repositories) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, snapshot.repositories(true))
}

var errReadOnly = fmt.Errorf("%w: write attempted in read-only view", shared.ErrDatabaseTransaction)

type itemRepository struct {
	state    *state
	readOnly bool
}

func (r *itemRepository) GetActive(ctx context.Context) (*item.Item, error) {
	for _, it := range r.state.items {
		found := it
		return &found, nil
	}
	return nil, shared.ErrItemNotFound
}

func (r *itemRepository) GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	it, ok := r.state.items[id]
	if !ok {
		return nil, fmt.Errorf("get item %s: %w", id, shared.ErrItemNotFound)
	}
	return &it, nil
}

func (r *itemRepository) Create(ctx context.Context, it *item.Item) error {
	if r.readOnly {
		return errReadOnly
	}
	if len(r.state.items) > 0 {
		return shared.ErrActiveLotExists
	}
	r.state.items[it.ID] = *it
	return nil
}

func (r *itemRepository) UpdateBid(ctx context.Context, it *item.Item, expectedCurrentBid int64) error {
	if r.readOnly {
		return errReadOnly
	}
	stored, ok := r.state.items[it.ID]
	if !ok {
		return fmt.Errorf("update bid on item %s: %w", it.ID, shared.ErrItemNotFound)
	}
	if stored.CurrentBid != expectedCurrentBid {
		return shared.ErrBidTooLow
	}

	stored.CurrentBid = it.CurrentBid
	stored.HighestBidderID = it.HighestBidderID
	stored.Deadline = it.Deadline
	r.state.items[it.ID] = stored
	return nil
}

func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if r.readOnly {
		return errReadOnly
	}
	if _, ok := r.state.items[id]; !ok {
		return fmt.Errorf("delete item %s: %w", id, shared.ErrItemNotFound)
	}
	delete(r.state.items, id)
	return nil
}

type userRepository struct {
	state    *state
	readOnly bool
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*shared.User, error) {
	user, ok := r.state.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*shared.User, error) {
	users := make([]*shared.User, 0, len(r.state.users))
	for _, u := range r.state.users {
		user := u
		users = append(users, &user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *shared.User) error {
	if r.readOnly {
		return errReadOnly
	}
	if _, exists := r.state.users[user.ID]; exists {
		return fmt.Errorf("create user %s: %w", user.ID, shared.ErrUserAlreadyExists)
	}
	r.state.users[user.ID] = *user
	return nil
}

func (r *userRepository) AdjustBalance(ctx context.Context, id string, delta int64) (*shared.User, error) {
	if r.readOnly {
		return nil, errReadOnly
	}
	user, ok := r.state.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	user.Credit(delta)
	r.state.users[id] = user
	return &user, nil
}
