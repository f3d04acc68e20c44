package app

import (
	"context"
	"errors"
	"time"

	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/inbound"
	"lot-auction-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// UserService implements the bidder use cases
type UserService struct {
	store           outbound.Transactor
	broadcaster     outbound.Broadcaster
	startingBalance int64
	now             func() time.Time
	logger          zerolog.Logger
}

type UserServiceParams struct {
	Store           outbound.Transactor
	Broadcaster     outbound.Broadcaster
	StartingBalance int64
	Now             func() time.Time
	Logger          zerolog.Logger
}

// NewUserService creates a new user service
func NewUserService(params UserServiceParams) *UserService {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	balance := params.StartingBalance
	if balance == 0 {
		balance = shared.DefaultStartingBalance
	}
	return &UserService{
		store:           params.Store,
		broadcaster:     params.Broadcaster,
		startingBalance: balance,
		now:             now,
		logger:          params.Logger.With().Str("component", "user_service").Logger(),
	}
}

// EnsureUser creates the user on first sight and otherwise returns it untouched
func (service *UserService) EnsureUser(ctx context.Context, req inbound.EnsureUserRequest) (*shared.User, error) {
	if req.ID == "" {
		return nil, shared.ErrUserIDRequired
	}

	now := service.now()

	var (
		user    *shared.User
		created bool
	)
	err := service.store.WithinTransaction(ctx, func(ctx context.Context, tx outbound.Repositories) error {
		user, created = nil, false

		existing, err := tx.Users.GetByID(ctx, req.ID)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, shared.ErrUserNotFound) {
			return err
		}

		name := req.Name
		if name == "" {
			name = shared.DefaultUserName(req.ID)
		}
		fresh := &shared.User{
			ID:        req.ID,
			Name:      name,
			Online:    true,
			Balance:   service.startingBalance,
			CreatedAt: now,
		}
		if err := tx.Users.Create(ctx, fresh); err != nil {
			return err
		}
		user, created = fresh, true
		return nil
	})
	if errors.Is(err, shared.ErrUserAlreadyExists) {
		// another instance inserted it between our read and write
		return service.GetUser(ctx, req.ID)
	}
	if err != nil {
		service.logger.Error().Err(err).Str("user_id", req.ID).Msg("Failed to ensure user")
		return nil, err
	}

	if created {
		service.logger.Info().
			Str("user_id", user.ID).
			Str("name", user.Name).
			Int64("balance", user.Balance).
			Msg("User created")
		publishAll(ctx, service.broadcaster, service.logger, userChange(outbound.ActionCreate, user, now))
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (service *UserService) GetUser(ctx context.Context, userID string) (*shared.User, error) {
	var user *shared.User
	err := service.store.View(ctx, func(ctx context.Context, repos outbound.Repositories) error {
		var err error
		user, err = repos.Users.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers retrieves every known user
func (service *UserService) ListUsers(ctx context.Context) ([]*shared.User, error) {
	var users []*shared.User
	err := service.store.View(ctx, func(ctx context.Context, repos outbound.Repositories) error {
		var err error
		users, err = repos.Users.List(ctx)
		return err
	})
	if err != nil {
		service.logger.Error().Err(err).Msg("Failed to list users")
		return nil, err
	}
	return users, nil
}
