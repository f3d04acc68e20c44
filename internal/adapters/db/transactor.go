package db

import (
	"context"
	"database/sql"

	"lot-auction-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// Transactor implements outbound.Transactor on PostgreSQL
type Transactor struct {
	conn   *Connection
	logger zerolog.Logger
}

type TransactorParams struct {
	Connection *Connection
	Logger     zerolog.Logger
}

func NewTransactor(params TransactorParams) *Transactor {
	return &Transactor{
		conn:   params.Connection,
		logger: params.Logger.With().Str("component", "postgres_transactor").Logger(),
	}
}

// Repositories binds every repository to q
func Repositories(q querier, lock bool) outbound.Repositories {
	return outbound.Repositories{
		Items: NewItemRepository(q, lock),
		Users: NewUserRepository(q, lock),
	}
}

// WithinTransaction runs fn in a read-committed transaction whose reads take row locks
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx outbound.Repositories) error) error {
	return t.conn.ExecuteTransaction(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(tx *sql.Tx) error {
		if err := fn(ctx, Repositories(tx, true)); err != nil {
			t.logger.Debug().Err(err).Msg("Rolling back transaction")
			return err
		}
		return nil
	})
}

// View runs fn in a read-only snapshot
func (t *Transactor) View(ctx context.Context, fn func(ctx context.Context, repos outbound.Repositories) error) error {
	return t.conn.ExecuteTransaction(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, func(tx *sql.Tx) error {
		return fn(ctx, Repositories(tx, false))
	})
}
