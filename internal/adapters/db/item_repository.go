package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

const itemColumns = `id, schedule_id, name, starting_price, current_bid, highest_bidder_id, deadline, created_at`

// ItemRepository implements the item repository interface.
// Reads lock the returned row when the repository is bound to a transaction.
type ItemRepository struct {
	q    querier
	lock bool
}

// NewItemRepository creates a new item repository
func NewItemRepository(q querier, lock bool) *ItemRepository {
	return &ItemRepository{q: q, lock: lock}
}

func (r *ItemRepository) forUpdate(query string) string {
	if r.lock {
		return query + " FOR UPDATE"
	}
	return query
}

// GetActive retrieves the single lot
func (r *ItemRepository) GetActive(ctx context.Context) (*item.Item, error) {
	query := r.forUpdate(`SELECT ` + itemColumns + ` FROM items ORDER BY schedule_id DESC LIMIT 1`)
	return scanItem(r.q.QueryRowContext(ctx, query))
}

// GetByID retrieves a lot by ID
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	query := r.forUpdate(`SELECT ` + itemColumns + ` FROM items WHERE id = $1`)
	return scanItem(r.q.QueryRowContext(ctx, query, id))
}

// Create creates a new lot
func (r *ItemRepository) Create(ctx context.Context, it *item.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		it.ID,
		it.ScheduleID,
		it.Name,
		it.StartingPrice,
		it.CurrentBid,
		nullableBidder(it.HighestBidderID),
		it.Deadline,
		it.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrActiveLotExists
		}
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// UpdateBid writes the bid fields when current_bid still holds the expected value
func (r *ItemRepository) UpdateBid(ctx context.Context, it *item.Item, expectedCurrentBid int64) error {
	query := `
		UPDATE items
		SET current_bid = $2, highest_bidder_id = $3, deadline = $4
		WHERE id = $1 AND current_bid = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		it.ID,
		it.CurrentBid,
		nullableBidder(it.HighestBidderID),
		it.Deadline,
		expectedCurrentBid,
	)
	if err != nil {
		return fmt.Errorf("failed to update bid: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrBidTooLow
	}

	return nil
}

// Delete deletes a lot
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrItemNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*item.Item, error) {
	var (
		it     item.Item
		bidder sql.NullString
	)
	err := row.Scan(
		&it.ID,
		&it.ScheduleID,
		&it.Name,
		&it.StartingPrice,
		&it.CurrentBid,
		&bidder,
		&it.Deadline,
		&it.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	it.HighestBidderID = bidder.String
	it.Deadline = it.Deadline.UTC()
	it.CreatedAt = it.CreatedAt.UTC()
	return &it, nil
}

func nullableBidder(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}
