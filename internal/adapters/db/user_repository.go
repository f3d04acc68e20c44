package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lot-auction-service/internal/domain/shared"
)

const userColumns = `id, name, online, balance, created_at`

// UserRepository implements the user repository interface
type UserRepository struct {
	q    querier
	lock bool
}

// NewUserRepository creates a new user repository
func NewUserRepository(q querier, lock bool) *UserRepository {
	return &UserRepository{q: q, lock: lock}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*shared.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if r.lock {
		query += " FOR UPDATE"
	}
	return scanUser(r.q.QueryRowContext(ctx, query, id))
}

// List retrieves all users ordered by creation
func (r *UserRepository) List(ctx context.Context) ([]*shared.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*shared.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *shared.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Online,
		user.Balance,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", shared.ErrUserAlreadyExists, user.ID)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// AdjustBalance adds delta to the user's balance
func (r *UserRepository) AdjustBalance(ctx context.Context, id string, delta int64) (*shared.User, error) {
	query := `
		UPDATE users
		SET balance = balance + $2
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUser(r.q.QueryRowContext(ctx, query, id, delta))
}

func scanUser(row rowScanner) (*shared.User, error) {
	var user shared.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Online,
		&user.Balance,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
