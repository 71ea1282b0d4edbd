package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/models"
)

func CreateUser(ctx context.Context, db *sql.DB, email, username string) (*models.User, error) {
	user := &models.User{}

	query := `
		INSERT INTO users (email, username, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, email, username, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, email, username).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id int64) (*models.User, error) {
	user := &models.User{}

	query := `
		SELECT id, email, username, created_at, updated_at
		FROM users
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func ListUsers(ctx context.Context, db *sql.DB, page, pageSize int) (*UserPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, email, username, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Username,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &UserPage{
		Users:      users,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// AppendOrderHistory records an order on the owning user exactly once. The
// primary key makes a duplicate append a no-op error surfaced to the caller.
func AppendOrderHistory(ctx context.Context, db *sql.DB, userID, orderID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO user_order_history (user_id, order_id, created_at)
		 VALUES ($1, $2, NOW())`,
		userID, orderID)
	if err != nil {
		return fmt.Errorf("append order history: %w", err)
	}
	return nil
}

func OrderHistoryIDs(ctx context.Context, db *sql.DB, userID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT order_id FROM user_order_history WHERE user_id = $1 ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return ids, nil
}
