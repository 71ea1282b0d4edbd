package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/models"
)

// GetCartWithItems loads a user's cart with each line's variant name and
// current price resolved from the catalog. A user without a cart gets an
// empty one back.
func GetCartWithItems(ctx context.Context, db *sql.DB, userID int64) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}

	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`,
		userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			cart.Items = []models.CartItem{}
			return cart, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	items, err := cartItems(ctx, db, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func cartItems(ctx context.Context, q rowQuerier, cartID int64) ([]models.CartItem, error) {
	query := `
		SELECT ci.id, ci.variant_id, ci.quantity, v.name, v.price
		FROM cart_items ci
		JOIN variants v ON v.id = ci.variant_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`

	rows, err := q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		err := rows.Scan(
			&item.ID,
			&item.VariantID,
			&item.Quantity,
			&item.VariantName,
			&item.UnitPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// AddCartItem merges the quantity into an existing line for the same variant
// or inserts a new one. The stock check reads the current quantity first and
// the increment itself is an atomic upsert, so two concurrent adds for the
// same variant sum rather than overwrite; the stock check itself may race.
func AddCartItem(ctx context.Context, db *sql.DB, userID, variantID int64, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	variant, err := GetVariant(ctx, db, variantID)
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO carts (user_id, created_at, updated_at)
		 VALUES ($1, NOW(), NOW())
		 ON CONFLICT (user_id) DO NOTHING`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("ensure cart: %w", err)
	}

	var cartID int64
	err = db.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart id: %w", err)
	}

	var existing int
	err = db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE cart_id = $1 AND variant_id = $2`,
		cartID, variantID).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("get existing quantity: %w", err)
	}

	if existing+quantity > variant.Stock {
		return nil, database.ErrInsufficientStock
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO cart_items (cart_id, variant_id, quantity, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 ON CONFLICT (cart_id, variant_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		cartID, variantID, quantity)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return GetCartWithItems(ctx, db, userID)
}

func RemoveCartItem(ctx context.Context, db *sql.DB, userID, variantID int64) (*models.Cart, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items
		 WHERE variant_id = $1
		   AND cart_id = (SELECT id FROM carts WHERE user_id = $2)`,
		variantID, userID)
	if err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, database.ErrCartNotFound
	}

	return GetCartWithItems(ctx, db, userID)
}

func ClearCart(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM cart_items
		 WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1)`,
		userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// CartItemsForCheckout loads the cart lines with live prices inside the
// caller's transaction; the cart row is locked so a concurrent checkout of
// the same cart serializes behind this one.
func CartItemsForCheckout(ctx context.Context, tx *sql.Tx, userID int64) (int64, []models.CartItem, error) {
	var cartID int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`,
		userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil, database.ErrCartNotFound
		}
		return 0, nil, fmt.Errorf("lock cart: %w", err)
	}

	items, err := cartItems(ctx, tx, cartID)
	if err != nil {
		return 0, nil, err
	}

	return cartID, items, nil
}

func ClearCartTx(ctx context.Context, tx *sql.Tx, cartID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
