package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/models"
	"github.com/shopspring/decimal"
)

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
}

func decimalFromInt(quantity int) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity))
}

// InsertOrder persists an order and its item lines inside the caller's
// transaction. Validation and total computation happen upstream in the
// checkout package; this only turns a validated order into rows.
func InsertOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error) {
	order.OrderNumber = generateOrderNumber()
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}

	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, order_number, status, total_amount, delivery_method,
		                     payment_intent_id, shipping_full_name, shipping_address,
		                     shipping_city, shipping_postal_code, shipping_country,
		                     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		 RETURNING id, created_at, updated_at`,
		order.UserID,
		order.OrderNumber,
		order.Status,
		order.TotalAmount,
		order.DeliveryMethod,
		order.PaymentIntentID,
		order.ShippingAddress.FullName,
		order.ShippingAddress.Address,
		order.ShippingAddress.City,
		order.ShippingAddress.PostalCode,
		order.ShippingAddress.Country,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		item.Subtotal = item.UnitPrice.Mul(decimalFromInt(item.Quantity))

		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, variant_id, quantity, unit_price, subtotal, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())
			 RETURNING id, created_at`,
			item.OrderID, item.VariantID, item.Quantity, item.UnitPrice, item.Subtotal,
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT id, user_id, order_number, status, total_amount, delivery_method,
		       payment_intent_id, shipping_full_name, shipping_address,
		       shipping_city, shipping_postal_code, shipping_country,
		       created_at, updated_at
		FROM orders
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.TotalAmount,
		&order.DeliveryMethod,
		&order.PaymentIntentID,
		&order.ShippingAddress.FullName,
		&order.ShippingAddress.Address,
		&order.ShippingAddress.City,
		&order.ShippingAddress.PostalCode,
		&order.ShippingAddress.Country,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, variant_id, quantity, unit_price, subtotal, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.VariantID,
			&item.Quantity,
			&item.UnitPrice,
			&item.Subtotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	order.Items = items

	return order, nil
}

func ListOrdersCursor(ctx context.Context, db *sql.DB, userID int64, cursor string, limit int) (*OrderPage, error) {
	cursorData, err := decodeOrderCursor(cursor)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, order_number, status, total_amount, delivery_method,
		       payment_intent_id, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.createdAt, cursorData.id, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.OrderNumber,
			&order.Status,
			&order.TotalAmount,
			&order.DeliveryMethod,
			&order.PaymentIntentID,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = encodeOrderCursor(orderCursor{
			createdAt: lastOrder.CreatedAt,
			id:        lastOrder.ID,
		})
	}

	return &OrderPage{
		Orders:     orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// UpdateOrderStatus is the only mutation an order supports after creation.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, id int64, status string) (*models.Order, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, database.ErrOrderNotFound
	}

	return GetOrder(ctx, db, id)
}
