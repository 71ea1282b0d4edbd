package messaging

import (
	"time"

	"github.com/google/uuid"
	"github.com/samiro/storefront/internal/models"
	"github.com/shopspring/decimal"
)

type OrderCreatedEvent struct {
	EventID     string           `json:"event_id"`
	OrderID     int64            `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	UserID      int64            `json:"user_id"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Items       []OrderEventItem `json:"items"`
	CreatedAt   time.Time        `json:"created_at"`
}

type OrderEventItem struct {
	VariantID int64           `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// NewOrderCreatedEvent snapshots the order at creation time. The event id
// lets downstream consumers dedupe redeliveries.
func NewOrderCreatedEvent(order *models.Order) OrderCreatedEvent {
	items := make([]OrderEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderEventItem{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return OrderCreatedEvent{
		EventID:     uuid.NewString(),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       items,
		CreatedAt:   time.Now().UTC(),
	}
}
