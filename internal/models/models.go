package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ImageURL    string    `json:"image_url,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Brand struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Model struct {
	ID          int64      `json:"id"`
	BrandID     int64      `json:"brand_id"`
	CategoryID  int64      `json:"category_id"`
	Name        string     `json:"name"`
	ImageURL    string     `json:"image_url,omitempty"`
	Features    []string   `json:"features,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Filled by read shapes that join brand/category names.
	BrandName    string `json:"brand_name,omitempty"`
	CategoryName string `json:"category_name,omitempty"`

	// Filled by read shapes that need them.
	StartPrice *decimal.Decimal `json:"start_price,omitempty"`
	Variants   []Variant        `json:"variants,omitempty"`
}

type Variant struct {
	ID        int64           `json:"id"`
	ModelID   int64           `json:"model_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Color     string          `json:"color,omitempty"`
	Storage   string          `json:"storage,omitempty"`
	ImageURLs []string        `json:"image_urls,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        int64 `json:"id"`
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`

	// Resolved live from the catalog on read; never stored.
	VariantName string          `json:"variant_name,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	OrderNumber     string          `json:"order_number"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DeliveryMethod  string          `json:"delivery_method,omitempty"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	VariantID int64           `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
}

type Review struct {
	ID        int64     `json:"id"`
	ModelID   *int64    `json:"model_id,omitempty"`
	VariantID *int64    `json:"variant_id,omitempty"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
