// Package checkout turns validated carts and item lists into durable
// orders. All totals are recomputed here via the pricing engine; a
// client-declared total is only ever compared against, never used.
package checkout

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/samiro/storefront/internal/apperr"
	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/models"
	"github.com/samiro/storefront/internal/payment"
	"github.com/samiro/storefront/internal/pricing"
	"github.com/samiro/storefront/internal/store"
	"github.com/shopspring/decimal"
)

type Service struct {
	db       *sql.DB
	oracle   pricing.CatalogOracle
	gateway  payment.Gateway
	currency string
	logger   *slog.Logger
}

func NewService(db *sql.DB, oracle pricing.CatalogOracle, gateway payment.Gateway, currency string, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		oracle:   oracle,
		gateway:  gateway,
		currency: currency,
		logger:   logger,
	}
}

// NewCatalogOracle returns the database-backed price oracle.
func NewCatalogOracle(db *sql.DB) pricing.CatalogOracle {
	return &dbOracle{db: db}
}

type dbOracle struct {
	db *sql.DB
}

func (o *dbOracle) VariantsByIDs(ctx context.Context, ids []int64) ([]models.Variant, error) {
	return store.VariantsByIDs(ctx, o.db, ids)
}

type CreateOrderRequest struct {
	UserID          int64
	Items           []pricing.LineItem
	ShippingAddress models.ShippingAddress
	TotalAmount     decimal.Decimal
	DeliveryMethod  string
	PaymentIntentID string
}

// ValidateShippingAddress requires all five address fields and names the
// missing ones in the failure.
func ValidateShippingAddress(address models.ShippingAddress) error {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"fullName", address.FullName},
		{"address", address.Address},
		{"city", address.City},
		{"postalCode", address.PostalCode},
		{"country", address.Country},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}

	if len(missing) > 0 {
		return apperr.Validationf("missing required address fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CreateOrder materializes an order from a client-submitted item list. The
// payment reference must already exist (the client paid against an intent
// from FetchPaymentIntent). The order insert and the user history append
// are separate writes: an order can exist without its history entry when
// the second write fails. Extending the transaction across both is a known
// open item.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 || req.DeliveryMethod == "" || req.PaymentIntentID == "" {
		return nil, apperr.Validationf("all required fields must be provided")
	}

	if err := ValidateShippingAddress(req.ShippingAddress); err != nil {
		return nil, err
	}

	quote, err := pricing.PriceItems(ctx, s.oracle, req.Items, req.DeliveryMethod)
	if err != nil {
		return nil, err
	}

	// Tamper-detection boundary: the order is never created from a
	// caller-asserted amount.
	if !quote.Total.Equal(req.TotalAmount) {
		return nil, apperr.Validationf("total amount mismatch")
	}

	if _, err := store.GetUser(ctx, s.db, req.UserID); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}

	order := &models.Order{
		UserID:          req.UserID,
		Status:          models.OrderStatusProcessing,
		TotalAmount:     quote.Total,
		DeliveryMethod:  strings.ToLower(req.DeliveryMethod),
		PaymentIntentID: req.PaymentIntentID,
		ShippingAddress: req.ShippingAddress,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: quote.Variants[item.VariantID].Price,
		})
	}

	err = database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		_, err := store.InsertOrder(ctx, tx, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := store.AppendOrderHistory(ctx, s.db, req.UserID, order.ID); err != nil {
		s.logger.Error("order persisted but history append failed",
			"order_id", order.ID, "user_id", req.UserID, "error", err)
		return nil, err
	}

	return order, nil
}

type PaymentIntentRequest struct {
	Items           []pricing.LineItem
	ShippingAddress models.ShippingAddress
	TotalAmount     decimal.Decimal
	DeliveryMethod  string
}

// FetchPaymentIntent prices the items, verifies the client-declared total
// and asks the gateway for an intent over the authoritative amount.
// Persists nothing.
func (s *Service) FetchPaymentIntent(ctx context.Context, req PaymentIntentRequest) (*payment.Intent, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validationf("order items are required")
	}
	if req.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.Validationf("total amount must be a positive number")
	}

	quote, err := pricing.PriceItems(ctx, s.oracle, req.Items, req.DeliveryMethod)
	if err != nil {
		return nil, err
	}

	if !quote.Total.Equal(req.TotalAmount) {
		return nil, apperr.Validationf("total amount mismatch")
	}

	intent, err := s.gateway.CreateIntent(ctx, MinorUnits(quote.Total), s.currency, req.ShippingAddress)
	if err != nil {
		return nil, err
	}

	return intent, nil
}

// MinorUnits converts a decimal amount to the gateway's integer cent
// convention.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// CreateOrderFromCart derives an order from the caller's current cart and
// empties the cart, atomically: on any failure neither the order nor the
// cart mutation is visible. Prices come from the live variant rows joined
// inside the transaction; no delivery surcharge applies on this path.
func (s *Service) CreateOrderFromCart(ctx context.Context, userID int64) (*models.Order, error) {
	var order *models.Order

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		cartID, items, err := store.CartItemsForCheckout(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, database.ErrCartNotFound) {
				return apperr.Validationf("cart is empty")
			}
			return err
		}
		if len(items) == 0 {
			return apperr.Validationf("cart is empty")
		}

		total := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
			orderItems = append(orderItems, models.OrderItem{
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}

		order = &models.Order{
			UserID:      userID,
			Status:      models.OrderStatusPending,
			TotalAmount: total,
			Items:       orderItems,
		}

		if _, err := store.InsertOrder(ctx, tx, order); err != nil {
			return err
		}

		return store.ClearCartTx(ctx, tx, cartID)
	})
	if err != nil {
		var verr *apperr.ValidationError
		if errors.As(err, &verr) {
			return nil, verr
		}
		return nil, &apperr.TransactionAbortError{Err: err}
	}

	return order, nil
}
