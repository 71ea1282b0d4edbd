package checkout

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/samiro/storefront/internal/apperr"
	"github.com/samiro/storefront/internal/models"
	"github.com/samiro/storefront/internal/payment"
	"github.com/samiro/storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	variants map[int64]models.Variant
}

func (f *fakeOracle) VariantsByIDs(_ context.Context, ids []int64) ([]models.Variant, error) {
	var out []models.Variant
	for _, id := range ids {
		if v, ok := f.variants[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeGateway struct {
	lastAmount   int64
	lastCurrency string
	err          error
}

func (f *fakeGateway) CreateIntent(_ context.Context, amountMinorUnits int64, currency string, _ models.ShippingAddress) (*payment.Intent, error) {
	if f.err != nil {
		return nil, &apperr.ExternalServiceError{Service: "stripe", Err: f.err}
	}
	f.lastAmount = amountMinorUnits
	f.lastCurrency = currency
	return &payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func testService(oracle pricing.CatalogOracle, gateway payment.Gateway) *Service {
	return NewService(nil, oracle, gateway, "eur", slog.New(slog.DiscardHandler))
}

func validAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   "Ada Lovelace",
		Address:    "12 Analytical Row",
		City:       "London",
		PostalCode: "N1 9GU",
		Country:    "GB",
	}
}

func TestValidateShippingAddress(t *testing.T) {
	require.NoError(t, ValidateShippingAddress(validAddress()))

	address := validAddress()
	address.City = ""
	address.Country = ""

	err := ValidateShippingAddress(address)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "city")
	assert.Contains(t, verr.Reason, "country")
}

func TestCreateOrderMissingFields(t *testing.T) {
	svc := testService(&fakeOracle{}, &fakeGateway{})

	tests := []struct {
		name string
		req  CreateOrderRequest
	}{
		{"no items", CreateOrderRequest{DeliveryMethod: "standard", PaymentIntentID: "pi_1", ShippingAddress: validAddress()}},
		{"no delivery method", CreateOrderRequest{Items: []pricing.LineItem{{VariantID: 1, Quantity: 1}}, PaymentIntentID: "pi_1", ShippingAddress: validAddress()}},
		{"no payment reference", CreateOrderRequest{Items: []pricing.LineItem{{VariantID: 1, Quantity: 1}}, DeliveryMethod: "standard", ShippingAddress: validAddress()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), tt.req)
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestCreateOrderTotalMismatch(t *testing.T) {
	oracle := &fakeOracle{variants: map[int64]models.Variant{
		1: {ID: 1, Price: decimal.NewFromInt(100)},
	}}
	svc := testService(oracle, &fakeGateway{})

	// price 100, standard surcharge 5 -> authoritative total 105
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:          1,
		Items:           []pricing.LineItem{{VariantID: 1, Quantity: 1}},
		ShippingAddress: validAddress(),
		TotalAmount:     decimal.NewFromInt(100),
		DeliveryMethod:  "standard",
		PaymentIntentID: "pi_1",
	})

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "total amount mismatch", verr.Reason)
}

func TestCreateOrderUnknownDeliveryMethod(t *testing.T) {
	oracle := &fakeOracle{variants: map[int64]models.Variant{
		1: {ID: 1, Price: decimal.NewFromInt(100)},
	}}
	svc := testService(oracle, &fakeGateway{})

	for _, method := range []string{"overnight", "pigeon", "standardd"} {
		_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
			UserID:          1,
			Items:           []pricing.LineItem{{VariantID: 1, Quantity: 1}},
			ShippingAddress: validAddress(),
			TotalAmount:     decimal.NewFromInt(105),
			DeliveryMethod:  method,
			PaymentIntentID: "pi_1",
		})

		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr, "method %q", method)
	}
}

func TestCreateOrderFromCartAborted(t *testing.T) {
	// A closed pool makes the transaction fail before any statement runs;
	// the caller must see the abort wrapper, not a validation error.
	db, err := sql.Open("postgres", "postgres://localhost:5432/none?sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	svc := NewService(db, &fakeOracle{}, &fakeGateway{}, "eur", slog.New(slog.DiscardHandler))

	_, err = svc.CreateOrderFromCart(context.Background(), 1)
	var aerr *apperr.TransactionAbortError
	require.ErrorAs(t, err, &aerr)
}

func TestFetchPaymentIntent(t *testing.T) {
	oracle := &fakeOracle{variants: map[int64]models.Variant{
		1: {ID: 1, Price: decimal.RequireFromString("99.99")},
	}}
	gateway := &fakeGateway{}
	svc := testService(oracle, gateway)

	intent, err := svc.FetchPaymentIntent(context.Background(), PaymentIntentRequest{
		Items:           []pricing.LineItem{{VariantID: 1, Quantity: 2}},
		ShippingAddress: validAddress(),
		TotalAmount:     decimal.RequireFromString("214.98"), // 2*99.99 + 15
		DeliveryMethod:  "express",
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_test_secret", intent.ClientSecret)
	assert.Equal(t, int64(21498), gateway.lastAmount)
	assert.Equal(t, "eur", gateway.lastCurrency)
}

func TestFetchPaymentIntentMismatch(t *testing.T) {
	oracle := &fakeOracle{variants: map[int64]models.Variant{
		1: {ID: 1, Price: decimal.NewFromInt(100)},
	}}
	gateway := &fakeGateway{}
	svc := testService(oracle, gateway)

	_, err := svc.FetchPaymentIntent(context.Background(), PaymentIntentRequest{
		Items:          []pricing.LineItem{{VariantID: 1, Quantity: 1}},
		TotalAmount:    decimal.NewFromInt(100), // authoritative is 105
		DeliveryMethod: "standard",
	})

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, gateway.lastAmount, "gateway must not be called on mismatch")
}

func TestFetchPaymentIntentInvalidTotal(t *testing.T) {
	svc := testService(&fakeOracle{}, &fakeGateway{})

	for _, total := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, err := svc.FetchPaymentIntent(context.Background(), PaymentIntentRequest{
			Items:          []pricing.LineItem{{VariantID: 1, Quantity: 1}},
			TotalAmount:    total,
			DeliveryMethod: "standard",
		})

		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr)
	}
}

func TestFetchPaymentIntentMissingVariant(t *testing.T) {
	oracle := &fakeOracle{variants: map[int64]models.Variant{
		1: {ID: 1, Price: decimal.NewFromInt(50)},
	}}
	gateway := &fakeGateway{}
	svc := testService(oracle, gateway)

	_, err := svc.FetchPaymentIntent(context.Background(), PaymentIntentRequest{
		Items:          []pricing.LineItem{{VariantID: 1, Quantity: 1}, {VariantID: 404, Quantity: 1}},
		TotalAmount:    decimal.NewFromInt(55),
		DeliveryMethod: "standard",
	})

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, gateway.lastAmount)
}

func TestFetchPaymentIntentGatewayFailure(t *testing.T) {
	oracle := &fakeOracle{variants: map[int64]models.Variant{
		1: {ID: 1, Price: decimal.NewFromInt(100)},
	}}
	gateway := &fakeGateway{err: errors.New("connection refused")}
	svc := testService(oracle, gateway)

	_, err := svc.FetchPaymentIntent(context.Background(), PaymentIntentRequest{
		Items:          []pricing.LineItem{{VariantID: 1, Quantity: 1}},
		TotalAmount:    decimal.NewFromInt(105),
		DeliveryMethod: "standard",
	})

	var serr *apperr.ExternalServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "stripe", serr.Service)
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"105", 10500},
		{"0.01", 1},
		{"214.98", 21498},
		{"19.99", 1999},
	}

	for _, tt := range tests {
		got := MinorUnits(decimal.RequireFromString(tt.amount))
		assert.Equal(t, tt.want, got, "amount %s", tt.amount)
	}
}
