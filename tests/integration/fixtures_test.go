package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"

	"github.com/samiro/storefront/internal/checkout"
	"github.com/samiro/storefront/internal/models"
	"github.com/samiro/storefront/internal/payment"
	"github.com/samiro/storefront/internal/store"
	"github.com/shopspring/decimal"
)

// stubGateway stands in for the payment provider; integration tests never
// reach a real one.
type stubGateway struct{}

func (stubGateway) CreateIntent(_ context.Context, _ int64, _ string, _ models.ShippingAddress) (*payment.Intent, error) {
	return &payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func newCheckoutService(db *sql.DB) *checkout.Service {
	logger := slog.New(slog.DiscardHandler)
	return checkout.NewService(db, checkout.NewCatalogOracle(db), stubGateway{}, "eur", logger)
}

func createTestUser(t *testing.T, db *sql.DB, name string) *models.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), db, name+"@example.com", name)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// createTestModel builds a category/brand/model chain named after prefix.
func createTestModel(t *testing.T, db *sql.DB, prefix string) *models.Model {
	t.Helper()
	ctx := context.Background()

	category, err := store.CreateCategory(ctx, db, prefix+" Category", "", "")
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}

	brand, err := store.CreateBrand(ctx, db, category.ID, prefix+" Brand")
	if err != nil {
		t.Fatalf("Failed to create brand: %v", err)
	}

	model, err := store.CreateModel(ctx, db, &models.Model{
		BrandID:    brand.ID,
		CategoryID: category.ID,
		Name:       prefix + " Model",
	})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}

	return model
}

func createTestVariant(t *testing.T, db *sql.DB, modelID int64, sku, price string, stock int) *models.Variant {
	t.Helper()

	variant, err := store.CreateVariant(context.Background(), db, &models.Variant{
		ModelID: modelID,
		SKU:     sku,
		Name:    "Variant " + sku,
		Price:   decimal.RequireFromString(price),
		Stock:   stock,
	})
	if err != nil {
		t.Fatalf("Failed to create variant: %v", err)
	}
	return variant
}

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   "Test Buyer",
		Address:    "1 Test Street",
		City:       "Testville",
		PostalCode: "12345",
		Country:    "DE",
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return count
}
