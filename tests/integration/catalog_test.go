package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/models"
	"github.com/samiro/storefront/internal/store"
	"github.com/shopspring/decimal"
)

func TestCategoryCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category, err := store.CreateCategory(ctx, db, "Smartphones", "https://img.example/c.png", "Phones")
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	if category.ID == 0 {
		t.Fatal("Expected category id to be set")
	}

	// Duplicate name violates the unique constraint.
	_, err = store.CreateCategory(ctx, db, "Smartphones", "", "")
	if !database.IsUniqueViolation(err) {
		t.Errorf("Expected unique violation, got %v", err)
	}

	updated, err := store.UpdateCategory(ctx, db, category.ID, "Phones", "", "All phones")
	if err != nil {
		t.Fatalf("Failed to update category: %v", err)
	}
	if updated.Name != "Phones" {
		t.Errorf("Expected updated name, got %s", updated.Name)
	}

	list, err := store.ListCategories(ctx, db)
	if err != nil {
		t.Fatalf("Failed to list categories: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Expected 1 category, got %d", len(list))
	}

	if err := store.DeleteCategory(ctx, db, category.ID); err != nil {
		t.Fatalf("Failed to delete category: %v", err)
	}

	_, err = store.GetCategory(ctx, db, category.ID)
	if !errors.Is(err, database.ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}
}

func TestBrandsAndModelsHierarchy(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category, err := store.CreateCategory(ctx, db, "Laptops", "", "")
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}

	brand, err := store.CreateBrand(ctx, db, category.ID, "Lenovo")
	if err != nil {
		t.Fatalf("Failed to create brand: %v", err)
	}

	model, err := store.CreateModel(ctx, db, &models.Model{
		BrandID:    brand.ID,
		CategoryID: category.ID,
		Name:       "ThinkPad X1",
		Features:   []string{"14 inch", "32GB RAM"},
	})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}

	createTestVariant(t, db, model.ID, "TP-X1-512", "1499.00", 5)
	createTestVariant(t, db, model.ID, "TP-X1-1TB", "1299.00", 3)

	loaded, err := store.GetModel(ctx, db, model.ID)
	if err != nil {
		t.Fatalf("Failed to get model: %v", err)
	}
	if loaded.BrandName != "Lenovo" || loaded.CategoryName != "Laptops" {
		t.Errorf("Expected joined names, got brand=%q category=%q", loaded.BrandName, loaded.CategoryName)
	}
	if len(loaded.Variants) != 2 {
		t.Errorf("Expected 2 variants, got %d", len(loaded.Variants))
	}
	if len(loaded.Features) != 2 {
		t.Errorf("Expected 2 features, got %d", len(loaded.Features))
	}

	withPrices, err := store.ListModelsWithStartPrice(ctx, db, brand.ID)
	if err != nil {
		t.Fatalf("Failed to list models with start price: %v", err)
	}
	if len(withPrices) != 1 {
		t.Fatalf("Expected 1 model, got %d", len(withPrices))
	}
	if withPrices[0].StartPrice == nil {
		t.Fatal("Expected start price to be set")
	}
	if !withPrices[0].StartPrice.Equal(decimal.RequireFromString("1299.00")) {
		t.Errorf("Expected start price 1299.00, got %s", withPrices[0].StartPrice)
	}

	byCategory, err := store.ListModelsByCategory(ctx, db, category.ID)
	if err != nil {
		t.Fatalf("Failed to list models by category: %v", err)
	}
	if len(byCategory) != 1 {
		t.Errorf("Expected 1 model in category, got %d", len(byCategory))
	}

	// Deleting the category cascades through brands, models and variants.
	if err := store.DeleteCategory(ctx, db, category.ID); err != nil {
		t.Fatalf("Failed to delete category: %v", err)
	}
	if count := countRows(t, db, "variants"); count != 0 {
		t.Errorf("Expected variants to cascade, got %d", count)
	}
}

func TestSearchModels(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	model := createTestModel(t, db, "Pixel")
	createTestVariant(t, db, model.ID, "PX-128", "799.00", 10)

	result, err := store.SearchModels(ctx, db, "pix")
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(result))
	}
	if len(result[0].Variants) != 1 {
		t.Errorf("Expected variants joined into search result, got %d", len(result[0].Variants))
	}

	// Brand name matches too.
	result, err = store.SearchModels(ctx, db, "Pixel Brand")
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("Expected brand-name match, got %d results", len(result))
	}

	result, err = store.SearchModels(ctx, db, "nonexistent")
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("Expected no matches, got %d", len(result))
	}
}

func TestCartFlow(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "shopper")
	model := createTestModel(t, db, "Phone")
	variant := createTestVariant(t, db, model.ID, "SKU-1", "25.50", 5)

	// A user without a cart gets an empty one.
	cart, err := store.GetCartWithItems(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Failed to get cart: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("Expected empty cart, got %d items", len(cart.Items))
	}

	cart, err = store.AddCartItem(ctx, db, user.ID, variant.ID, 2)
	if err != nil {
		t.Fatalf("Failed to add cart item: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("Expected 1 line with quantity 2, got %+v", cart.Items)
	}
	if !cart.Items[0].UnitPrice.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("Expected live unit price 25.50, got %s", cart.Items[0].UnitPrice)
	}

	// Adding the same variant merges quantities.
	cart, err = store.AddCartItem(ctx, db, user.ID, variant.ID, 1)
	if err != nil {
		t.Fatalf("Failed to add cart item: %v", err)
	}
	if cart.Items[0].Quantity != 3 {
		t.Errorf("Expected merged quantity 3, got %d", cart.Items[0].Quantity)
	}

	// Exceeding stock is rejected.
	_, err = store.AddCartItem(ctx, db, user.ID, variant.ID, 3)
	if !errors.Is(err, database.ErrInsufficientStock) {
		t.Errorf("Expected ErrInsufficientStock, got %v", err)
	}

	cart, err = store.RemoveCartItem(ctx, db, user.ID, variant.ID)
	if err != nil {
		t.Fatalf("Failed to remove cart item: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("Expected empty cart after removal, got %d items", len(cart.Items))
	}
}

func TestWishlist(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "wisher")
	model := createTestModel(t, db, "Phone")
	variant := createTestVariant(t, db, model.ID, "SKU-1", "100.00", 5)

	added, err := store.AddToWishlist(ctx, db, user.ID, variant.ID)
	if err != nil {
		t.Fatalf("Failed to add to wishlist: %v", err)
	}
	if !added {
		t.Error("Expected first add to report added")
	}

	added, err = store.AddToWishlist(ctx, db, user.ID, variant.ID)
	if err != nil {
		t.Fatalf("Failed to re-add to wishlist: %v", err)
	}
	if added {
		t.Error("Expected duplicate add to report not added")
	}

	variants, err := store.ListWishlist(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Failed to list wishlist: %v", err)
	}
	if len(variants) != 1 || variants[0].ID != variant.ID {
		t.Fatalf("Expected wishlist [%d], got %+v", variant.ID, variants)
	}

	if err := store.RemoveFromWishlist(ctx, db, user.ID, variant.ID); err != nil {
		t.Fatalf("Failed to remove from wishlist: %v", err)
	}

	variants, err = store.ListWishlist(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Failed to list wishlist: %v", err)
	}
	if len(variants) != 0 {
		t.Errorf("Expected empty wishlist, got %d", len(variants))
	}
}

func TestReviews(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "reviewer")
	model := createTestModel(t, db, "Phone")
	variant := createTestVariant(t, db, model.ID, "SKU-1", "100.00", 5)

	review, err := store.AddReview(ctx, db, &models.Review{
		ModelID: &model.ID,
		UserID:  user.ID,
		Rating:  5,
		Comment: "Great phone",
	})
	if err != nil {
		t.Fatalf("Failed to add review: %v", err)
	}

	if _, err := store.AddReview(ctx, db, &models.Review{
		VariantID: &variant.ID,
		UserID:    user.ID,
		Rating:    3,
		Comment:   "Battery could be better",
	}); err != nil {
		t.Fatalf("Failed to add variant review: %v", err)
	}

	// Rating outside 1-5 violates the check constraint.
	if _, err := store.AddReview(ctx, db, &models.Review{
		ModelID: &model.ID,
		UserID:  user.ID,
		Rating:  6,
		Comment: "Too good",
	}); err == nil {
		t.Error("Expected out-of-range rating to fail")
	}

	byModel, err := store.ListReviewsByModel(ctx, db, model.ID)
	if err != nil {
		t.Fatalf("Failed to list model reviews: %v", err)
	}
	if len(byModel) != 1 {
		t.Fatalf("Expected 1 model review, got %d", len(byModel))
	}
	if byModel[0].Username != user.Username {
		t.Errorf("Expected username %q joined in, got %q", user.Username, byModel[0].Username)
	}

	byVariant, err := store.ListReviewsByVariant(ctx, db, variant.ID)
	if err != nil {
		t.Fatalf("Failed to list variant reviews: %v", err)
	}
	if len(byVariant) != 1 {
		t.Errorf("Expected 1 variant review, got %d", len(byVariant))
	}

	if err := store.DeleteReview(ctx, db, review.ID); err != nil {
		t.Fatalf("Failed to delete review: %v", err)
	}
	if err := store.DeleteReview(ctx, db, review.ID); !errors.Is(err, database.ErrReviewNotFound) {
		t.Errorf("Expected ErrReviewNotFound, got %v", err)
	}
}
