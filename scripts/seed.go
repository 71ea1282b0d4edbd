// Seeds a development database with a small catalog and a demo user.
// Run with: go run scripts/seed.go
package main

import (
	"context"
	"log"
	"time"

	"github.com/samiro/storefront/internal/config"
	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/models"
	"github.com/samiro/storefront/internal/store"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	phones, err := store.CreateCategory(ctx, db, "Smartphones", "", "Phones and accessories")
	if err != nil {
		log.Fatalf("Create category: %v", err)
	}

	laptops, err := store.CreateCategory(ctx, db, "Laptops", "", "Portable computers")
	if err != nil {
		log.Fatalf("Create category: %v", err)
	}

	pixelBrand, err := store.CreateBrand(ctx, db, phones.ID, "Google")
	if err != nil {
		log.Fatalf("Create brand: %v", err)
	}

	if _, err := store.CreateBrand(ctx, db, laptops.ID, "Lenovo"); err != nil {
		log.Fatalf("Create brand: %v", err)
	}

	pixel, err := store.CreateModel(ctx, db, &models.Model{
		BrandID:    pixelBrand.ID,
		CategoryID: phones.ID,
		Name:       "Pixel 9",
		Features:   []string{"6.3\" OLED", "128GB base storage"},
	})
	if err != nil {
		log.Fatalf("Create model: %v", err)
	}

	variants := []models.Variant{
		{ModelID: pixel.ID, SKU: "PX9-128-OBS", Name: "Pixel 9 128GB Obsidian", Price: decimal.RequireFromString("799.00"), Stock: 50, Color: "Obsidian", Storage: "128GB"},
		{ModelID: pixel.ID, SKU: "PX9-256-POR", Name: "Pixel 9 256GB Porcelain", Price: decimal.RequireFromString("899.00"), Stock: 30, Color: "Porcelain", Storage: "256GB"},
	}
	for i := range variants {
		if _, err := store.CreateVariant(ctx, db, &variants[i]); err != nil {
			log.Fatalf("Create variant: %v", err)
		}
	}

	if _, err := store.CreateUser(ctx, db, "demo@example.com", "demo"); err != nil {
		log.Fatalf("Create user: %v", err)
	}

	log.Println("Seed complete")
}
