// Package catalogcache fronts the category listings with a Redis
// read-through cache. The category tree changes rarely and is read on
// almost every page, so it is the one catalog surface worth caching.
package catalogcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samiro/storefront/internal/models"
	"github.com/samiro/storefront/internal/store"
)

const (
	keyCategories        = "categories:all"
	keyCategoriesMinimal = "categories:all:minimal"

	fullTTL    = 5 * time.Minute
	minimalTTL = 10 * time.Minute
)

// MinimalCategory is the id/name projection served to navigation menus.
type MinimalCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Cache is safe with a nil redis client: every read falls through to the
// database and writes become no-ops.
type Cache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func New(rdb *redis.Client, logger *slog.Logger) *Cache {
	return &Cache{rdb: rdb, logger: logger}
}

// ListCategories returns the full category list, from cache when possible.
// A cache failure is logged and degrades to a database read, never an
// error.
func (c *Cache) ListCategories(ctx context.Context, db *sql.DB) ([]models.Category, error) {
	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, keyCategories).Bytes()
		if err == nil {
			var categories []models.Category
			if err := json.Unmarshal(data, &categories); err == nil {
				return categories, nil
			}
			c.logger.Warn("discarding malformed cache entry", "key", keyCategories)
		} else if err != redis.Nil {
			c.logger.Warn("cache read failed", "key", keyCategories, "error", err)
		}
	}

	categories, err := store.ListCategories(ctx, db)
	if err != nil {
		return nil, err
	}

	c.set(ctx, keyCategories, categories, fullTTL)
	return categories, nil
}

// ListCategoriesMinimal returns the id/name projection, cached under its
// own key with a longer TTL.
func (c *Cache) ListCategoriesMinimal(ctx context.Context, db *sql.DB) ([]MinimalCategory, error) {
	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, keyCategoriesMinimal).Bytes()
		if err == nil {
			var minimal []MinimalCategory
			if err := json.Unmarshal(data, &minimal); err == nil {
				return minimal, nil
			}
			c.logger.Warn("discarding malformed cache entry", "key", keyCategoriesMinimal)
		} else if err != redis.Nil {
			c.logger.Warn("cache read failed", "key", keyCategoriesMinimal, "error", err)
		}
	}

	categories, err := store.ListCategories(ctx, db)
	if err != nil {
		return nil, err
	}

	minimal := make([]MinimalCategory, 0, len(categories))
	for _, category := range categories {
		minimal = append(minimal, MinimalCategory{ID: category.ID, Name: category.Name})
	}

	c.set(ctx, keyCategoriesMinimal, minimal, minimalTTL)
	return minimal, nil
}

// Invalidate drops both category keys. Called after any category mutation.
func (c *Cache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, keyCategories, keyCategoriesMinimal).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", "error", err)
	}
}

func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", fmt.Errorf("marshal: %w", err))
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
