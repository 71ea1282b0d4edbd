package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/models"
)

const variantColumns = `id, model_id, sku, name, price, stock, color, storage, image_urls, created_at, updated_at`

func prefixedVariantColumns(alias string) string {
	return alias + `.id, ` + alias + `.model_id, ` + alias + `.sku, ` + alias + `.name, ` +
		alias + `.price, ` + alias + `.stock, ` + alias + `.color, ` + alias + `.storage, ` +
		alias + `.image_urls, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func scanVariant(row interface{ Scan(...any) error }, variant *models.Variant) error {
	return row.Scan(
		&variant.ID,
		&variant.ModelID,
		&variant.SKU,
		&variant.Name,
		&variant.Price,
		&variant.Stock,
		&variant.Color,
		&variant.Storage,
		pq.Array(&variant.ImageURLs),
		&variant.CreatedAt,
		&variant.UpdatedAt,
	)
}

func CreateVariant(ctx context.Context, db *sql.DB, variant *models.Variant) (*models.Variant, error) {
	created := &models.Variant{}

	query := `
		INSERT INTO variants (model_id, sku, name, price, stock, color, storage, image_urls, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING ` + variantColumns

	row := db.QueryRowContext(ctx, query,
		variant.ModelID,
		variant.SKU,
		variant.Name,
		variant.Price,
		variant.Stock,
		variant.Color,
		variant.Storage,
		pq.Array(variant.ImageURLs),
	)
	if err := scanVariant(row, created); err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}

	return created, nil
}

func GetVariant(ctx context.Context, db *sql.DB, id int64) (*models.Variant, error) {
	variant := &models.Variant{}

	query := `SELECT ` + variantColumns + ` FROM variants WHERE id = $1`

	if err := scanVariant(db.QueryRowContext(ctx, query, id), variant); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrVariantNotFound
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}

	return variant, nil
}

func ListVariantsByModel(ctx context.Context, db *sql.DB, modelID int64) ([]models.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM variants WHERE model_id = $1 ORDER BY id`

	rows, err := db.QueryContext(ctx, query, modelID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []models.Variant
	for rows.Next() {
		var variant models.Variant
		if err := scanVariant(rows, &variant); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, variant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return variants, nil
}

// VariantsByIDs resolves a set of variant ids in one lookup. Absent ids are
// simply missing from the result; callers that need all ids resolved must
// compare counts themselves.
func VariantsByIDs(ctx context.Context, db *sql.DB, ids []int64) ([]models.Variant, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + variantColumns + ` FROM variants WHERE id = ANY($1)`

	rows, err := db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("variants by ids: %w", err)
	}
	defer rows.Close()

	var variants []models.Variant
	for rows.Next() {
		var variant models.Variant
		if err := scanVariant(rows, &variant); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, variant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return variants, nil
}

func UpdateVariant(ctx context.Context, db *sql.DB, variant *models.Variant) (*models.Variant, error) {
	updated := &models.Variant{}

	query := `
		UPDATE variants
		SET name = $1, price = $2, stock = $3, color = $4, storage = $5, image_urls = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING ` + variantColumns

	row := db.QueryRowContext(ctx, query,
		variant.Name,
		variant.Price,
		variant.Stock,
		variant.Color,
		variant.Storage,
		pq.Array(variant.ImageURLs),
		variant.ID,
	)
	if err := scanVariant(row, updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrVariantNotFound
		}
		return nil, fmt.Errorf("update variant: %w", err)
	}

	return updated, nil
}

func DeleteVariant(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM variants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrVariantNotFound
	}

	return nil
}
