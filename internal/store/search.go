package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/samiro/storefront/internal/models"
)

// SearchModels matches the query case-insensitively against model, brand and
// category names and returns the matching models with their variants joined
// in. No ranking; callers get name-ordered results.
func SearchModels(ctx context.Context, db *sql.DB, query string) ([]models.Model, error) {
	pattern := "%" + query + "%"

	rows, err := db.QueryContext(ctx, `
		SELECT m.id, m.brand_id, m.category_id, m.name, m.image_url, m.features,
		       m.release_date, m.created_at, m.updated_at, b.name, c.name
		FROM models m
		JOIN brands b ON b.id = m.brand_id
		JOIN categories c ON c.id = m.category_id
		WHERE m.name ILIKE $1
		   OR b.name ILIKE $1
		   OR c.name ILIKE $1
		ORDER BY m.name`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search models: %w", err)
	}
	defer rows.Close()

	var result []models.Model
	var modelIDs []int64
	for rows.Next() {
		var model models.Model
		err := rows.Scan(
			&model.ID,
			&model.BrandID,
			&model.CategoryID,
			&model.Name,
			&model.ImageURL,
			pq.Array(&model.Features),
			&model.ReleaseDate,
			&model.CreatedAt,
			&model.UpdatedAt,
			&model.BrandName,
			&model.CategoryName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		model.Variants = []models.Variant{}
		result = append(result, model)
		modelIDs = append(modelIDs, model.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(result) == 0 {
		return []models.Model{}, nil
	}

	variantRows, err := db.QueryContext(ctx,
		`SELECT `+variantColumns+` FROM variants WHERE model_id = ANY($1) ORDER BY id`,
		pq.Array(modelIDs))
	if err != nil {
		return nil, fmt.Errorf("search variants: %w", err)
	}
	defer variantRows.Close()

	byModel := make(map[int64]*models.Model, len(result))
	for i := range result {
		byModel[result[i].ID] = &result[i]
	}

	for variantRows.Next() {
		var variant models.Variant
		if err := scanVariant(variantRows, &variant); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		if model, ok := byModel[variant.ModelID]; ok {
			model.Variants = append(model.Variants, variant)
		}
	}

	if err := variantRows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}
