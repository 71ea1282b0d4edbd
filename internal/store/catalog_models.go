package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/models"
	"github.com/shopspring/decimal"
)

func CreateModel(ctx context.Context, db *sql.DB, model *models.Model) (*models.Model, error) {
	created := &models.Model{}

	query := `
		INSERT INTO models (brand_id, category_id, name, image_url, features, release_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, brand_id, category_id, name, image_url, features, release_date, created_at, updated_at`

	err := db.QueryRowContext(ctx, query,
		model.BrandID,
		model.CategoryID,
		model.Name,
		model.ImageURL,
		pq.Array(model.Features),
		model.ReleaseDate,
	).Scan(
		&created.ID,
		&created.BrandID,
		&created.CategoryID,
		&created.Name,
		&created.ImageURL,
		pq.Array(&created.Features),
		&created.ReleaseDate,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}

	return created, nil
}

func GetModel(ctx context.Context, db *sql.DB, id int64) (*models.Model, error) {
	model := &models.Model{}

	query := `
		SELECT m.id, m.brand_id, m.category_id, m.name, m.image_url, m.features,
		       m.release_date, m.created_at, m.updated_at, b.name, c.name
		FROM models m
		JOIN brands b ON b.id = m.brand_id
		JOIN categories c ON c.id = m.category_id
		WHERE m.id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
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
		if err == sql.ErrNoRows {
			return nil, database.ErrModelNotFound
		}
		return nil, fmt.Errorf("get model: %w", err)
	}

	variants, err := ListVariantsByModel(ctx, db, id)
	if err != nil {
		return nil, err
	}
	model.Variants = variants

	return model, nil
}

func listModels(ctx context.Context, db *sql.DB, where string, arg int64) ([]models.Model, error) {
	query := `
		SELECT m.id, m.brand_id, m.category_id, m.name, m.image_url, m.features,
		       m.release_date, m.created_at, m.updated_at, b.name, c.name
		FROM models m
		JOIN brands b ON b.id = m.brand_id
		JOIN categories c ON c.id = m.category_id
		WHERE ` + where + `
		ORDER BY m.name`

	rows, err := db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var result []models.Model
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
		result = append(result, model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

func ListModelsByBrand(ctx context.Context, db *sql.DB, brandID int64) ([]models.Model, error) {
	return listModels(ctx, db, "m.brand_id = $1", brandID)
}

func ListModelsByCategory(ctx context.Context, db *sql.DB, categoryID int64) ([]models.Model, error) {
	return listModels(ctx, db, "m.category_id = $1", categoryID)
}

// ListModelsWithStartPrice returns a brand's models annotated with the
// cheapest variant price; models without variants carry no start price.
func ListModelsWithStartPrice(ctx context.Context, db *sql.DB, brandID int64) ([]models.Model, error) {
	result, err := ListModelsByBrand(ctx, db, brandID)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	ids := make([]int64, 0, len(result))
	for _, model := range result {
		ids = append(ids, model.ID)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT model_id, MIN(price)
		FROM variants
		WHERE model_id = ANY($1)
		GROUP BY model_id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("start prices: %w", err)
	}
	defer rows.Close()

	startPrices := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var modelID int64
		var price decimal.Decimal
		if err := rows.Scan(&modelID, &price); err != nil {
			return nil, fmt.Errorf("scan start price: %w", err)
		}
		startPrices[modelID] = price
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range result {
		if price, ok := startPrices[result[i].ID]; ok {
			p := price
			result[i].StartPrice = &p
		}
	}

	return result, nil
}

func UpdateModel(ctx context.Context, db *sql.DB, model *models.Model) (*models.Model, error) {
	updated := &models.Model{}

	query := `
		UPDATE models
		SET name = $1, image_url = $2, features = $3, release_date = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING id, brand_id, category_id, name, image_url, features, release_date, created_at, updated_at`

	err := db.QueryRowContext(ctx, query,
		model.Name,
		model.ImageURL,
		pq.Array(model.Features),
		model.ReleaseDate,
		model.ID,
	).Scan(
		&updated.ID,
		&updated.BrandID,
		&updated.CategoryID,
		&updated.Name,
		&updated.ImageURL,
		pq.Array(&updated.Features),
		&updated.ReleaseDate,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrModelNotFound
		}
		return nil, fmt.Errorf("update model: %w", err)
	}

	return updated, nil
}

func DeleteModel(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete model: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrModelNotFound
	}

	return nil
}
