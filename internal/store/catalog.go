package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/models"
)

func CreateCategory(ctx context.Context, db *sql.DB, name, imageURL, description string) (*models.Category, error) {
	category := &models.Category{}

	query := `
		INSERT INTO categories (name, image_url, description, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, image_url, description, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, imageURL, description).Scan(
		&category.ID,
		&category.Name,
		&category.ImageURL,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	return category, nil
}

func GetCategory(ctx context.Context, db *sql.DB, id int64) (*models.Category, error) {
	category := &models.Category{}

	query := `
		SELECT id, name, image_url, description, created_at, updated_at
		FROM categories
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.ImageURL,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}

	return category, nil
}

func ListCategories(ctx context.Context, db *sql.DB) ([]models.Category, error) {
	query := `
		SELECT id, name, image_url, description, created_at, updated_at
		FROM categories
		ORDER BY name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.ImageURL,
			&category.Description,
			&category.CreatedAt,
			&category.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}

func UpdateCategory(ctx context.Context, db *sql.DB, id int64, name, imageURL, description string) (*models.Category, error) {
	category := &models.Category{}

	query := `
		UPDATE categories
		SET name = $1, image_url = $2, description = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, name, image_url, description, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, imageURL, description, id).Scan(
		&category.ID,
		&category.Name,
		&category.ImageURL,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}

	return category, nil
}

func DeleteCategory(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCategoryNotFound
	}

	return nil
}

func CreateBrand(ctx context.Context, db *sql.DB, categoryID int64, name string) (*models.Brand, error) {
	brand := &models.Brand{}

	query := `
		INSERT INTO brands (category_id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, category_id, name, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, categoryID, name).Scan(
		&brand.ID,
		&brand.CategoryID,
		&brand.Name,
		&brand.CreatedAt,
		&brand.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create brand: %w", err)
	}

	return brand, nil
}

func GetBrand(ctx context.Context, db *sql.DB, id int64) (*models.Brand, error) {
	brand := &models.Brand{}

	query := `
		SELECT id, category_id, name, created_at, updated_at
		FROM brands
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&brand.ID,
		&brand.CategoryID,
		&brand.Name,
		&brand.CreatedAt,
		&brand.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrBrandNotFound
		}
		return nil, fmt.Errorf("get brand: %w", err)
	}

	return brand, nil
}

func ListBrandsByCategory(ctx context.Context, db *sql.DB, categoryID int64) ([]models.Brand, error) {
	query := `
		SELECT id, category_id, name, created_at, updated_at
		FROM brands
		WHERE category_id = $1
		ORDER BY name`

	rows, err := db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var brands []models.Brand
	for rows.Next() {
		var brand models.Brand
		err := rows.Scan(
			&brand.ID,
			&brand.CategoryID,
			&brand.Name,
			&brand.CreatedAt,
			&brand.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, brand)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return brands, nil
}

func UpdateBrand(ctx context.Context, db *sql.DB, id int64, name string) (*models.Brand, error) {
	brand := &models.Brand{}

	query := `
		UPDATE brands
		SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, category_id, name, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, id).Scan(
		&brand.ID,
		&brand.CategoryID,
		&brand.Name,
		&brand.CreatedAt,
		&brand.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrBrandNotFound
		}
		return nil, fmt.Errorf("update brand: %w", err)
	}

	return brand, nil
}

func DeleteBrand(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrBrandNotFound
	}

	return nil
}
