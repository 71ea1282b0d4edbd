package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/samiro/storefront/internal/models"
)

// AddToWishlist reports added=false when the variant is already present.
func AddToWishlist(ctx context.Context, db *sql.DB, userID, variantID int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO wishlists (user_id, variant_id, created_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id, variant_id) DO NOTHING`,
		userID, variantID)
	if err != nil {
		return false, fmt.Errorf("add to wishlist: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func RemoveFromWishlist(ctx context.Context, db *sql.DB, userID, variantID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM wishlists WHERE user_id = $1 AND variant_id = $2`,
		userID, variantID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	return nil
}

func ListWishlist(ctx context.Context, db *sql.DB, userID int64) ([]models.Variant, error) {
	query := `
		SELECT ` + prefixedVariantColumns("v") + `
		FROM wishlists w
		JOIN variants v ON v.id = w.variant_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var variants []models.Variant
	for rows.Next() {
		var variant models.Variant
		if err := scanVariant(rows, &variant); err != nil {
			return nil, fmt.Errorf("scan wishlist variant: %w", err)
		}
		variants = append(variants, variant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return variants, nil
}
