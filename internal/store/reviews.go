package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/models"
)

func AddReview(ctx context.Context, db *sql.DB, review *models.Review) (*models.Review, error) {
	created := &models.Review{}

	query := `
		INSERT INTO reviews (model_id, variant_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, model_id, variant_id, user_id, rating, comment, created_at`

	err := db.QueryRowContext(ctx, query,
		review.ModelID,
		review.VariantID,
		review.UserID,
		review.Rating,
		review.Comment,
	).Scan(
		&created.ID,
		&created.ModelID,
		&created.VariantID,
		&created.UserID,
		&created.Rating,
		&created.Comment,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("add review: %w", err)
	}

	return created, nil
}

func listReviews(ctx context.Context, db *sql.DB, where string, arg int64) ([]models.Review, error) {
	query := `
		SELECT r.id, r.model_id, r.variant_id, r.user_id, u.username, r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE ` + where + `
		ORDER BY r.created_at DESC`

	rows, err := db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		err := rows.Scan(
			&review.ID,
			&review.ModelID,
			&review.VariantID,
			&review.UserID,
			&review.Username,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return reviews, nil
}

func ListReviewsByModel(ctx context.Context, db *sql.DB, modelID int64) ([]models.Review, error) {
	return listReviews(ctx, db, "r.model_id = $1", modelID)
}

func ListReviewsByVariant(ctx context.Context, db *sql.DB, variantID int64) ([]models.Review, error) {
	return listReviews(ctx, db, "r.variant_id = $1", variantID)
}

func DeleteReview(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrReviewNotFound
	}

	return nil
}
