package database

import (
	"errors"

	"github.com/lib/pq"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation, used by the brand/model/variant create paths.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrBrandNotFound     = errors.New("brand not found")
	ErrModelNotFound     = errors.New("model not found")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrReviewNotFound    = errors.New("review not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidCursor     = errors.New("invalid cursor")
)
