// Package pricing computes authoritative order totals. Prices always come
// from the catalog at computation time; a client-supplied price is never
// trusted. All arithmetic is decimal, never float.
package pricing

import (
	"context"
	"strings"

	"github.com/samiro/storefront/internal/apperr"
	"github.com/samiro/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// CatalogOracle is the single source of truth for current variant prices
// and stock. Implementations return no partial results; absent ids are
// detected here by count.
type CatalogOracle interface {
	VariantsByIDs(ctx context.Context, ids []int64) ([]models.Variant, error)
}

type LineItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// Quote is the result of pricing an item list: the authoritative total and
// the resolved variants keyed by id, for callers that snapshot unit prices.
type Quote struct {
	BaseTotal    decimal.Decimal
	DeliveryCost decimal.Decimal
	Total        decimal.Decimal
	Variants     map[int64]models.Variant
}

var deliveryCosts = map[string]decimal.Decimal{
	"standard": decimal.NewFromInt(5),
	"express":  decimal.NewFromInt(15),
}

// DeliveryCost resolves the surcharge for a delivery method,
// case-insensitively. Unknown methods are a validation failure.
func DeliveryCost(method string) (decimal.Decimal, error) {
	cost, ok := deliveryCosts[strings.ToLower(method)]
	if !ok {
		return decimal.Decimal{}, apperr.Validationf("invalid delivery method %q: must be 'standard' or 'express'", method)
	}
	return cost, nil
}

// PriceItems validates the item lines against the oracle and computes
// base total, delivery cost and total. Any unresolvable variant id aborts
// the whole computation; there is no partial pricing. Pure apart from the
// oracle read.
func PriceItems(ctx context.Context, oracle CatalogOracle, items []LineItem, deliveryMethod string) (*Quote, error) {
	if len(items) == 0 {
		return nil, apperr.Validationf("order items are required")
	}

	distinct := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, apperr.Validationf("quantity must be a positive integer")
		}
		if !seen[item.VariantID] {
			seen[item.VariantID] = true
			distinct = append(distinct, item.VariantID)
		}
	}

	variants, err := oracle.VariantsByIDs(ctx, distinct)
	if err != nil {
		return nil, err
	}
	if len(variants) != len(distinct) {
		return nil, apperr.Validationf("invalid or missing variants in order items")
	}

	resolved := make(map[int64]models.Variant, len(variants))
	for _, variant := range variants {
		resolved[variant.ID] = variant
	}

	baseTotal := decimal.Zero
	for _, item := range items {
		variant, ok := resolved[item.VariantID]
		if !ok {
			return nil, apperr.Validationf("variant %d not found", item.VariantID)
		}
		baseTotal = baseTotal.Add(variant.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	deliveryCost, err := DeliveryCost(deliveryMethod)
	if err != nil {
		return nil, err
	}

	return &Quote{
		BaseTotal:    baseTotal,
		DeliveryCost: deliveryCost,
		Total:        baseTotal.Add(deliveryCost),
		Variants:     resolved,
	}, nil
}
