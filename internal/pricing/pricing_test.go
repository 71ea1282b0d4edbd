package pricing

import (
	"context"
	"testing"

	"github.com/samiro/storefront/internal/apperr"
	"github.com/samiro/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	variants map[int64]models.Variant
	calls    int
}

func (f *fakeOracle) VariantsByIDs(_ context.Context, ids []int64) ([]models.Variant, error) {
	f.calls++
	var out []models.Variant
	for _, id := range ids {
		if v, ok := f.variants[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func newFakeOracle(variants ...models.Variant) *fakeOracle {
	m := make(map[int64]models.Variant, len(variants))
	for _, v := range variants {
		m[v.ID] = v
	}
	return &fakeOracle{variants: m}
}

func variant(id int64, price int64) models.Variant {
	return models.Variant{ID: id, Price: decimal.NewFromInt(price), Stock: 100}
}

func TestPriceItems(t *testing.T) {
	oracle := newFakeOracle(variant(1, 100), variant(2, 20))

	quote, err := PriceItems(context.Background(), oracle, []LineItem{
		{VariantID: 1, Quantity: 2},
		{VariantID: 2, Quantity: 1},
	}, "standard")
	require.NoError(t, err)

	assert.True(t, quote.BaseTotal.Equal(decimal.NewFromInt(220)), "base total %s", quote.BaseTotal)
	assert.True(t, quote.DeliveryCost.Equal(decimal.NewFromInt(5)), "delivery cost %s", quote.DeliveryCost)
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(225)), "total %s", quote.Total)
	assert.True(t, quote.Total.Equal(quote.BaseTotal.Add(quote.DeliveryCost)))
	assert.Len(t, quote.Variants, 2)
}

func TestPriceItemsDecimalExact(t *testing.T) {
	// 0.1 + 0.2 style sums must stay exact in decimal arithmetic.
	oracle := newFakeOracle(
		models.Variant{ID: 1, Price: decimal.RequireFromString("19.99")},
		models.Variant{ID: 2, Price: decimal.RequireFromString("0.01")},
	)

	quote, err := PriceItems(context.Background(), oracle, []LineItem{
		{VariantID: 1, Quantity: 3},
		{VariantID: 2, Quantity: 3},
	}, "express")
	require.NoError(t, err)

	assert.True(t, quote.BaseTotal.Equal(decimal.RequireFromString("60.00")), "base total %s", quote.BaseTotal)
	assert.True(t, quote.Total.Equal(decimal.RequireFromString("75.00")), "total %s", quote.Total)
}

func TestPriceItemsSingleLookup(t *testing.T) {
	oracle := newFakeOracle(variant(1, 10), variant(2, 20), variant(3, 30))

	_, err := PriceItems(context.Background(), oracle, []LineItem{
		{VariantID: 1, Quantity: 1},
		{VariantID: 2, Quantity: 1},
		{VariantID: 1, Quantity: 4},
		{VariantID: 3, Quantity: 2},
	}, "standard")
	require.NoError(t, err)

	assert.Equal(t, 1, oracle.calls, "pricing must resolve all ids in one oracle lookup")
}

func TestPriceItemsIdempotent(t *testing.T) {
	oracle := newFakeOracle(variant(1, 100), variant(2, 50))
	items := []LineItem{{VariantID: 1, Quantity: 1}, {VariantID: 2, Quantity: 2}}

	first, err := PriceItems(context.Background(), oracle, items, "express")
	require.NoError(t, err)

	second, err := PriceItems(context.Background(), oracle, items, "express")
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.BaseTotal.Equal(second.BaseTotal))
}

func TestPriceItemsEmpty(t *testing.T) {
	oracle := newFakeOracle(variant(1, 100))

	_, err := PriceItems(context.Background(), oracle, nil, "standard")

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestPriceItemsInvalidQuantity(t *testing.T) {
	oracle := newFakeOracle(variant(1, 100))

	for _, quantity := range []int{0, -1, -100} {
		_, err := PriceItems(context.Background(), oracle, []LineItem{{VariantID: 1, Quantity: quantity}}, "standard")

		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr, "quantity %d", quantity)
	}
}

func TestPriceItemsMissingVariant(t *testing.T) {
	oracle := newFakeOracle(variant(1, 100))

	_, err := PriceItems(context.Background(), oracle, []LineItem{
		{VariantID: 1, Quantity: 1},
		{VariantID: 99, Quantity: 1},
	}, "standard")

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "variants")
}

func TestDeliveryCost(t *testing.T) {
	tests := []struct {
		method  string
		want    int64
		wantErr bool
	}{
		{method: "standard", want: 5},
		{method: "express", want: 15},
		{method: "STANDARD", want: 5},
		{method: "Express", want: 15},
		{method: "overnight", wantErr: true},
		{method: "", wantErr: true},
		{method: "standar", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			cost, err := DeliveryCost(tt.method)
			if tt.wantErr {
				var verr *apperr.ValidationError
				require.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.True(t, cost.Equal(decimal.NewFromInt(tt.want)), "cost %s", cost)
		})
	}
}
