package usecase

import (
	"math"
	"testing"

	"github.com/basketlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.234, 1.23},
		{1.235, 1.24},
		{2.5, 2.5},
		{0.1 + 0.2, 0.3},
		{0, 0},
		{1.999, 2},
	}

	for _, tt := range tests {
		if got := RoundPrice(tt.in); got != tt.want {
			t.Errorf("RoundPrice(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if got := RoundPrice(math.NaN()); !math.IsNaN(got) {
		t.Errorf("RoundPrice(NaN) = %v, want NaN", got)
	}
	if got := RoundPrice(math.Inf(1)); !math.IsInf(got, 1) {
		t.Errorf("RoundPrice(+Inf) = %v, want +Inf", got)
	}
}

func newTestBuilder() *PriceTableBuilder {
	return NewPriceTableBuilder(newTestMatcher(MatcherConfig{}))
}

func TestPriceTableBuilder_EstimatesMissingProducts(t *testing.T) {
	retailers := []domain.Retailer{
		{
			Code:     "A",
			Name:     "Store A",
			LinkBase: "https://a.example/p/",
			Products: []domain.CatalogProduct{{Name: "Halfvolle melk 1L", Price: 1.09, Size: "1 l", LinkSuffix: "melk-1l"}},
		},
		{
			Code:     "B",
			Name:     "Store B",
			Icon:     "b.svg",
			Products: []domain.CatalogProduct{{Name: "Pindakaas", Price: 2.79}},
		},
	}

	table := newTestBuilder().Build(retailers, []string{"1 liter halfvolle melk"})
	require.Len(t, table.Retailers, 2)

	a, ok := table.Retailer("A")
	require.True(t, ok)
	require.Len(t, a.Products, 1)
	item := a.Products[0]
	assert.Equal(t, "1 liter halfvolle melk", item.OriginalQuery)
	assert.Equal(t, "Halfvolle melk 1L", *item.Name)
	assert.Equal(t, 1.09, *item.Price)
	assert.Equal(t, "1 l", *item.Amount)
	assert.Equal(t, "https://a.example/p/melk-1l", *item.Link)
	assert.False(t, item.IsEstimate)
	assert.Nil(t, a.Icon)
	assert.Equal(t, 1, a.TotalProducts)

	b, ok := table.Retailer("B")
	require.True(t, ok)
	estimate := b.Products[0]
	assert.Equal(t, "1 liter halfvolle melk", estimate.OriginalQuery)
	assert.Nil(t, estimate.Name)
	assert.Nil(t, estimate.Link)
	assert.True(t, estimate.IsEstimate)
	require.NotNil(t, estimate.Price)
	assert.Equal(t, 1.09, *estimate.Price)
	assert.Equal(t, "b.svg", *b.Icon)

	// A larger amount than store A sells leaves nothing to match or estimate from
	bigger := newTestBuilder().Build(retailers, []string{"2 liter halfvolle melk"})
	for _, row := range bigger.Retailers {
		assert.Nil(t, row.Products[0].Price, row.Code)
		assert.False(t, row.Products[0].IsEstimate, row.Code)
	}
}

func TestPriceTableBuilder_EstimateIsMeanOfOthers(t *testing.T) {
	retailers := []domain.Retailer{
		{Code: "A", Products: []domain.CatalogProduct{{Name: "Kaas", Price: 1.10}}},
		{Code: "B", Products: []domain.CatalogProduct{{Name: "Kaas", Price: 1.30}}},
		{Code: "C", Products: []domain.CatalogProduct{{Name: "Brood", Price: 2.00}}},
	}

	table := newTestBuilder().Build(retailers, []string{"kaas"})

	c, _ := table.Retailer("C")
	require.NotNil(t, c.Products[0].Price)
	assert.Equal(t, 1.2, *c.Products[0].Price)
	assert.True(t, c.Products[0].IsEstimate)
}

func TestPriceTableBuilder_NoMatchAnywhere(t *testing.T) {
	retailers := []domain.Retailer{
		{Code: "A", Products: []domain.CatalogProduct{{Name: "Kaas", Price: 5}}},
		{Code: "B"},
	}

	table := newTestBuilder().Build(retailers, []string{"x zeep"})
	for _, row := range table.Retailers {
		require.Len(t, row.Products, 1)
		item := row.Products[0]
		assert.Equal(t, "x zeep", item.OriginalQuery, "query is kept verbatim")
		assert.Nil(t, item.Price)
		assert.Nil(t, item.Name)
		assert.False(t, item.IsEstimate)
	}
}

func TestPriceTableBuilder_AlignmentAndRounding(t *testing.T) {
	retailers := []domain.Retailer{
		{Code: "A", Products: []domain.CatalogProduct{
			{Name: "Appels", Price: 2.499},
			{Name: "Peren", Price: 1.5},
		}},
		{Code: "B", Products: []domain.CatalogProduct{
			{Name: "Peren", Price: 1.456},
		}},
	}
	queries := []string{"peren", "bananen", "appels"}

	table := newTestBuilder().Build(retailers, queries)
	for _, row := range table.Retailers {
		require.Len(t, row.Products, len(queries))
		for i, item := range row.Products {
			assert.Equal(t, queries[i], item.OriginalQuery)
		}
	}

	a, _ := table.Retailer("A")
	assert.Equal(t, 2.5, *a.Products[2].Price)
	b, _ := table.Retailer("B")
	assert.Equal(t, 1.46, *b.Products[0].Price)
	// Estimates average the unrounded price
	assert.Equal(t, 2.5, *b.Products[2].Price)
	assert.True(t, b.Products[2].IsEstimate)
}

func TestPriceTableBuilder_EmptyCatalog(t *testing.T) {
	table := newTestBuilder().Build(nil, []string{"melk"})
	assert.Empty(t, table.Retailers)
}
