package usecase

import (
	"math"

	"github.com/basketlens/backend/internal/domain"
)

// RoundPrice rounds half up to whole cents. NaN and infinities pass through.
func RoundPrice(price float64) float64 {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return price
	}
	return math.Floor(price*100+0.5) / 100
}

// PriceTableBuilder prices every query at every retailer
type PriceTableBuilder struct {
	matcher *ProductMatcher
}

// NewPriceTableBuilder creates a builder backed by the given matcher
func NewPriceTableBuilder(matcher *ProductMatcher) *PriceTableBuilder {
	return &PriceTableBuilder{matcher: matcher}
}

// Build returns one row per retailer, each index-aligned with queries.
// A retailer without a match gets the mean of the other retailers' real prices.
func (b *PriceTableBuilder) Build(retailers []domain.Retailer, queries []string) domain.PriceTable {
	// matches[q][r] holds the match for query q at retailer r
	matches := make([][]*domain.CatalogProduct, len(queries))
	for q, query := range queries {
		matches[q] = make([]*domain.CatalogProduct, len(retailers))
		for r, retailer := range retailers {
			if product, ok := b.matcher.Match(retailer.Products, query); ok {
				matches[q][r] = &product
			}
		}
	}

	rows := make([]domain.RetailerPrices, len(retailers))
	for r, retailer := range retailers {
		items := make([]domain.PricedItem, len(queries))
		for q, query := range queries {
			if match := matches[q][r]; match != nil {
				items[q] = matchedItem(retailer, *match, query)
			} else {
				items[q] = estimatedItem(matches[q], r, query)
			}
		}

		rows[r] = domain.RetailerPrices{
			Code:          retailer.Code,
			Name:          retailer.Name,
			Icon:          optional(retailer.Icon),
			TotalProducts: len(retailer.Products),
			Products:      items,
		}
	}

	return domain.PriceTable{Retailers: rows}
}

func matchedItem(retailer domain.Retailer, product domain.CatalogProduct, query string) domain.PricedItem {
	var link *string
	if product.LinkSuffix != "" {
		full := retailer.LinkBase + product.LinkSuffix
		link = &full
	}

	price := RoundPrice(product.Price)
	name := product.Name
	return domain.PricedItem{
		OriginalQuery: query,
		Name:          &name,
		Link:          link,
		Price:         &price,
		Amount:        optional(product.Size),
		IsEstimate:    false,
	}
}

// estimatedItem averages the real matches of every retailer except self
func estimatedItem(row []*domain.CatalogProduct, self int, query string) domain.PricedItem {
	sum := 0.0
	count := 0
	for i, other := range row {
		if i == self || other == nil {
			continue
		}
		sum += other.Price
		count++
	}

	item := domain.PricedItem{OriginalQuery: query}
	if count > 0 {
		price := RoundPrice(sum / float64(count))
		item.Price = &price
		item.IsEstimate = true
	}
	return item
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
