package domain

import (
	"fmt"
	"strings"
)

// PricedItem is one query's price at one retailer.
// Name is nil when the retailer had no match; IsEstimate is then true only when
// another retailer supplied a real price for the same query.
type PricedItem struct {
	OriginalQuery string   `json:"originalQuery"`
	Name          *string  `json:"name"`
	Link          *string  `json:"link"`
	Price         *float64 `json:"price"`
	Amount        *string  `json:"amount"`
	IsEstimate    bool     `json:"isEstimate"`
}

// HasRealPrice reports whether the item carries a matched, non-estimated price
func (p PricedItem) HasRealPrice() bool {
	return p.Price != nil && !p.IsEstimate
}

// RetailerPrices holds one retailer's row of the price table
type RetailerPrices struct {
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	Icon          *string      `json:"icon"`
	TotalProducts int          `json:"totalProducts,omitempty"`
	Products      []PricedItem `json:"products"`
}

// PriceTable lists every retailer in catalog order; each Products slice is
// index-aligned with the query list
type PriceTable struct {
	Retailers []RetailerPrices `json:"supermarkets"`
}

// Retailer returns the row for the given code
func (t PriceTable) Retailer(code string) (RetailerPrices, bool) {
	for _, r := range t.Retailers {
		if r.Code == code {
			return r, true
		}
	}
	return RetailerPrices{}, false
}

// Strategy selects the basket optimization algorithm
type Strategy string

const (
	StrategyExhaustive Strategy = "exhaustive"
	StrategyGreedy     Strategy = "greedy"
)

// ParseStrategy parses a strategy name case-insensitively
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyExhaustive:
		return StrategyExhaustive, nil
	case StrategyGreedy:
		return StrategyGreedy, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, s)
	}
}

// OptimizationResult is the chosen set of retailers with their assigned items.
// A query appears in at most one retailer's Products.
type OptimizationResult struct {
	TotalCost    float64          `json:"totalCost"`
	CoveredCount int              `json:"coveredCount"`
	Strategy     Strategy         `json:"strategy"`
	Supermarkets []RetailerPrices `json:"supermarkets"`
}
