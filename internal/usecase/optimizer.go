package usecase

import (
	"fmt"
	"math"
	"slices"

	"github.com/basketlens/backend/internal/domain"
)

// Greedy scoring weights: covering a new query always outweighs any saving
const (
	greedyCoverageWeight = 1_000_000.0
	greedySavingsWeight  = 100.0
)

// unassigned marks a query without a retailer
const unassigned = -1

// priceMatrix holds real prices: cells[query][retailer], nil when absent
type priceMatrix struct {
	cells   [][]*float64
	queries int
	stores  int
}

func newPriceMatrix(rows []domain.RetailerPrices) priceMatrix {
	queries := 0
	if len(rows) > 0 {
		queries = len(rows[0].Products)
	}

	cells := make([][]*float64, queries)
	for q := range cells {
		cells[q] = make([]*float64, len(rows))
		for s, row := range rows {
			if q < len(row.Products) && row.Products[q].HasRealPrice() {
				cells[q][s] = row.Products[q].Price
			}
		}
	}

	return priceMatrix{cells: cells, queries: queries, stores: len(rows)}
}

// plan is a strategy's output: the visited stores in order and a store per query
type plan struct {
	stores      []int
	assignments []int
	cost        float64
	covered     int
}

// planner computes a plan over the matrix visiting at most maxVisits stores
type planner func(m priceMatrix, maxVisits int) plan

// BasketOptimizer distributes a shopping list over a bounded set of retailers
type BasketOptimizer struct {
	strategies map[domain.Strategy]planner
}

// NewBasketOptimizer creates an optimizer with the exhaustive and greedy strategies
func NewBasketOptimizer() *BasketOptimizer {
	return &BasketOptimizer{
		strategies: map[domain.Strategy]planner{
			domain.StrategyExhaustive: planExhaustive,
			domain.StrategyGreedy:     planGreedy,
		},
	}
}

// Optimize picks retailers among codes and assigns each query to at most one of them
func (o *BasketOptimizer) Optimize(
	table domain.PriceTable,
	codes []string,
	maxVisits int,
	strategy domain.Strategy,
) (*domain.OptimizationResult, error) {
	run, ok := o.strategies[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidRequest, strategy)
	}
	if maxVisits < 1 {
		return nil, fmt.Errorf("%w: maximum visit count must be at least 1, got %d", domain.ErrInvalidRequest, maxVisits)
	}

	var candidates []domain.RetailerPrices
	for _, row := range table.Retailers {
		if slices.Contains(codes, row.Code) {
			candidates = append(candidates, row)
		}
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoMatchingRetailers
	}

	p := run(newPriceMatrix(candidates), maxVisits)
	return project(candidates, p, strategy), nil
}

// project groups assigned items by store, dropping stores with no items
func project(candidates []domain.RetailerPrices, p plan, strategy domain.Strategy) *domain.OptimizationResult {
	result := &domain.OptimizationResult{
		TotalCost:    RoundPrice(p.cost),
		CoveredCount: p.covered,
		Strategy:     strategy,
		Supermarkets: []domain.RetailerPrices{},
	}

	for _, s := range p.stores {
		store := candidates[s]
		var items []domain.PricedItem
		for q, assigned := range p.assignments {
			if assigned == s {
				items = append(items, store.Products[q])
			}
		}
		if len(items) == 0 {
			continue
		}
		result.Supermarkets = append(result.Supermarkets, domain.RetailerPrices{
			Code:     store.Code,
			Name:     store.Name,
			Icon:     store.Icon,
			Products: items,
		})
	}

	return result
}

// planExhaustive evaluates every store subset of size 1..maxVisits and keeps the
// one covering the most queries, then the cheapest; ties keep the first found
func planExhaustive(m priceMatrix, maxVisits int) plan {
	best := plan{covered: -1, cost: math.Inf(1)}

	limit := min(maxVisits, m.stores)
	for k := 1; k <= limit; k++ {
		forEachCombination(m.stores, k, func(subset []int) {
			current := evaluateSubset(m, subset)
			if current.covered > best.covered ||
				(current.covered == best.covered && current.cost < best.cost) {
				current.stores = slices.Clone(subset)
				best = current
			}
		})
	}

	if best.covered < 0 {
		return plan{}
	}
	return best
}

// evaluateSubset assigns each query to the cheapest store in subset; queries
// no store in subset carries are parked at the subset's first store
func evaluateSubset(m priceMatrix, subset []int) plan {
	p := plan{assignments: make([]int, m.queries)}

	for q := 0; q < m.queries; q++ {
		bestStore := unassigned
		minPrice := math.Inf(1)
		for _, s := range subset {
			if price := m.cells[q][s]; price != nil && *price < minPrice {
				minPrice = *price
				bestStore = s
			}
		}

		if bestStore == unassigned {
			p.assignments[q] = subset[0]
			continue
		}
		p.assignments[q] = bestStore
		p.cost += minPrice
		p.covered++
	}

	return p
}

// forEachCombination calls fn with every k-subset of 0..n-1 in lexicographic order.
// The slice passed to fn is reused between calls.
func forEachCombination(n, k int, fn func([]int)) {
	combo := make([]int, 0, k)
	var walk func(start int)
	walk = func(start int) {
		if len(combo) == k {
			fn(combo)
			return
		}
		for i := start; i < n; i++ {
			combo = append(combo, i)
			walk(i + 1)
			combo = combo[:len(combo)-1]
		}
	}
	walk(0)
}

// planGreedy repeatedly visits the store with the highest marginal value until
// every query is assigned, no store adds value, or the visit budget is spent
func planGreedy(m priceMatrix, maxVisits int) plan {
	p := plan{assignments: make([]int, m.queries)}
	for q := range p.assignments {
		p.assignments[q] = unassigned
	}
	selected := make([]bool, m.stores)
	remaining := m.queries

	for visit := 0; visit < maxVisits && remaining > 0; visit++ {
		bestStore := unassigned
		bestValue := 0.0
		for s := 0; s < m.stores; s++ {
			if selected[s] {
				continue
			}
			if value := marginalValue(m, p.assignments, s); value > bestValue {
				bestValue = value
				bestStore = s
			}
		}
		if bestStore == unassigned {
			break
		}

		selected[bestStore] = true
		p.stores = append(p.stores, bestStore)
		for q := 0; q < m.queries; q++ {
			price := m.cells[q][bestStore]
			if price == nil {
				continue
			}
			current := p.assignments[q]
			if current == unassigned {
				p.assignments[q] = bestStore
				remaining--
			} else if *price < *m.cells[q][current] {
				p.assignments[q] = bestStore
			}
		}
	}

	for q, s := range p.assignments {
		if s != unassigned {
			p.cost += *m.cells[q][s]
			p.covered++
		}
	}
	return p
}

// marginalValue scores how much visiting store s adds to the current assignment
func marginalValue(m priceMatrix, assignments []int, s int) float64 {
	newlyCovered := 0
	savings := 0.0
	for q := 0; q < m.queries; q++ {
		price := m.cells[q][s]
		if price == nil {
			continue
		}
		current := assignments[q]
		if current == unassigned {
			newlyCovered++
		} else if currentPrice := *m.cells[q][current]; *price < currentPrice {
			savings += currentPrice - *price
		}
	}
	return greedyCoverageWeight*float64(newlyCovered) + greedySavingsWeight*savings
}
