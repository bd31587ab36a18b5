package usecase

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/basketlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableFrom builds a price table from prices[retailer][query]; NaN marks a missing
// match and negative values mark an estimate of the absolute price
func tableFrom(prices [][]float64) domain.PriceTable {
	rows := make([]domain.RetailerPrices, len(prices))
	for r, row := range prices {
		items := make([]domain.PricedItem, len(row))
		for q, p := range row {
			items[q] = domain.PricedItem{OriginalQuery: fmt.Sprintf("q%d", q)}
			switch {
			case math.IsNaN(p):
			case p < 0:
				price := -p
				items[q].Price = &price
				items[q].IsEstimate = true
			default:
				price := p
				name := fmt.Sprintf("product %d/%d", r, q)
				items[q].Price = &price
				items[q].Name = &name
			}
		}
		rows[r] = domain.RetailerPrices{Code: fmt.Sprintf("s%d", r), Name: fmt.Sprintf("Store %d", r), Products: items}
	}
	return domain.PriceTable{Retailers: rows}
}

func codesOf(table domain.PriceTable) []string {
	codes := make([]string, len(table.Retailers))
	for i, r := range table.Retailers {
		codes[i] = r.Code
	}
	return codes
}

func storesOf(result *domain.OptimizationResult) []string {
	var stores []string
	for _, s := range result.Supermarkets {
		stores = append(stores, s.Code)
	}
	return stores
}

var nan = math.NaN()

func TestBasketOptimizer_Errors(t *testing.T) {
	o := NewBasketOptimizer()
	table := tableFrom([][]float64{{1}, {2}})

	t.Run("no candidate retailer in table", func(t *testing.T) {
		_, err := o.Optimize(table, []string{"lidl"}, 2, domain.StrategyExhaustive)
		if !errors.Is(err, domain.ErrNoMatchingRetailers) {
			t.Errorf("error = %v, want ErrNoMatchingRetailers", err)
		}
	})

	t.Run("empty candidate list", func(t *testing.T) {
		_, err := o.Optimize(table, nil, 2, domain.StrategyGreedy)
		if !errors.Is(err, domain.ErrNoMatchingRetailers) {
			t.Errorf("error = %v, want ErrNoMatchingRetailers", err)
		}
	})

	t.Run("zero visits", func(t *testing.T) {
		_, err := o.Optimize(table, codesOf(table), 0, domain.StrategyExhaustive)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := o.Optimize(table, codesOf(table), 1, domain.Strategy("random"))
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})
}

func TestBasketOptimizer_Exhaustive(t *testing.T) {
	o := NewBasketOptimizer()
	// s0 carries everything at a premium, s1 and s2 are cheap for one item each
	table := tableFrom([][]float64{
		{3.00, 3.00, 3.00},
		{1.00, nan, nan},
		{nan, 1.00, -0.10},
	})

	t.Run("one visit", func(t *testing.T) {
		result, err := o.Optimize(table, codesOf(table), 1, domain.StrategyExhaustive)
		require.NoError(t, err)
		assert.Equal(t, []string{"s0"}, storesOf(result))
		assert.Equal(t, 3, result.CoveredCount)
		assert.Equal(t, 9.0, result.TotalCost)
		assert.Equal(t, domain.StrategyExhaustive, result.Strategy)
	})

	t.Run("two visits", func(t *testing.T) {
		result, err := o.Optimize(table, codesOf(table), 2, domain.StrategyExhaustive)
		require.NoError(t, err)
		// {s0,s1} and {s0,s2} both cost 7; the first found wins
		assert.Equal(t, []string{"s0", "s1"}, storesOf(result))
		assert.Equal(t, 7.0, result.TotalCost)
	})

	t.Run("three visits", func(t *testing.T) {
		result, err := o.Optimize(table, codesOf(table), 3, domain.StrategyExhaustive)
		require.NoError(t, err)
		assert.Equal(t, []string{"s0", "s1", "s2"}, storesOf(result))
		assert.Equal(t, 5.0, result.TotalCost)
		assert.Equal(t, 3, result.CoveredCount)
	})

	t.Run("ties keep the first subset", func(t *testing.T) {
		result, err := o.Optimize(table, []string{"s1", "s2"}, 1, domain.StrategyExhaustive)
		require.NoError(t, err)
		assert.Equal(t, 1, result.CoveredCount)
		// The estimate at s2 never counts, so s1 and s2 tie on coverage and cost
		assert.Equal(t, []string{"s1"}, storesOf(result))
		assert.Equal(t, 1.0, result.TotalCost)
	})

	t.Run("uncovered queries stay with the first store", func(t *testing.T) {
		result, err := o.Optimize(table, []string{"s1"}, 1, domain.StrategyExhaustive)
		require.NoError(t, err)
		require.Len(t, result.Supermarkets, 1)
		assert.Len(t, result.Supermarkets[0].Products, 3)
		assert.Equal(t, 1, result.CoveredCount)
		assert.Equal(t, 1.0, result.TotalCost)
	})

	t.Run("visits above the candidate count", func(t *testing.T) {
		result, err := o.Optimize(table, []string{"s1", "s2"}, 10, domain.StrategyExhaustive)
		require.NoError(t, err)
		assert.Equal(t, 2, result.CoveredCount)
		assert.Equal(t, []string{"s1", "s2"}, storesOf(result))
	})
}

func TestBasketOptimizer_Greedy(t *testing.T) {
	o := NewBasketOptimizer()

	t.Run("stops once every query is assigned", func(t *testing.T) {
		table := tableFrom([][]float64{
			{2, 2},
			{1, nan},
		})
		greedy, err := o.Optimize(table, codesOf(table), 2, domain.StrategyGreedy)
		require.NoError(t, err)
		assert.Equal(t, []string{"s0"}, storesOf(greedy))
		assert.Equal(t, 4.0, greedy.TotalCost)
		assert.Equal(t, domain.StrategyGreedy, greedy.Strategy)

		exhaustive, err := o.Optimize(table, codesOf(table), 2, domain.StrategyExhaustive)
		require.NoError(t, err)
		assert.Equal(t, 3.0, exhaustive.TotalCost)
	})

	t.Run("uses later visits for coverage then savings", func(t *testing.T) {
		table := tableFrom([][]float64{
			{5, 5, nan},
			{4, nan, nan},
			{nan, nan, 2},
		})
		result, err := o.Optimize(table, codesOf(table), 3, domain.StrategyGreedy)
		require.NoError(t, err)
		assert.Equal(t, 3, result.CoveredCount)
		assert.Equal(t, 11.0, result.TotalCost)
		assert.ElementsMatch(t, []string{"s0", "s1", "s2"}, storesOf(result))
	})

	t.Run("stops when no store adds value", func(t *testing.T) {
		table := tableFrom([][]float64{
			{1, 1, nan},
			{2, 2, nan},
		})
		result, err := o.Optimize(table, codesOf(table), 2, domain.StrategyGreedy)
		require.NoError(t, err)
		assert.Equal(t, []string{"s0"}, storesOf(result))
		assert.Equal(t, 2.0, result.TotalCost)
	})

	t.Run("unmatched queries are left out", func(t *testing.T) {
		table := tableFrom([][]float64{
			{1, nan},
			{nan, -3},
		})
		result, err := o.Optimize(table, codesOf(table), 2, domain.StrategyGreedy)
		require.NoError(t, err)
		require.Len(t, result.Supermarkets, 1)
		assert.Len(t, result.Supermarkets[0].Products, 1)
		assert.Equal(t, 1, result.CoveredCount)
	})
}

func TestBasketOptimizer_MatchesBruteForce(t *testing.T) {
	o := NewBasketOptimizer()
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		stores := 1 + rng.Intn(5)
		queries := 1 + rng.Intn(6)
		prices := make([][]float64, stores)
		for s := range prices {
			prices[s] = make([]float64, queries)
			for q := range prices[s] {
				switch rng.Intn(4) {
				case 0:
					prices[s][q] = nan
				case 1:
					prices[s][q] = -float64(1+rng.Intn(500)) / 100
				default:
					prices[s][q] = float64(1+rng.Intn(500)) / 100
				}
			}
		}
		table := tableFrom(prices)
		maxVisits := 1 + rng.Intn(stores)

		result, err := o.Optimize(table, codesOf(table), maxVisits, domain.StrategyExhaustive)
		require.NoError(t, err)

		wantCovered, wantCost := bruteForce(prices, maxVisits)
		assert.Equal(t, wantCovered, result.CoveredCount, "trial %d coverage", trial)
		assert.Equal(t, RoundPrice(wantCost), result.TotalCost, "trial %d cost", trial)
		assertWellFormed(t, result, maxVisits, queries)

		greedy, err := o.Optimize(table, codesOf(table), maxVisits, domain.StrategyGreedy)
		require.NoError(t, err)
		assert.LessOrEqual(t, greedy.CoveredCount, wantCovered, "trial %d greedy coverage", trial)
		assertWellFormed(t, greedy, maxVisits, queries)
	}
}

// bruteForce returns the best coverage and cheapest cost over all store subsets
func bruteForce(prices [][]float64, maxVisits int) (int, float64) {
	stores := len(prices)
	queries := len(prices[0])
	bestCovered, bestCost := -1, math.Inf(1)

	for mask := 1; mask < 1<<stores; mask++ {
		size := 0
		for s := 0; s < stores; s++ {
			if mask&(1<<s) != 0 {
				size++
			}
		}
		if size > maxVisits {
			continue
		}

		covered, cost := 0, 0.0
		for q := 0; q < queries; q++ {
			cheapest := math.Inf(1)
			for s := 0; s < stores; s++ {
				if mask&(1<<s) != 0 && prices[s][q] > 0 && prices[s][q] < cheapest {
					cheapest = prices[s][q]
				}
			}
			if !math.IsInf(cheapest, 1) {
				covered++
				cost += cheapest
			}
		}

		if covered > bestCovered || (covered == bestCovered && cost < bestCost-1e-9) {
			bestCovered, bestCost = covered, cost
		}
	}
	return bestCovered, bestCost
}

func assertWellFormed(t *testing.T, result *domain.OptimizationResult, maxVisits, queries int) {
	t.Helper()

	assert.LessOrEqual(t, len(result.Supermarkets), maxVisits)
	seenStores := map[string]bool{}
	seenQueries := map[string]bool{}
	covered := 0
	for _, store := range result.Supermarkets {
		assert.False(t, seenStores[store.Code], "store %s listed twice", store.Code)
		seenStores[store.Code] = true
		assert.NotEmpty(t, store.Products)
		for _, item := range store.Products {
			assert.False(t, seenQueries[item.OriginalQuery], "query %s assigned twice", item.OriginalQuery)
			seenQueries[item.OriginalQuery] = true
			if item.HasRealPrice() {
				covered++
			}
		}
	}
	assert.Equal(t, result.CoveredCount, covered)
	assert.LessOrEqual(t, len(seenQueries), queries)
}

func TestForEachCombination(t *testing.T) {
	var got [][]int
	forEachCombination(4, 2, func(c []int) {
		got = append(got, append([]int(nil), c...))
	})
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}, got)
}
