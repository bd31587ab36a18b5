package usecase

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/basketlens/backend/internal/domain"
)

// Default matcher settings
const (
	defaultPurchasedMarker = "x"
	defaultTieThreshold    = 3
)

// RankedProduct is a match candidate with the summed length of its pattern matches
type RankedProduct struct {
	Product domain.CatalogProduct
	Score   int
}

// RankComparator orders two candidates; negative means a ranks before b
type RankComparator func(a, b RankedProduct) int

// LengthThenPrice orders candidates whose scores differ by less than threshold by
// ascending price, and all others by ascending score. A shorter overlap with the
// query wins once the gap reaches the threshold.
func LengthThenPrice(threshold int) RankComparator {
	return func(a, b RankedProduct) int {
		diff := a.Score - b.Score
		if diff < 0 {
			diff = -diff
		}
		if diff < threshold {
			switch {
			case a.Product.Price < b.Product.Price:
				return -1
			case a.Product.Price > b.Product.Price:
				return 1
			default:
				return 0
			}
		}
		return a.Score - b.Score
	}
}

// MatcherConfig holds configuration for the product matcher
type MatcherConfig struct {
	// PurchasedMarker is the leading word that marks an item as already bought
	PurchasedMarker string
	TieThreshold    int
	// Compare overrides the ranking policy; nil uses LengthThenPrice(TieThreshold)
	Compare RankComparator
}

// ProductMatcher finds the catalog product that best fits a free-text query
type ProductMatcher struct {
	units       *UnitNormalizer
	markerRegex *regexp.Regexp
	compare     RankComparator
}

// NewProductMatcher creates a matcher using the given unit normalizer
func NewProductMatcher(units *UnitNormalizer, config MatcherConfig) *ProductMatcher {
	marker := config.PurchasedMarker
	if marker == "" {
		marker = defaultPurchasedMarker
	}

	threshold := config.TieThreshold
	if threshold <= 0 {
		threshold = defaultTieThreshold
	}

	compare := config.Compare
	if compare == nil {
		compare = LengthThenPrice(threshold)
	}

	return &ProductMatcher{
		units:       units,
		markerRegex: regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(marker) + `\s+`),
		compare:     compare,
	}
}

// searchTerms is a query prepared for matching
type searchTerms struct {
	text   string
	amount string
}

// prepare strips the purchased marker and the amount token from the query
func (m *ProductMatcher) prepare(query string) searchTerms {
	text := m.markerRegex.ReplaceAllString(strings.TrimSpace(query), "")

	amount, ok := m.units.ExtractAmountToken(text)
	if ok {
		text = strings.Replace(text, amount, "", 1)
	}

	return searchTerms{text: text, amount: amount}
}

// Match returns the best ranked product for the query
func (m *ProductMatcher) Match(products []domain.CatalogProduct, query string) (domain.CatalogProduct, bool) {
	ranked := m.RankMatches(products, query)
	if len(ranked) == 0 {
		return domain.CatalogProduct{}, false
	}
	return ranked[0], true
}

// RankMatches returns every product that matches the query, best first.
// The token stage runs first; the subsequence stage only when it finds nothing.
// Candidates are always scored against the query tokens.
func (m *ProductMatcher) RankMatches(products []domain.CatalogProduct, query string) []domain.CatalogProduct {
	terms := m.prepare(query)

	tokens := newTokenStage(terms.text)
	candidates := tokens.filter(products)
	if len(candidates) == 0 {
		candidates = newSubsequenceStage(terms.text).filter(products)
	}

	if terms.amount != "" {
		candidates = m.filterByMinimum(candidates, terms.amount)
	}

	ranked := make([]RankedProduct, len(candidates))
	for i, p := range candidates {
		ranked[i] = RankedProduct{Product: p, Score: tokens.score(p.Name)}
	}
	slices.SortStableFunc(ranked, m.compare)

	result := make([]domain.CatalogProduct, len(ranked))
	for i, r := range ranked {
		result[i] = r.Product
	}
	return result
}

// filterByMinimum keeps products whose size meets the requested amount
func (m *ProductMatcher) filterByMinimum(products []domain.CatalogProduct, amount string) []domain.CatalogProduct {
	required := m.units.BaseToken(amount)

	var kept []domain.CatalogProduct
	for _, p := range products {
		if p.Size == "" {
			continue
		}
		if MeetsMinimum(m.units.BaseToken(p.Size), required) {
			kept = append(kept, p)
		}
	}
	return kept
}

// patternStage accepts names that match every pattern
type patternStage struct {
	patterns []*regexp.Regexp
}

// newTokenStage builds one literal, case-insensitive pattern per whitespace token
func newTokenStage(text string) patternStage {
	tokens := strings.Fields(text)
	patterns := make([]*regexp.Regexp, 0, len(tokens))
	for _, token := range tokens {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(stripSpace(token))))
	}
	return patternStage{patterns: patterns}
}

// newSubsequenceStage accepts names containing the characters of text in order
func newSubsequenceStage(text string) patternStage {
	compact := stripSpace(text)
	parts := make([]string, 0, utf8.RuneCountInString(compact))
	for _, r := range compact {
		parts = append(parts, regexp.QuoteMeta(string(r)))
	}
	return patternStage{patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)` + strings.Join(parts, ".*"))}}
}

func (s patternStage) filter(products []domain.CatalogProduct) []domain.CatalogProduct {
	var matched []domain.CatalogProduct
	for _, p := range products {
		if s.matches(p.Name) {
			matched = append(matched, p)
		}
	}
	return matched
}

func (s patternStage) matches(name string) bool {
	for _, pattern := range s.patterns {
		if !pattern.MatchString(name) {
			return false
		}
	}
	return true
}

// score sums the rune length of each pattern's first match in name
func (s patternStage) score(name string) int {
	total := 0
	for _, pattern := range s.patterns {
		total += utf8.RuneCountInString(pattern.FindString(name))
	}
	return total
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
