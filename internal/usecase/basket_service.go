package usecase

import (
	"context"
	"fmt"

	"github.com/basketlens/backend/internal/domain"
	"github.com/rs/zerolog"
)

// BasketServiceConfig holds configuration for the basket service
type BasketServiceConfig struct {
	Matcher            MatcherConfig
	ShareBaseURL       string
	EnableDebugLogging bool
}

// BasketService exposes the public price and plan operations over the current catalog
type BasketService struct {
	catalog      domain.CatalogSource
	builder      *PriceTableBuilder
	optimizer    *BasketOptimizer
	shareBaseURL string
	debug        bool
	logger       zerolog.Logger
}

// NewBasketService creates a basket service with dependencies
func NewBasketService(catalog domain.CatalogSource, config BasketServiceConfig, logger zerolog.Logger) *BasketService {
	matcher := NewProductMatcher(NewUnitNormalizer(DefaultUnits()), config.Matcher)

	shareBaseURL := config.ShareBaseURL
	if shareBaseURL == "" {
		shareBaseURL = DefaultShareBaseURL
	}

	return &BasketService{
		catalog:      catalog,
		builder:      NewPriceTableBuilder(matcher),
		optimizer:    NewBasketOptimizer(),
		shareBaseURL: shareBaseURL,
		debug:        config.EnableDebugLogging,
		logger:       logger.With().Str("component", "basket").Logger(),
	}
}

// ListRetailers returns code, name and icon of every retailer in the catalog
func (s *BasketService) ListRetailers(ctx context.Context) ([]domain.RetailerSummary, error) {
	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.RetailerSummary, len(snapshot.Retailers))
	for i, r := range snapshot.Retailers {
		summaries[i] = r.Summary()
	}
	return summaries, nil
}

// PriceTable prices every query at every retailer
func (s *BasketService) PriceTable(ctx context.Context, queries []string) (*domain.PriceTable, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: shopping list is empty", domain.ErrInvalidRequest)
	}

	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	table := s.builder.Build(snapshot.Retailers, queries)
	if s.debug {
		for _, row := range table.Retailers {
			for _, item := range row.Products {
				s.logger.Debug().
					Str("retailer", row.Code).
					Str("query", item.OriginalQuery).
					Interface("match", item.Name).
					Interface("price", item.Price).
					Bool("estimate", item.IsEstimate).
					Msg("priced")
			}
		}
	}
	return &table, nil
}

// OptimalPlan distributes the queries over at most maxVisits of the given retailers
func (s *BasketService) OptimalPlan(
	ctx context.Context,
	queries []string,
	maxVisits int,
	codes []string,
	strategy domain.Strategy,
) (*domain.OptimizationResult, error) {
	table, err := s.PriceTable(ctx, queries)
	if err != nil {
		return nil, err
	}

	result, err := s.optimizer.Optimize(*table, codes, maxVisits, strategy)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("strategy", string(strategy)).
		Int("queries", len(queries)).
		Int("max_visits", maxVisits).
		Int("covered", result.CoveredCount).
		Float64("total_cost", result.TotalCost).
		Msg("plan computed")
	return result, nil
}

// LastUpdated returns when the upstream catalog last changed, if known
func (s *BasketService) LastUpdated(ctx context.Context) (string, bool) {
	return s.catalog.LastUpdated(ctx)
}

// ShareLink returns a link that opens the shopping list on the web
func (s *BasketService) ShareLink(queries []string) string {
	return EncodeShareLines(s.shareBaseURL, queries)
}
