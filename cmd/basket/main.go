// Command basket prices a shopping list against the supermarket catalog from the terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/basketlens/backend/config"
	"github.com/basketlens/backend/internal/domain"
	"github.com/basketlens/backend/internal/infrastructure/cache"
	"github.com/basketlens/backend/internal/infrastructure/checkjebon"
	"github.com/basketlens/backend/internal/infrastructure/listio"
	"github.com/basketlens/backend/internal/usecase"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

type options struct {
	listFile      string
	plan          bool
	maxVisits     int
	retailers     []string
	strategy      string
	link          bool
	listRetailers bool
	jsonOutput    bool
	verbose       bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "basket:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var opts options
	fs := flag.NewFlagSet("basket", flag.ContinueOnError)
	fs.StringVarP(&opts.listFile, "list", "f", "", "shopping list file (.txt, .csv, .xlsx, .xls)")
	fs.BoolVarP(&opts.plan, "plan", "p", false, "distribute the list over a limited number of supermarkets")
	fs.IntVarP(&opts.maxVisits, "max-visits", "n", 0, "maximum number of supermarkets to visit (default from config)")
	fs.StringSliceVarP(&opts.retailers, "retailers", "r", nil, "supermarket codes to consider (default all)")
	fs.StringVarP(&opts.strategy, "strategy", "s", "", "plan strategy: exhaustive or greedy (default from config)")
	fs.BoolVar(&opts.link, "link", false, "print a link that opens the list on the web")
	fs.BoolVar(&opts.listRetailers, "retailers-only", false, "list the supermarkets in the catalog")
	fs.BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of a table")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log catalog activity to stderr")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: basket [flags] [item ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := zerolog.Nop()
	if opts.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}

	queries, err := readQueries(opts.listFile, fs.Args())
	if err != nil {
		return err
	}

	ctx := context.Background()
	service, closeFn, err := newBasketService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	switch {
	case opts.listRetailers:
		retailers, err := service.ListRetailers(ctx)
		if err != nil {
			return err
		}
		if opts.jsonOutput {
			return writeJSON(out, retailers)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, r := range retailers {
			fmt.Fprintf(tw, "%s\t%s\n", r.Code, r.Name)
		}
		return tw.Flush()

	case opts.link:
		if len(queries) == 0 {
			return fmt.Errorf("%w: shopping list is empty", domain.ErrInvalidRequest)
		}
		_, err := fmt.Fprintln(out, service.ShareLink(queries))
		return err

	case opts.plan:
		strategy, err := domain.ParseStrategy(firstNonEmpty(opts.strategy, cfg.Optimizer.DefaultStrategy))
		if err != nil {
			return err
		}
		maxVisits := opts.maxVisits
		if maxVisits == 0 {
			maxVisits = cfg.Optimizer.DefaultMaxVisits
		}
		codes := opts.retailers
		if len(codes) == 0 {
			retailers, err := service.ListRetailers(ctx)
			if err != nil {
				return err
			}
			for _, r := range retailers {
				codes = append(codes, r.Code)
			}
		}

		result, err := service.OptimalPlan(ctx, queries, maxVisits, codes, strategy)
		if err != nil {
			return err
		}
		if opts.jsonOutput {
			return writeJSON(out, result)
		}
		return printPlan(out, result, len(queries))

	default:
		table, err := service.PriceTable(ctx, queries)
		if err != nil {
			return err
		}
		if opts.jsonOutput {
			return writeJSON(out, table)
		}
		return printTable(out, table, queries)
	}
}

// readQueries takes items from the list file, falling back to the arguments
func readQueries(listFile string, args []string) ([]string, error) {
	if listFile == "" {
		return args, nil
	}

	f, err := os.Open(listFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	items, err := listio.ReadList(f, listFile)
	if err != nil {
		return nil, err
	}
	return append(items, args...), nil
}

func newBasketService(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*usecase.BasketService, func(), error) {
	store, err := cache.Open(ctx, cache.Options{
		Type:       cfg.Cache.Type,
		Dir:        cfg.Cache.Dir,
		SQLitePath: cfg.Cache.SQLitePath,
	})
	if err != nil {
		return nil, nil, err
	}

	client := checkjebon.NewClient(checkjebon.ClientConfig{
		URL:             cfg.Catalog.URL,
		UserAgent:       cfg.Catalog.UserAgent,
		Timeout:         cfg.Catalog.Timeout,
		RequestsPerHour: cfg.Catalog.RequestsPerHour,
	}, logger)

	catalog := usecase.NewCatalogService(store, client, usecase.CatalogServiceConfig{CacheTTL: cfg.Catalog.TTL}, logger)
	service := usecase.NewBasketService(catalog, usecase.BasketServiceConfig{
		Matcher: usecase.MatcherConfig{
			PurchasedMarker: cfg.Matching.PurchasedMarker,
			TieThreshold:    cfg.Matching.TieThreshold,
		},
		ShareBaseURL: cfg.Share.BaseURL,
	}, logger)

	return service, func() { store.Close() }, nil
}

func printTable(out io.Writer, table *domain.PriceTable, queries []string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	header := []string{"item"}
	for _, r := range table.Retailers {
		header = append(header, r.Code)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	totals := make([]float64, len(table.Retailers))
	for q, query := range queries {
		row := []string{query}
		for r, retailer := range table.Retailers {
			item := retailer.Products[q]
			row = append(row, formatPrice(item))
			if item.Price != nil {
				totals[r] += *item.Price
			}
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}

	row := []string{"total"}
	for _, total := range totals {
		row = append(row, fmt.Sprintf("%.2f", usecase.RoundPrice(total)))
	}
	fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	return tw.Flush()
}

func printPlan(out io.Writer, result *domain.OptimizationResult, queries int) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, store := range result.Supermarkets {
		fmt.Fprintf(tw, "%s\t\t\n", store.Name)
		for _, item := range store.Products {
			name := "-"
			if item.Name != nil {
				name = *item.Name
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", item.OriginalQuery, name, formatPrice(item))
		}
	}
	fmt.Fprintf(tw, "total (%s, %d of %d found)\t\t%.2f\n", result.Strategy, result.CoveredCount, queries, result.TotalCost)
	return tw.Flush()
}

func formatPrice(item domain.PricedItem) string {
	switch {
	case item.Price == nil:
		return "-"
	case item.IsEstimate:
		return fmt.Sprintf("~%.2f", *item.Price)
	default:
		return fmt.Sprintf("%.2f", *item.Price)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
