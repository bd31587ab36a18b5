package checkjebon

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/basketlens/backend/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxAttempts = 3

// ClientConfig holds configuration for the catalog client
type ClientConfig struct {
	URL             string
	UserAgent       string
	Timeout         time.Duration
	RequestsPerHour int
	Burst           int
}

// Client downloads the supermarket catalog
type Client struct {
	httpClient  *http.Client
	url         string
	userAgent   string
	rateLimiter *rate.Limiter
	logger      zerolog.Logger
	sleep       func(time.Duration)
}

// NewClient creates a new catalog client
func NewClient(config ClientConfig, logger zerolog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "BasketLens/1.0"
	}
	perHour := config.RequestsPerHour
	if perHour <= 0 {
		perHour = 60
	}
	burst := config.Burst
	if burst <= 0 {
		burst = maxAttempts
	}

	// rate.Limit is requests per second
	limiter := rate.NewLimiter(rate.Limit(float64(perHour)/3600), burst)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			// Content-Encoding is handled in decodeBody
			Transport: &http.Transport{DisableCompression: true, Proxy: http.ProxyFromEnvironment},
		},
		url:         config.URL,
		userAgent:   userAgent,
		rateLimiter: limiter,
		logger:      logger.With().Str("component", "checkjebon").Logger(),
		sleep:       time.Sleep,
	}
}

// exponentialBackoff returns the wait before retrying after the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// doRequest executes the catalog GET with proper headers
func (c *Client) doRequest(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return resp, nil
}

// FetchCatalog downloads and maps the full catalog, retrying transient failures
func (c *Client) FetchCatalog(ctx context.Context) (*domain.CatalogSnapshot, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		snapshot, err := c.fetchOnce(ctx)
		if err == nil {
			c.logger.Info().
				Int("retailers", len(snapshot.Retailers)).
				Str("last_modified", snapshot.LastModified).
				Msg("catalog fetched")
			return snapshot, nil
		}

		c.logger.Warn().Err(err).Int("attempt", attempt).Msg("catalog fetch failed")
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < maxAttempts {
			c.sleep(exponentialBackoff(attempt))
		}
	}

	c.logger.Error().Err(lastErr).Msg("all catalog fetch attempts failed")
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context) (*domain.CatalogSnapshot, error) {
	resp, err := c.doRequest(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrCatalogUnavailable, resp.StatusCode, string(body))
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer body.Close()

	var records []RetailerRecord
	if err := json.NewDecoder(body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: failed to decode catalog: %v", domain.ErrCatalogUnavailable, err)
	}

	snapshot := MapSnapshot(records)
	snapshot.FetchedAt = time.Now()
	snapshot.LastModified = resp.Header.Get("Last-Modified")
	return snapshot, nil
}

// decodeBody unwraps the response body according to its Content-Encoding
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	case "gzip":
		return gzip.NewReader(resp.Body)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}
