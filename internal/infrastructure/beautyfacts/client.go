package beautyfacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/skinlens/backend/internal/domain"
	"github.com/skinlens/backend/internal/infrastructure/metrics"
	"github.com/skinlens/backend/internal/pkg/logger"
)

const (
	defaultBaseURL      = "https://world.openbeautyfacts.org"
	defaultTimeout      = 10 * time.Second
	defaultUserAgent    = "SkinLens/1.0"
	defaultMaxRetries   = 3
	defaultRetryBackoff = 500 * time.Millisecond
	maxBodyBytes        = 2 << 20
)

// Config configures the Open Beauty Facts client
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryBackoff      time.Duration

	// Circuit breaker
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Client resolves cosmetic barcodes against the Open Beauty Facts database
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	rateLimiter  *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[*domain.ExternalProduct]
	maxRetries   int
	retryBackoff time.Duration
	log          *logger.Logger
	debug        bool
}

// NewClient creates a new Open Beauty Facts client
func NewClient(cfg Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	// The public API asks for at most 100 product reads per minute
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 100.0 / 60.0
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:    cfg.UserAgent,
		rateLimiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		log:          log.With("client", "OpenBeautyFacts"),
	}

	threshold := cfg.FailureThreshold
	c.breaker = gobreaker.NewCircuitBreaker[*domain.ExternalProduct](gobreaker.Settings{
		Name:        "open-beauty-facts",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Unknown barcodes and cancelled callers say nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrProductNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return c
}

// SetDebug enables or disables per-request debug logging
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// LookupBarcode fetches a product by barcode.
// Returns ErrProductNotFound for unknown barcodes and ErrLookupFailure when
// the service cannot be reached.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (*domain.ExternalProduct, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.NewValidationError("barcode", "is required")
	}

	product, err := c.breaker.Execute(func() (*domain.ExternalProduct, error) {
		return c.fetchProduct(ctx, barcode)
	})
	switch {
	case err == nil:
		metrics.LookupRequests.WithLabelValues("found").Inc()
		return product, nil
	case errors.Is(err, domain.ErrProductNotFound):
		metrics.LookupRequests.WithLabelValues("not_found").Inc()
		return nil, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.LookupRequests.WithLabelValues("circuit_open").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrLookupFailure, err)
	default:
		metrics.LookupRequests.WithLabelValues("error").Inc()
		return nil, err
	}
}

// productResponse is the subset of the v2 product payload we read
type productResponse struct {
	Code          string          `json:"code"`
	Status        int             `json:"status"`
	StatusVerbose string          `json:"status_verbose"`
	Product       *productPayload `json:"product"`
}

type productPayload struct {
	ProductName     string              `json:"product_name"`
	ProductNameEN   string              `json:"product_name_en"`
	Brands          string              `json:"brands"`
	Categories      string              `json:"categories"`
	IngredientsText string              `json:"ingredients_text"`
	IngredientsEN   string              `json:"ingredients_text_en"`
	Ingredients     []ingredientPayload `json:"ingredients"`
}

type ingredientPayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (c *Client) fetchProduct(ctx context.Context, barcode string) (*domain.ExternalProduct, error) {
	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))
	if c.debug {
		c.log.Debug("LookupBarcode called", "barcode", barcode)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn("Request failed", "attempt", attempt, "error", err)
			lastErr = err
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := readLimitedBody(resp)
		if readErr != nil {
			lastErr = fmt.Errorf("%w: read body: %v", domain.ErrLookupFailure, readErr)
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: barcode %s", domain.ErrProductNotFound, barcode)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.log.Warn("Upstream error", "attempt", attempt, "status", resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrLookupFailure, resp.StatusCode)
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%w: status %d", domain.ErrLookupFailure, resp.StatusCode)
		}

		var payload productResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", domain.ErrLookupFailure, err)
		}
		if payload.Status == 0 || payload.Product == nil {
			return nil, fmt.Errorf("%w: barcode %s", domain.ErrProductNotFound, barcode)
		}

		product := MapProduct(barcode, payload.Product)
		if c.debug {
			c.log.Debug("Product resolved", "barcode", barcode, "name", product.Name, "ingredients", len(product.Ingredients))
		}
		return product, nil
	}

	c.log.Warn("All retries failed", "barcode", barcode, "error", lastErr)
	return nil, lastErr
}

// doRequest executes a GET request with the client's headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLookupFailure, err)
	}
	return resp, nil
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	if attempt >= c.maxRetries {
		return nil
	}
	timer := time.NewTimer(exponentialBackoff(c.retryBackoff, attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// exponentialBackoff doubles base for each attempt after the first
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

func readLimitedBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
