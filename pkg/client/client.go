// Package client provides the core BDTD HTTP fetcher with interval gating,
// bounded retry, optional caching, and error handling.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bdtd-go/bdtd-client/pkg/cache"
	"github.com/bdtd-go/bdtd-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for fetch operations.
var (
	bdtdRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bdtd_requests_total",
		Help: "Total BDTD requests by status",
	}, []string{"status"})

	bdtdRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bdtd_request_duration_seconds",
		Help:    "BDTD request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	bdtdErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bdtd_errors_total",
		Help: "Total BDTD fetch errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (permanent for a URL).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// DefaultUserAgent is sent with every request. BDTD rejects requests without
// a browser-like User-Agent.
const DefaultUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:95.0) Gecko/20100101 Firefox/95.0"

// Client is the gated, retrying HTTP fetcher used by every BDTD operation.
type Client struct {
	httpClient *http.Client
	gate       *ratelimit.Gate
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the fetcher configuration.
type Config struct {
	// User-Agent header sent with every request
	UserAgent string

	// Timeout per HTTP request
	Timeout time.Duration

	// Interval is the global minimum spacing between requests (any worker)
	Interval time.Duration

	// Retry
	MaxRetries    int           // Total attempts per URL (initial counts)
	RetryInterval time.Duration // Fixed delay between attempts

	// Redis enables the optional page cache when non-nil
	Redis *redis.Client

	// CacheTTL is how long cached page bodies stay valid
	CacheTTL time.Duration
}

// DefaultConfig returns a safe default configuration matching the BDTD
// site's tolerated request rate.
func DefaultConfig() Config {
	return Config{
		UserAgent:     DefaultUserAgent,
		Timeout:       10 * time.Second,
		Interval:      ratelimit.DefaultInterval,
		MaxRetries:    3,
		RetryInterval: 5 * time.Second,
		CacheTTL:      cache.DefaultTTL,
	}
}

// New creates a new fetcher.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}

	logger := log.With().Str("component", "bdtd-fetcher").Logger()

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		if cfg.CacheTTL <= 0 {
			cfg.CacheTTL = cache.DefaultTTL
		}
		cacheManager = cache.NewManager(cfg.Redis, cfg.CacheTTL)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		gate:   ratelimit.NewGate(cfg.Interval, logger),
		cache:  cacheManager,
		config: cfg,
		logger: logger,
	}, nil
}

// Gate exposes the shared interval gate so callers issuing their own
// requests (e.g. PDF downloads) stay under the same global spacing.
func (c *Client) Gate() *ratelimit.Gate {
	return c.gate
}

// Fetch performs a gated GET with bounded retry and returns the response
// body. Network and 5xx failures are retried up to MaxRetries total attempts
// with a fixed delay; 4xx responses fail immediately. Every attempt,
// including retries, waits on the interval gate first.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	// Cache hit skips both the network and the interval gate.
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cache.KeyForURL(url))
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("url", url).Msg("Cache get error")
		}
		if entry != nil {
			c.logger.Debug().Str("url", url).Msg("Serving page from cache")
			return entry.Data, nil
		}
	}

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		entry := cache.NewEntry(body, c.config.CacheTTL)
		if err := c.cache.Set(ctx, cache.KeyForURL(url), entry); err != nil {
			c.logger.Warn().Err(err).Str("url", url).Msg("Failed to cache page")
		}
	}

	return body, nil
}

// FetchUncached performs the same gated, retrying GET but never touches the
// page cache. Meant for one-shot binary payloads (PDF files) that are written
// straight to disk and not worth a Redis round trip.
func (c *Client) FetchUncached(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, url)
}

// fetch is the shared gate-retry-GET core behind Fetch and FetchUncached.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		bdtdRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	var body []byte
	var attempts int
	var lastClass ErrorClass
	var lastStatus int

	retryCfg := RetryConfig{
		MaxAttempts:   c.config.MaxRetries,
		RetryInterval: c.config.RetryInterval,
	}

	retryErr := retryWithDelay(ctx, retryCfg, c.logger, func() error {
		attempts++

		if err := c.gate.Acquire(ctx); err != nil {
			lastClass = ErrorClassNetwork
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			lastClass = ErrorClassClient
			return err
		}
		req.Header.Set("User-Agent", c.config.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastClass = ErrorClassNetwork
			lastStatus = 0
			bdtdErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			bdtdRequestsTotal.WithLabelValues("network_error").Inc()
			c.logger.Warn().Err(err).Str("url", url).Int("attempt", attempts).Msg("HTTP request failed")
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			lastClass = c.classifyStatus(resp.StatusCode)
			lastStatus = resp.StatusCode
			bdtdErrorsTotal.WithLabelValues(string(lastClass)).Inc()
			bdtdRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("url", url).
				Int("status", resp.StatusCode).
				Str("error_class", string(lastClass)).
				Msg("BDTD returned error status")

			return fmt.Errorf("unexpected status %s", resp.Status)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			lastClass = ErrorClassNetwork
			bdtdErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return fmt.Errorf("read response body: %w", err)
		}

		bdtdRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()
		return nil
	}, func(error) ErrorClass {
		return lastClass
	})

	if retryErr != nil {
		return nil, &FetchError{
			URL:        url,
			StatusCode: lastStatus,
			Class:      lastClass,
			Attempts:   attempts,
			Err:        retryErr,
		}
	}

	return body, nil
}

// classifyStatus categorizes an HTTP status code for retry decisions and
// observability.
func (c *Client) classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
