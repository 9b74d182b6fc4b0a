package client

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	bdtdRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bdtd_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	bdtdRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bdtd_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic. The delay between
// attempts is fixed, not exponential: the tool is already globally throttled
// by the interval gate, so a constant RetryInterval is enough.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (the initial request counts).
	MaxAttempts int

	// RetryInterval is the fixed delay between consecutive attempts.
	RetryInterval time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		RetryInterval: 5 * time.Second,
	}
}

// retryWithDelay executes fn up to config.MaxAttempts times with a fixed
// delay between attempts. classify maps the returned error to an ErrorClass;
// non-retryable classes abort immediately. The delay respects context
// cancellation.
func retryWithDelay(ctx context.Context, config RetryConfig, logger zerolog.Logger, fn func() error, classify func(error) ErrorClass) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultRetryConfig().MaxAttempts
	}

	var lastErr error
	var lastClass ErrorClass

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		lastClass = classify(err)

		if !shouldRetry(lastClass) {
			return lastErr
		}

		if attempt >= config.MaxAttempts {
			break
		}

		bdtdRetriesTotal.WithLabelValues(string(lastClass)).Inc()
		logger.Debug().
			Str("error_class", string(lastClass)).
			Int("attempt", attempt).
			Dur("delay", config.RetryInterval).
			Msg("Retrying request after delay")

		select {
		case <-ctx.Done():
			logger.Warn().
				Str("error_class", string(lastClass)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry delay")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(config.RetryInterval):
		}
	}

	bdtdRetryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	logger.Warn().
		Str("error_class", string(lastClass)).
		Int("max_attempts", config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, config.MaxAttempts, lastErr)
}
