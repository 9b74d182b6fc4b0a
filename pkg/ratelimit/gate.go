// Package ratelimit implements the interval gate that enforces a global
// minimum spacing between outgoing BDTD requests. The gate is shared by all
// workers: for any two consecutive permitted requests, regardless of which
// worker issued them, at least the configured interval elapses in between.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for interval gate behavior.
var (
	bdtdGateWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bdtd_gate_wait_seconds",
		Help:    "Time spent waiting for the interval gate before a request",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	bdtdGatePermitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bdtd_gate_permits_total",
		Help: "Total number of requests permitted through the interval gate",
	})
)

// DefaultInterval is the minimum spacing between requests when none is
// configured. Matches the politeness delay the BDTD site tolerates well.
const DefaultInterval = 500 * time.Millisecond

// Gate enforces a minimum interval between successive permits. The
// last-permit timestamp is the only mutable state shared across workers and
// every read-modify-write of it happens under the mutex.
type Gate struct {
	mu         sync.Mutex
	interval   time.Duration
	lastPermit time.Time
	logger     zerolog.Logger
}

// NewGate creates a gate with the given minimum interval between permits.
// A non-positive interval falls back to DefaultInterval.
func NewGate(interval time.Duration, logger zerolog.Logger) *Gate {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Gate{
		interval: interval,
		logger:   logger,
	}
}

// Interval returns the configured minimum spacing.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Acquire blocks until at least the configured interval has elapsed since
// the previous permit granted to ANY caller, then records the new permit.
// Returns early with an error if the context is cancelled while waiting.
func (g *Gate) Acquire(ctx context.Context) error {
	start := time.Now()

	for {
		g.mu.Lock()
		now := time.Now()
		next := g.lastPermit.Add(g.interval)
		if g.lastPermit.IsZero() || !now.Before(next) {
			g.lastPermit = now
			g.mu.Unlock()

			wait := time.Since(start)
			bdtdGateWaitSeconds.Observe(wait.Seconds())
			bdtdGatePermitsTotal.Inc()

			if wait > g.interval {
				g.logger.Debug().
					Dur("waited", wait).
					Msg("Interval gate permit granted after wait")
			}
			return nil
		}
		wait := next.Sub(now)
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			g.logger.Debug().
				Dur("waited", time.Since(start)).
				Msg("Context cancelled while waiting for interval gate")
			return fmt.Errorf("interval gate wait: %w", ctx.Err())
		case <-time.After(wait):
			// Re-check under the lock; another worker may have taken the slot.
		}
	}
}
