package data

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/quantdesk/advisor/internal/domain"
)

// GuardConfig bounds upstream access.
type GuardConfig struct {
	RequestsPerSec   float64
	Burst            int
	FailureThreshold uint32
	Cooldown         time.Duration
	RequestTimeout   time.Duration
}

// GuardedSource wraps an upstream CandleSource with a token-bucket rate
// limit and a circuit breaker. A tripped breaker fails fast until the
// cooldown elapses.
type GuardedSource struct {
	upstream CandleSource
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	timeout  time.Duration
}

// NewGuardedSource wraps upstream with the given guards.
func NewGuardedSource(upstream CandleSource, cfg GuardConfig) *GuardedSource {
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "candle-source",
		Timeout: cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &GuardedSource{
		upstream: upstream,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker:  gobreaker.NewCircuitBreaker(settings),
		timeout:  cfg.RequestTimeout,
	}
}

// Fetch implements CandleSource.
func (g *GuardedSource) Fetch(code string, lookbackDays int) ([]domain.Candle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", code, err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.upstream.Fetch(code, lookbackDays)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", code, err)
	}
	return result.([]domain.Candle), nil
}
