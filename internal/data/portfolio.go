package data

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/domain"
)

// FetchResult is one instrument's outcome from a portfolio-wide fetch.
type FetchResult struct {
	Code    string
	Candles []domain.Candle
	Err     error
}

// PortfolioFetcher pulls candle series for many instruments through a
// fixed-size worker pool. One instrument's failure never aborts the rest;
// callers exclude failed entries from portfolio computations.
type PortfolioFetcher struct {
	source      CandleSource
	workers     int
	fetchErrors *prometheus.CounterVec
}

// NewPortfolioFetcher creates a fetcher with the given concurrency cap.
func NewPortfolioFetcher(source CandleSource, workers int) *PortfolioFetcher {
	if workers <= 0 {
		workers = 5
	}
	return &PortfolioFetcher{source: source, workers: workers}
}

// WithErrorCounter attaches a per-code failure counter.
func (p *PortfolioFetcher) WithErrorCounter(errors *prometheus.CounterVec) *PortfolioFetcher {
	p.fetchErrors = errors
	return p
}

// FetchAll retrieves candles for every code, keyed by code. The result
// always has one entry per distinct input code.
func (p *PortfolioFetcher) FetchAll(codes []string, lookbackDays int) map[string]FetchResult {
	jobs := make(chan string)
	results := make(chan FetchResult)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for code := range jobs {
				candles, err := p.source.Fetch(code, lookbackDays)
				if err != nil {
					log.Warn().Err(err).Str("code", code).Msg("portfolio fetch failed, excluding")
					if p.fetchErrors != nil {
						p.fetchErrors.WithLabelValues(code).Inc()
					}
				}
				results <- FetchResult{Code: code, Candles: candles, Err: err}
			}
		}()
	}

	go func() {
		seen := make(map[string]bool, len(codes))
		for _, code := range codes {
			if seen[code] {
				continue
			}
			seen[code] = true
			jobs <- code
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]FetchResult, len(codes))
	for result := range results {
		out[result.Code] = result
	}
	return out
}
