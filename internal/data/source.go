// Package data orchestrates market-data retrieval: rate-limited,
// circuit-broken upstream access, a Redis candle cache, and a bounded
// worker pool for portfolio-wide fetches. The core analytics consume the
// results as plain candle slices and never see these mechanics.
package data

import (
	"fmt"

	"github.com/quantdesk/advisor/internal/domain"
)

// CandleSource returns daily candles for one instrument, ascending by
// date. Implementations may return fewer bars than requested.
type CandleSource interface {
	Fetch(code string, lookbackDays int) ([]domain.Candle, error)
}

// CandleSourceFunc adapts a function to the CandleSource interface.
type CandleSourceFunc func(code string, lookbackDays int) ([]domain.Candle, error)

// Fetch implements CandleSource.
func (f CandleSourceFunc) Fetch(code string, lookbackDays int) ([]domain.Candle, error) {
	return f(code, lookbackDays)
}

// IndexCloses adapts a CandleSource to the regime detector's input: the
// close series of a single market index.
func IndexCloses(source CandleSource, indexCode string, lookbackDays int) func() ([]float64, error) {
	return func() ([]float64, error) {
		candles, err := source.Fetch(indexCode, lookbackDays)
		if err != nil {
			return nil, fmt.Errorf("fetch index %s: %w", indexCode, err)
		}
		return domain.Closes(candles), nil
	}
}
