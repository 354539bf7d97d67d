package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/domain"
)

const (
	// minCorrelationPoints is the smallest aligned sample Pearson is
	// computed on.
	minCorrelationPoints = 10

	// shortWindow is the trailing length of the short-horizon matrix.
	shortWindow = 60

	// highCorrelationThreshold surfaces a pair as a co-movement warning.
	highCorrelationThreshold = 0.8
)

// Correlation windows.
const (
	WindowFull    = "FULL"
	WindowShort60 = "SHORT_60D"
)

// StockReturns pairs an instrument code with its daily return series.
type StockReturns struct {
	Code         string    `json:"code"`
	DailyReturns []float64 `json:"daily_returns"`
}

// CorrelationPair is one highly correlated pair surfaced as a warning.
type CorrelationPair struct {
	Pair        string  `json:"pair"`
	Correlation float64 `json:"correlation"`
	Window      string  `json:"window"`
}

// CorrelationWindow holds one window's pairwise matrix and its warnings.
type CorrelationWindow struct {
	Matrix    map[string]*float64 `json:"matrix"`
	HighPairs []CorrelationPair   `json:"high_pairs"`
}

// CorrelationResult holds the full-period and trailing-60 matrices.
type CorrelationResult struct {
	Full       CorrelationWindow `json:"full"`
	Short      CorrelationWindow `json:"short"`
	Warnings   []CorrelationPair `json:"warnings"`
	StockCount int               `json:"stock_count"`
}

// PearsonCorrelation computes the correlation of the trailing aligned
// portion of two return series. Returns nil with fewer than 10 aligned
// points; a zero-variance series correlates at 0.
func PearsonCorrelation(x, y []float64) *float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < minCorrelationPoints {
		return nil
	}
	xs := x[len(x)-n:]
	ys := y[len(y)-n:]

	meanX := meanOf(xs)
	meanY := meanOf(ys)
	var sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sumXY += dx * dy
		sumX2 += dx * dx
		sumY2 += dy * dy
	}
	denom := math.Sqrt(sumX2 * sumY2)
	r := 0.0
	if denom != 0 {
		r = domain.Round3(sumXY / denom)
	}
	return &r
}

// BuildCorrelationMatrix computes pairwise Pearson correlations over the
// full history and the most recent 60 points, surfacing |r| >= 0.8 pairs
// in either window as warnings. Returns nil with fewer than two stocks.
func BuildCorrelationMatrix(stocks []StockReturns) *CorrelationResult {
	if len(stocks) < 2 {
		return nil
	}

	full := CorrelationWindow{Matrix: map[string]*float64{}, HighPairs: []CorrelationPair{}}
	short := CorrelationWindow{Matrix: map[string]*float64{}, HighPairs: []CorrelationPair{}}

	for i := 0; i < len(stocks); i++ {
		for j := i + 1; j < len(stocks); j++ {
			a, b := stocks[i], stocks[j]
			pairKey := fmt.Sprintf("%s-%s", a.Code, b.Code)

			corrFull := PearsonCorrelation(a.DailyReturns, b.DailyReturns)
			full.Matrix[pairKey] = corrFull
			if corrFull != nil && math.Abs(*corrFull) >= highCorrelationThreshold {
				full.HighPairs = append(full.HighPairs, CorrelationPair{
					Pair: pairKey, Correlation: *corrFull, Window: WindowFull,
				})
			}

			corrShort := PearsonCorrelation(tail(a.DailyReturns, shortWindow), tail(b.DailyReturns, shortWindow))
			short.Matrix[pairKey] = corrShort
			if corrShort != nil && math.Abs(*corrShort) >= highCorrelationThreshold {
				short.HighPairs = append(short.HighPairs, CorrelationPair{
					Pair: pairKey, Correlation: *corrShort, Window: WindowShort60,
				})
			}
		}
	}

	warnings := append([]CorrelationPair{}, full.HighPairs...)
	warnings = append(warnings, short.HighPairs...)
	if len(warnings) > 0 {
		log.Warn().Int("pairs", len(warnings)).Msg("high correlation detected")
	}

	return &CorrelationResult{
		Full:       full,
		Short:      short,
		Warnings:   warnings,
		StockCount: len(stocks),
	}
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
