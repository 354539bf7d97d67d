// Package risk quantifies portfolio risk: historical VaR/CVaR,
// concentration (HHI), pairwise correlation, and conservative position
// sizing. All computations are pure and deterministic; insufficient data
// yields nil results, never errors.
package risk

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/domain"
)

// minVaRPoints is the smallest daily-return sample a historical-simulation
// percentile is meaningful on.
const minVaRPoints = 20

// VaRResult holds historical-simulation VaR and CVaR, all in percent.
type VaRResult struct {
	VaR95      float64 `json:"var95"`
	VaR99      float64 `json:"var99"`
	CVaR95     float64 `json:"cvar95"`
	CVaR99     float64 `json:"cvar99"`
	WorstDay   float64 `json:"worst_day"`
	AvgReturn  float64 `json:"avg_return"`
	DataPoints int     `json:"data_points"`
}

// CalculateVaR computes historical VaR and CVaR from a daily return
// series. Returns nil with fewer than 20 points.
func CalculateVaR(dailyReturns []float64) *VaRResult {
	if len(dailyReturns) < minVaRPoints {
		log.Warn().Int("points", len(dailyReturns)).Msg("var: insufficient daily returns")
		return nil
	}

	sorted := make([]float64, len(dailyReturns))
	copy(sorted, dailyReturns)
	sort.Float64s(sorted)
	n := len(sorted)

	idx95 := int(math.Floor(float64(n) * 0.05))
	idx99 := int(math.Floor(float64(n) * 0.01))
	if idx99 < 0 {
		idx99 = 0
	}

	// CVaR is the mean of the tail at or below the VaR index, inclusive.
	cvar95 := tailMean(sorted, idx95+1)
	cvar99 := tailMean(sorted, maxInt(1, idx99+1))

	return &VaRResult{
		VaR95:      domain.Round2(sorted[idx95] * 100),
		VaR99:      domain.Round2(sorted[idx99] * 100),
		CVaR95:     domain.Round2(cvar95 * 100),
		CVaR99:     domain.Round2(cvar99 * 100),
		WorstDay:   domain.Round2(sorted[0] * 100),
		AvgReturn:  domain.Round2(meanOf(dailyReturns) * 100),
		DataPoints: n,
	}
}

// HoldingReturns pairs a holding's portfolio weight with its daily return
// series.
type HoldingReturns struct {
	Code         string    `json:"code"`
	Weight       float64   `json:"weight"`
	DailyReturns []float64 `json:"daily_returns"`
}

// CalculatePortfolioVaR computes VaR over the weight-weighted combination
// of the holdings' return series, aligned to the shortest common length.
// No cross-asset covariance model is applied. Returns nil when any
// holding has fewer than 20 aligned returns.
func CalculatePortfolioVaR(holdings []HoldingReturns) *VaRResult {
	if len(holdings) == 0 {
		return nil
	}
	minLength := len(holdings[0].DailyReturns)
	for _, h := range holdings[1:] {
		if len(h.DailyReturns) < minLength {
			minLength = len(h.DailyReturns)
		}
	}
	if minLength < minVaRPoints {
		return nil
	}

	portfolioReturns := make([]float64, minLength)
	for i := 0; i < minLength; i++ {
		dayReturn := 0.0
		for _, h := range holdings {
			dayReturn += h.DailyReturns[i] * h.Weight
		}
		portfolioReturns[i] = dayReturn
	}
	return CalculateVaR(portfolioReturns)
}

func tailMean(sorted []float64, count int) float64 {
	if count > len(sorted) {
		count = len(sorted)
	}
	return meanOf(sorted[:count])
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
