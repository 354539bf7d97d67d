package backtest

import (
	"errors"
	"math"

	"github.com/quantdesk/advisor/internal/domain"
)

// ErrInsufficientData is returned when a series is too short for a
// statistically meaningful result. It is an expected condition, not a
// failure of the engine.
var ErrInsufficientData = errors.New("insufficient data")

// Annualization constants.
const (
	tradingDaysPerYear = 252
	annualRiskFreeRate = 0.035
)

// PerformanceMetrics summarizes a simulator run. Percentages are expressed
// in percent, rounded to two decimals.
type PerformanceMetrics struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	MaxDrawdownDate  string  `json:"max_drawdown_date"`
	WinRate          float64 `json:"win_rate"`
	ProfitFactor     float64 `json:"profit_factor"`
	TotalTrades      int     `json:"total_trades"`
	SellTrades       int     `json:"sell_trades"`
	AvgWin           float64 `json:"avg_win"`
	AvgLoss          float64 `json:"avg_loss"`
	FinalValue       float64 `json:"final_value"`
	InitialCapital   float64 `json:"initial_capital"`
}

// CalculatePerformance derives performance metrics from a simulator run.
// Requires at least two equity points.
func CalculatePerformance(result *Result) (*PerformanceMetrics, error) {
	if result == nil || len(result.EquityCurve) < 2 {
		return nil, ErrInsufficientData
	}

	totalReturn := (result.FinalValue - result.InitialCapital) / result.InitialCapital

	// Daily returns from consecutive positive equity values only.
	dailyReturns := make([]float64, 0, len(result.EquityCurve)-1)
	for i := 1; i < len(result.EquityCurve); i++ {
		prev := result.EquityCurve[i-1].Value
		if prev > 0 {
			dailyReturns = append(dailyReturns, (result.EquityCurve[i].Value-prev)/prev)
		}
	}

	riskFreeDaily := annualRiskFreeRate / tradingDaysPerYear
	excess := make([]float64, len(dailyReturns))
	for i, r := range dailyReturns {
		excess[i] = r - riskFreeDaily
	}
	avgExcess := mean(excess)

	sharpe := 0.0
	if sd := stddev(excess); sd > 0 {
		sharpe = avgExcess / sd * math.Sqrt(tradingDaysPerYear)
	}

	// Sortino penalizes downside deviation only. No negative excess
	// returns is a legitimate zero, not an error.
	downside := make([]float64, 0, len(excess))
	for _, r := range excess {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	sortino := 0.0
	if sd := stddev(downside); sd > 0 {
		sortino = avgExcess / sd * math.Sqrt(tradingDaysPerYear)
	}

	// Max drawdown with a running peak; the date records the deepest trough.
	peak := result.EquityCurve[0].Value
	maxDrawdown := 0.0
	maxDrawdownDate := ""
	for _, point := range result.EquityCurve {
		if point.Value > peak {
			peak = point.Value
		}
		dd := (peak - point.Value) / peak
		if dd > maxDrawdown {
			maxDrawdown = dd
			maxDrawdownDate = point.Date
		}
	}

	// Trade statistics over sell legs only.
	var sellTrades, winners, losers int
	var grossProfit, grossLoss, winSum, lossSum float64
	totalBuys := 0
	for _, trade := range result.Trades {
		switch trade.Type {
		case TradeBuy:
			totalBuys++
		case TradeSell, TradePartialSell:
			sellTrades++
			if trade.ProfitRate > 0 {
				winners++
				grossProfit += trade.ProfitRate
				winSum += trade.ProfitRate
			} else {
				losers++
				grossLoss += -trade.ProfitRate
				lossSum += trade.ProfitRate
			}
		}
	}

	winRate := 0.0
	if sellTrades > 0 {
		winRate = float64(winners) / float64(sellTrades)
	}
	profitFactor := 0.0
	switch {
	case grossLoss > 0:
		profitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		profitFactor = math.Inf(1)
	}
	avgWin, avgLoss := 0.0, 0.0
	if winners > 0 {
		avgWin = winSum / float64(winners)
	}
	if losers > 0 {
		avgLoss = lossSum / float64(losers)
	}

	return &PerformanceMetrics{
		TotalReturn:      domain.Round2(totalReturn * 100),
		AnnualizedReturn: domain.Round2(annualize(totalReturn, len(result.EquityCurve)) * 100),
		SharpeRatio:      domain.Round2(sharpe),
		SortinoRatio:     domain.Round2(sortino),
		MaxDrawdown:      domain.Round2(maxDrawdown * 100),
		MaxDrawdownDate:  maxDrawdownDate,
		WinRate:          domain.Round2(winRate * 100),
		ProfitFactor:     domain.Round2(profitFactor),
		TotalTrades:      totalBuys,
		SellTrades:       sellTrades,
		AvgWin:           domain.Round2(avgWin),
		AvgLoss:          domain.Round2(avgLoss),
		FinalValue:       math.Round(result.FinalValue),
		InitialCapital:   result.InitialCapital,
	}, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation; fewer than two values yield 0.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	avg := mean(values)
	variance := 0.0
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	return math.Sqrt(variance / float64(len(values)-1))
}

func annualize(totalReturn float64, tradingDays int) float64 {
	if tradingDays <= 0 {
		return 0
	}
	return math.Pow(1+totalReturn, tradingDaysPerYear/float64(tradingDays)) - 1
}
