// Package fundamental derives financial ratios from statement line items
// and condenses them into a 0-100 quality score. Every ratio is optional:
// a missing or zero denominator yields a nil ratio, never a garbage value,
// and the scorer simply awards no points for ratios it cannot see.
package fundamental

import (
	"math"

	"github.com/rs/zerolog/log"
)

// Financials holds raw statement line items for one fiscal year. Fields
// are pointers because filings routinely omit individual items.
type Financials struct {
	Revenue            *float64 `json:"revenue"`
	OperatingProfit    *float64 `json:"operating_profit"`
	NetIncome          *float64 `json:"net_income"`
	TotalAssets        *float64 `json:"total_assets"`
	TotalLiabilities   *float64 `json:"total_liabilities"`
	TotalEquity        *float64 `json:"total_equity"`
	CurrentAssets      *float64 `json:"current_assets"`
	CurrentLiabilities *float64 `json:"current_liabilities"`
	OperatingCashFlow  *float64 `json:"operating_cash_flow"`
	InvestingCashFlow  *float64 `json:"investing_cash_flow"`
}

// Ratios is the derived ratio set. Percent ratios carry two decimals.
type Ratios struct {
	PER *float64 `json:"per"`
	PBR *float64 `json:"pbr"`
	EPS *float64 `json:"eps"`
	BPS *float64 `json:"bps"`

	ROE             *float64 `json:"roe"`
	ROA             *float64 `json:"roa"`
	OperatingMargin *float64 `json:"operating_margin"`
	NetMargin       *float64 `json:"net_margin"`

	DebtRatio    *float64 `json:"debt_ratio"`
	CurrentRatio *float64 `json:"current_ratio"`

	RevenueGrowth         *float64 `json:"revenue_growth"`
	OperatingProfitGrowth *float64 `json:"operating_profit_growth"`

	FCF       *float64 `json:"fcf"`
	FCFMargin *float64 `json:"fcf_margin"`
}

// CalculateRatios derives the ratio set from the current-year statements,
// the prior year (for growth rates, may be nil), market cap and share
// count. Market cap and share count are optional like every statement
// item: when absent the valuation ratios come back nil rather than zero.
// Returns nil when the current statements are absent.
func CalculateRatios(current, previous *Financials, marketCap, sharesOutstanding *float64) *Ratios {
	if current == nil {
		log.Warn().Msg("fundamental: no statements, ratios unavailable")
		return nil
	}

	ratios := &Ratios{
		PER: safeDiv(marketCap, current.NetIncome),
		PBR: safeDiv(marketCap, current.TotalEquity),
		EPS: safeDiv(current.NetIncome, sharesOutstanding),
		BPS: safeDiv(current.TotalEquity, sharesOutstanding),

		ROE:             safePct(current.NetIncome, current.TotalEquity),
		ROA:             safePct(current.NetIncome, current.TotalAssets),
		OperatingMargin: safePct(current.OperatingProfit, current.Revenue),
		NetMargin:       safePct(current.NetIncome, current.Revenue),

		DebtRatio:    safePct(current.TotalLiabilities, current.TotalEquity),
		CurrentRatio: safePct(current.CurrentAssets, current.CurrentLiabilities),
	}

	if previous != nil {
		ratios.RevenueGrowth = growthPct(current.Revenue, previous.Revenue)
		ratios.OperatingProfitGrowth = growthPct(current.OperatingProfit, previous.OperatingProfit)
	}

	if current.OperatingCashFlow != nil && current.InvestingCashFlow != nil {
		fcf := *current.OperatingCashFlow + *current.InvestingCashFlow
		ratios.FCF = &fcf
		ratios.FCFMargin = safePct(&fcf, current.Revenue)
	}

	return ratios
}

// safeDiv divides with two-decimal rounding; nil on a missing or zero
// denominator.
func safeDiv(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil || *denominator == 0 {
		return nil
	}
	v := math.Round(*numerator / *denominator * 100) / 100
	return &v
}

// safePct is safeDiv expressed as a percentage.
func safePct(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil || *denominator == 0 {
		return nil
	}
	v := math.Round(*numerator / *denominator * 10000) / 100
	return &v
}

// growthPct is the year-over-year change relative to the prior magnitude,
// so a swing from a loss is still signed sensibly.
func growthPct(current, previous *float64) *float64 {
	if current == nil || previous == nil || *previous == 0 {
		return nil
	}
	delta := *current - *previous
	base := math.Abs(*previous)
	v := math.Round(delta/base*10000) / 100
	return &v
}
