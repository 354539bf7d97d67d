// Package signals converts indicator readings on a candle window into a
// weighted buy/sell score and a discrete trading signal.
package signals

import (
	"github.com/quantdesk/advisor/internal/domain"
	"github.com/quantdesk/advisor/internal/domain/indicators"
)

// Signal values.
const (
	SignalNeutral = "NEUTRAL"
	SignalBuy     = "BUY"
	SignalSell    = "SELL"
)

// Default confluence thresholds.
const (
	DefaultRequiredBuyConditions  = 5
	DefaultRequiredSellConditions = 3

	// minWindow is the number of closes needed before any signal fires;
	// shorter windows score zero and stay NEUTRAL.
	minWindow = 60
)

// Result carries the accumulated scores, the combined signal, and the raw
// indicator readings that produced them.
type Result struct {
	BuyScore  int                  `json:"buy_score"`
	SellScore int                  `json:"sell_score"`
	Signal    string               `json:"signal"`
	RSI       float64              `json:"rsi"`
	RSIValid  bool                 `json:"rsi_valid"`
	MACDTrend string               `json:"macd_trend"`
	ATR       indicators.ATRResult `json:"atr"`
}

// Thresholds configures the confluence counts a BUY/SELL signal requires.
type Thresholds struct {
	RequiredBuyConditions  int
	RequiredSellConditions int
}

// DefaultThresholds returns the stock confluence configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RequiredBuyConditions:  DefaultRequiredBuyConditions,
		RequiredSellConditions: DefaultRequiredSellConditions,
	}
}

// Generate evaluates the trailing window candles[:idx+1] and scores each
// indicator condition with its fixed point weight. SELL is evaluated after
// BUY on purpose: when both thresholds are met the combined signal reports
// SELL, and the backtest engine relies on that exit-over-entry precedence.
func Generate(candles []domain.Candle, idx int, th Thresholds) Result {
	if th.RequiredBuyConditions <= 0 {
		th.RequiredBuyConditions = DefaultRequiredBuyConditions
	}
	if th.RequiredSellConditions <= 0 {
		th.RequiredSellConditions = DefaultRequiredSellConditions
	}

	window := candles[:idx+1]
	closes := domain.Closes(window)
	if len(closes) < minWindow {
		return Result{Signal: SignalNeutral}
	}
	current := closes[len(closes)-1]

	rsi, rsiOK := indicators.RSI(closes, 14)
	macd := indicators.MACD(closes, 12, 26, 9)
	bb := indicators.Bollinger(closes, 20, 2)
	stoch := indicators.Stochastic(window, 14, 3)
	atr := indicators.ATR(window, 14)
	vol := indicators.VolumeAnalysis(window, 20)
	ma5, ok5 := indicators.SMA(closes, 5)
	ma20, ok20 := indicators.SMA(closes, 20)
	ma60, ok60 := indicators.SMA(closes, 60)

	buyScore, sellScore := 0, 0

	if rsiOK {
		switch {
		case rsi < 30:
			buyScore += 2
		case rsi < 40:
			buyScore++
		}
		switch {
		case rsi > 75:
			sellScore += 2
		case rsi > 60:
			sellScore++
		}
	}

	switch {
	case macd.Crossover == indicators.CrossGolden:
		buyScore += 2
	case macd.Trend == indicators.TrendBullish:
		buyScore++
	}
	switch {
	case macd.Crossover == indicators.CrossDead:
		sellScore += 2
	case macd.Trend == indicators.TrendBearish:
		sellScore++
	}

	switch bb.Signal {
	case indicators.BandOversold:
		buyScore += 2
	case indicators.BandLowerZone:
		buyScore++
	case indicators.BandOverbought:
		sellScore += 2
	case indicators.BandUpperZone:
		sellScore++
	}

	switch vol.Signal {
	case indicators.VolumeStrongBuying:
		buyScore += 2
	case indicators.VolumeBuyingPressure:
		buyScore++
	case indicators.VolumeStrongSelling:
		sellScore += 2
	case indicators.VolumeSellingPressure:
		sellScore++
	}

	if ok5 && ok20 && ok60 && ma5 > ma20 && ma20 > ma60 {
		buyScore++
	}
	if ok5 && ok20 {
		if current > ma5 && current > ma20 {
			buyScore++
		} else if current < ma5 && current < ma20 {
			sellScore++
		}
	}

	if stoch.Signal == indicators.BandOversold {
		buyScore++
	}
	if stoch.Crossover == indicators.StochBullishCross {
		buyScore++
	}
	if stoch.Signal == indicators.BandOverbought {
		sellScore++
	}
	if stoch.Crossover == indicators.StochBearishCross {
		sellScore++
	}

	signal := SignalNeutral
	if buyScore >= th.RequiredBuyConditions {
		signal = SignalBuy
	}
	if sellScore >= th.RequiredSellConditions {
		signal = SignalSell
	}

	return Result{
		BuyScore:  buyScore,
		SellScore: sellScore,
		Signal:    signal,
		RSI:       rsi,
		RSIValid:  rsiOK,
		MACDTrend: macd.Trend,
		ATR:       atr,
	}
}
