// Package indicators implements the pure technical indicator functions used
// by signal generation and position sizing. Every function returns an
// invalid/zero result instead of an error when the window is too short;
// insufficient data is an expected, frequent condition here.
package indicators

import (
	"math"

	"github.com/quantdesk/advisor/internal/domain"
)

// SMA returns the simple moving average of the trailing period, or 0 with
// ok=false when the series is too short.
func SMA(values []float64, period int) (float64, bool) {
	if len(values) < period || period <= 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// EMA returns the exponential moving average seeded with an SMA of the
// first period values.
func EMA(values []float64, period int) (float64, bool) {
	series := emaSeries(values, period)
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

func emaSeries(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}
	k := 2.0 / float64(period+1)
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	series := []float64{seed / float64(period)}
	for i := period; i < len(values); i++ {
		series = append(series, values[i]*k+series[len(series)-1]*(1-k))
	}
	return series
}

// RSI computes the relative strength index over the trailing period deltas.
// Needs period+1 points. When the average loss is zero RSI is 100.
func RSI(closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}
	gains, losses := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, true
	}
	avgGain := gains / float64(period)
	return 100 - (100 / (1 + avgGain/avgLoss)), true
}

// MACD crossover and trend labels.
const (
	TrendNeutral = "NEUTRAL"
	TrendBullish = "BULLISH"
	TrendBearish = "BEARISH"

	CrossGolden = "GOLDEN_CROSS"
	CrossDead   = "DEAD_CROSS"
	CrossNone   = ""
)

// MACDResult holds the MACD line, signal line, and their relationship.
type MACDResult struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	Trend     string  `json:"trend"`
	Crossover string  `json:"crossover"`
	Valid     bool    `json:"valid"`
}

// MACD computes the fast/slow EMA difference with a signal EMA and labels
// the current-vs-prior relationship. Needs slow+signal points.
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	if len(closes) < slow+signal {
		return MACDResult{Trend: TrendNeutral}
	}
	emaFast := emaSeries(closes, fast)
	emaSlow := emaSeries(closes, slow)
	offset := slow - fast
	macdLine := make([]float64, len(emaSlow))
	for i := range emaSlow {
		macdLine[i] = emaFast[i+offset] - emaSlow[i]
	}
	signalLine := emaSeries(macdLine, signal)
	if len(macdLine) < 2 || len(signalLine) < 2 {
		return MACDResult{Trend: TrendNeutral}
	}

	m := macdLine[len(macdLine)-1]
	s := signalLine[len(signalLine)-1]
	pm := macdLine[len(macdLine)-2]
	ps := signalLine[len(signalLine)-2]

	result := MACDResult{MACD: m, Signal: s, Histogram: m - s, Trend: TrendNeutral, Valid: true}
	switch {
	case pm <= ps && m > s:
		result.Trend = TrendBullish
		result.Crossover = CrossGolden
	case pm >= ps && m < s:
		result.Trend = TrendBearish
		result.Crossover = CrossDead
	case m > s:
		result.Trend = TrendBullish
	case m < s:
		result.Trend = TrendBearish
	}
	return result
}

// Bollinger %B zone labels.
const (
	BandNeutral    = "NEUTRAL"
	BandOverbought = "OVERBOUGHT"
	BandOversold   = "OVERSOLD"
	BandUpperZone  = "UPPER_ZONE"
	BandLowerZone  = "LOWER_ZONE"
)

// BollingerResult holds the band values and the %B zone classification.
type BollingerResult struct {
	Upper    float64 `json:"upper"`
	Middle   float64 `json:"middle"`
	Lower    float64 `json:"lower"`
	PercentB float64 `json:"percent_b"`
	Signal   string  `json:"signal"`
	Valid    bool    `json:"valid"`
}

// Bollinger computes SMA midline bands at stddev*mult and classifies the
// last close by %B.
func Bollinger(closes []float64, period int, mult float64) BollingerResult {
	middle, ok := SMA(closes, period)
	if !ok {
		return BollingerResult{Signal: BandNeutral}
	}
	variance := 0.0
	for _, v := range closes[len(closes)-period:] {
		variance += (v - middle) * (v - middle)
	}
	stddev := math.Sqrt(variance / float64(period))
	upper := middle + stddev*mult
	lower := middle - stddev*mult
	current := closes[len(closes)-1]

	percentB := 0.0
	if upper != lower {
		percentB = (current - lower) / (upper - lower)
	}
	signal := BandNeutral
	switch {
	case percentB >= 1:
		signal = BandOverbought
	case percentB <= 0:
		signal = BandOversold
	case percentB > 0.8:
		signal = BandUpperZone
	case percentB < 0.2:
		signal = BandLowerZone
	}
	return BollingerResult{Upper: upper, Middle: middle, Lower: lower, PercentB: percentB, Signal: signal, Valid: true}
}

// Stochastic crossover labels.
const (
	StochBullishCross = "BULLISH_CROSS"
	StochBearishCross = "BEARISH_CROSS"
)

// StochasticResult holds %K/%D and the oversold/overbought classification.
type StochasticResult struct {
	K         float64 `json:"k"`
	D         float64 `json:"d"`
	Signal    string  `json:"signal"`
	Crossover string  `json:"crossover"`
	Valid     bool    `json:"valid"`
}

// Stochastic computes %K over a rolling high/low window and %D as its SMA.
// A flat window (high == low) resolves %K to 50.
func Stochastic(candles []domain.Candle, kPeriod, dPeriod int) StochasticResult {
	if len(candles) < kPeriod+dPeriod {
		return StochasticResult{Signal: BandNeutral}
	}
	kValues := make([]float64, 0, len(candles)-kPeriod+1)
	for i := kPeriod - 1; i < len(candles); i++ {
		hi := candles[i-kPeriod+1].High
		lo := candles[i-kPeriod+1].Low
		for _, c := range candles[i-kPeriod+1 : i+1] {
			hi = math.Max(hi, c.High)
			lo = math.Min(lo, c.Low)
		}
		if hi == lo {
			kValues = append(kValues, 50)
		} else {
			kValues = append(kValues, (candles[i].Close-lo)/(hi-lo)*100)
		}
	}
	dValues := make([]float64, 0, len(kValues)-dPeriod+1)
	for i := dPeriod - 1; i < len(kValues); i++ {
		sum := 0.0
		for _, v := range kValues[i-dPeriod+1 : i+1] {
			sum += v
		}
		dValues = append(dValues, sum/float64(dPeriod))
	}
	if len(kValues) < 2 || len(dValues) < 2 {
		return StochasticResult{Signal: BandNeutral}
	}

	k := kValues[len(kValues)-1]
	d := dValues[len(dValues)-1]
	pk := kValues[len(kValues)-2]
	pd := dValues[len(dValues)-2]

	result := StochasticResult{K: k, D: d, Signal: BandNeutral, Valid: true}
	if k < 20 {
		result.Signal = BandOversold
	} else if k > 80 {
		result.Signal = BandOverbought
	}
	if pk <= pd && k > d && k < 30 {
		result.Crossover = StochBullishCross
	} else if pk >= pd && k < d && k > 70 {
		result.Crossover = StochBearishCross
	}
	return result
}

// ATRResult holds the average true range in price units and as a percent
// of the last close.
type ATRResult struct {
	ATR        float64 `json:"atr"`
	ATRPercent float64 `json:"atr_percent"`
	Valid      bool    `json:"valid"`
}

// ATR averages the last period true ranges. Needs period+1 candles.
func ATR(candles []domain.Candle, period int) ATRResult {
	if len(candles) < period+1 {
		return ATRResult{}
	}
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		trs = append(trs, math.Max(hl, math.Max(hc, lc)))
	}
	sum := 0.0
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	atr := sum / float64(period)
	last := candles[len(candles)-1].Close
	result := ATRResult{ATR: atr, Valid: true}
	if last > 0 {
		result.ATRPercent = atr / last * 100
	}
	return result
}

// Volume pressure labels.
const (
	VolumeStrongBuying    = "STRONG_BUYING"
	VolumeStrongSelling   = "STRONG_SELLING"
	VolumeBuyingPressure  = "BUYING_PRESSURE"
	VolumeSellingPressure = "SELLING_PRESSURE"
)

// VolumeResult holds the current/average volume ratio and its pressure label.
type VolumeResult struct {
	Ratio  float64 `json:"ratio"`
	Signal string  `json:"signal"`
	Valid  bool    `json:"valid"`
}

// VolumeAnalysis compares the last bar's volume to the trailing average
// (excluding the last bar) and combines the ratio with candle color.
func VolumeAnalysis(candles []domain.Candle, period int) VolumeResult {
	if len(candles) < period {
		return VolumeResult{Signal: BandNeutral}
	}
	vols := make([]float64, len(candles))
	for i, c := range candles {
		vols[i] = c.Volume
	}
	avg, ok := SMA(vols[:len(vols)-1], period)
	ratio := 1.0
	if ok && avg > 0 {
		ratio = vols[len(vols)-1] / avg
	}
	today := candles[len(candles)-1]
	isGreen := today.Close > today.Open

	signal := BandNeutral
	switch {
	case ratio >= 2.0 && isGreen:
		signal = VolumeStrongBuying
	case ratio >= 2.0:
		signal = VolumeStrongSelling
	case ratio >= 1.5 && isGreen:
		signal = VolumeBuyingPressure
	case ratio >= 1.5:
		signal = VolumeSellingPressure
	}
	return VolumeResult{Ratio: ratio, Signal: signal, Valid: true}
}
