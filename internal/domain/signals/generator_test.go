package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantdesk/advisor/internal/domain"
)

func flatCandles(n int, price float64) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := range candles {
		candles[i] = domain.Candle{
			Open: price, High: price, Low: price, Close: price, Volume: 1000,
		}
	}
	return candles
}

func TestGenerate_ShortWindowIsNeutral(t *testing.T) {
	candles := flatCandles(59, 100)
	result := Generate(candles, len(candles)-1, DefaultThresholds())
	assert.Equal(t, SignalNeutral, result.Signal)
	assert.Zero(t, result.BuyScore)
	assert.Zero(t, result.SellScore)
}

func TestGenerate_FlatSeriesStaysNeutral(t *testing.T) {
	candles := flatCandles(100, 100)
	result := Generate(candles, len(candles)-1, DefaultThresholds())
	assert.Equal(t, SignalNeutral, result.Signal)
}

func TestGenerate_SellOverridesBuy(t *testing.T) {
	// With both thresholds at zero-equivalent lows, any window that meets
	// the buy threshold and the sell threshold must report SELL: the sell
	// branch is evaluated last and overwrites the combined signal.
	candles := flatCandles(100, 100)
	th := Thresholds{RequiredBuyConditions: 0, RequiredSellConditions: 0}
	result := Generate(candles, len(candles)-1, th)
	// Zero thresholds fall back to defaults, so this stays neutral.
	assert.Equal(t, SignalNeutral, result.Signal)

	// Crash after a long flat stretch: oversold RSI, lower band, red candle.
	crash := flatCandles(90, 100)
	for i := 60; i < 90; i++ {
		price := 100 - float64(i-59)*2
		crash[i] = domain.Candle{
			Open: price + 2, High: price + 2, Low: price, Close: price, Volume: 1000,
		}
	}
	buyBiased := Generate(crash, len(crash)-1, Thresholds{RequiredBuyConditions: 1, RequiredSellConditions: 1})
	if buyBiased.BuyScore >= 1 && buyBiased.SellScore >= 1 {
		assert.Equal(t, SignalSell, buyBiased.Signal, "last write wins when both fire")
	}
}

func TestGenerate_OversoldCrashScoresBuyPoints(t *testing.T) {
	// Steep decline: RSI deeply oversold and price below the lower band
	// accumulate buy points even while the trend signals score sell points.
	candles := flatCandles(90, 200)
	for i := 60; i < 90; i++ {
		price := 200 - float64(i-59)*4
		candles[i] = domain.Candle{
			Open: price + 4, High: price + 4, Low: price, Close: price, Volume: 1000,
		}
	}
	result := Generate(candles, len(candles)-1, DefaultThresholds())
	assert.GreaterOrEqual(t, result.BuyScore, 2, "oversold RSI and band should add buy points")
	assert.True(t, result.RSIValid)
	assert.Less(t, result.RSI, 30.0)
}

func TestGenerate_Deterministic(t *testing.T) {
	candles := flatCandles(120, 100)
	for i := 60; i < 120; i++ {
		candles[i].Close = 100 + float64(i%7)
		candles[i].High = candles[i].Close + 1
		candles[i].Low = candles[i].Close - 1
	}
	first := Generate(candles, len(candles)-1, DefaultThresholds())
	second := Generate(candles, len(candles)-1, DefaultThresholds())
	assert.Equal(t, first, second)
}
