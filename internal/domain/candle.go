package domain

import "math"

// Candle represents one daily OHLCV bar. Series are ordered ascending by
// date with unique dates; gaps are tolerated but never corrected.
type Candle struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Closes extracts the close series from a candle window.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// DailyReturns computes simple day-over-day returns from a close series.
// Entries with a non-positive previous close are skipped.
func DailyReturns(closes []float64) []float64 {
	returns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] > 0 {
			returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
		}
	}
	return returns
}

// Holding is a caller-owned portfolio position; the engine only reads it.
type Holding struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
	CurrentPrice float64 `json:"current_price"`
}

// Value returns the current mark-to-market value of the holding.
func (h Holding) Value() float64 {
	return h.Quantity * h.CurrentPrice
}

// Round2 rounds to two decimal places, the presentation convention used
// across all percentage and money outputs.
func Round2(v float64) float64 {
	return roundTo(v, 100)
}

// Round3 rounds to three decimal places (correlation coefficients).
func Round3(v float64) float64 {
	return roundTo(v, 1000)
}

func roundTo(v float64, scale float64) float64 {
	return math.Round(v*scale) / scale
}
