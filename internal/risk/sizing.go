package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/domain"
	"github.com/quantdesk/advisor/internal/domain/indicators"
)

// Sizing methods.
const (
	MethodDefault   = "DEFAULT"
	MethodHalfKelly = "HALF_KELLY"
	MethodATRBased  = "ATR_BASED"
)

const (
	// Caps applied to the final size, as multiples of the default buy amount.
	minSizeFactor = 0.5
	maxSizeFactor = 2.0

	// atrRiskFraction of the account balance is risked per one ATR of
	// price movement.
	atrRiskFraction = 0.02

	// minATRCandles is the smallest window the ATR estimator accepts.
	minATRCandles = 16
)

// SizingInputs feeds the position sizer. WinRate and AvgWinLossRatio come
// from historical performance; nil means the Kelly estimator is skipped.
type SizingInputs struct {
	AccountBalance   float64
	DefaultBuyAmount float64
	WinRate          *float64
	AvgWinLossRatio  *float64
	Candles          []domain.Candle
	CurrentPrice     float64
}

// KellyEstimate is the Half-Kelly sub-result.
type KellyEstimate struct {
	Size     float64 `json:"size"`
	Fraction float64 `json:"fraction"`
}

// ATREstimate is the ATR-risk sub-result.
type ATREstimate struct {
	Size   float64 `json:"size"`
	ATR    float64 `json:"atr"`
	Shares int64   `json:"shares"`
}

// SizingLimits records the floor/ceiling caps applied last.
type SizingLimits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PositionSizingResult is the conservative sizing recommendation.
type PositionSizingResult struct {
	PositionSize float64        `json:"position_size"`
	Method       string         `json:"method"`
	Kelly        *KellyEstimate `json:"kelly,omitempty"`
	ATRBased     *ATREstimate   `json:"atr_based,omitempty"`
	Limits       SizingLimits   `json:"limits"`
	Reasons      []string       `json:"reasons"`
}

// CalculatePositionSize combines a Half-Kelly estimate and an ATR-risk
// estimate, adopts the smaller of the two, and clamps the result to
// [0.5x, 2.0x] of the default buy amount. When neither estimator yields a
// usable value the raw default is used.
func CalculatePositionSize(in SizingInputs) PositionSizingResult {
	if in.DefaultBuyAmount == 0 {
		in.DefaultBuyAmount = 500_000
	}
	minSize := math.Round(in.DefaultBuyAmount * minSizeFactor)
	maxSize := math.Round(in.DefaultBuyAmount * maxSizeFactor)
	reasons := []string{}

	// Half-Kelly: f* = (b*p - q) / b, halved for reduced variance.
	var kelly *KellyEstimate
	if in.WinRate != nil && in.AvgWinLossRatio != nil && *in.AvgWinLossRatio > 0 {
		b := *in.AvgWinLossRatio
		p := *in.WinRate
		q := 1 - p
		fullKelly := (b*p - q) / b
		halfKelly := fullKelly * 0.5
		if halfKelly > 0 {
			kelly = &KellyEstimate{
				Size:     math.Round(in.AccountBalance * halfKelly),
				Fraction: halfKelly,
			}
			reasons = append(reasons, fmt.Sprintf("half-kelly %.1f%% = %.0f", halfKelly*100, kelly.Size))
		} else {
			reasons = append(reasons, fmt.Sprintf("negative kelly (%.1f%%), estimate discarded", fullKelly*100))
		}
	}

	// ATR-based: risk a fixed fraction of the balance per one ATR.
	var atrBased *ATREstimate
	if len(in.Candles) >= minATRCandles && in.CurrentPrice > 0 {
		atr := indicators.ATR(in.Candles, 14)
		if atr.Valid && atr.ATR > 0 {
			riskAmount := in.AccountBalance * atrRiskFraction
			shares := int64(math.Floor(riskAmount / atr.ATR))
			atrBased = &ATREstimate{
				Size:   float64(shares) * in.CurrentPrice,
				ATR:    atr.ATR,
				Shares: shares,
			}
			reasons = append(reasons, fmt.Sprintf("atr %.0f -> %d shares = %.0f", atr.ATR, shares, atrBased.Size))
		}
	}

	// Adopt the smaller (more conservative) usable estimate.
	positionSize := 0.0
	method := MethodDefault
	if kelly != nil && kelly.Size > 0 {
		positionSize = kelly.Size
		method = MethodHalfKelly
	}
	if atrBased != nil && atrBased.Size > 0 && (positionSize == 0 || atrBased.Size < positionSize) {
		positionSize = atrBased.Size
		method = MethodATRBased
	}
	if positionSize == 0 {
		positionSize = in.DefaultBuyAmount
		method = MethodDefault
		reasons = append(reasons, "no usable estimate, falling back to default buy amount")
	}

	if positionSize < minSize {
		positionSize = minSize
		reasons = append(reasons, fmt.Sprintf("floor applied: %.0f", minSize))
	}
	if positionSize > maxSize {
		positionSize = maxSize
		reasons = append(reasons, fmt.Sprintf("ceiling applied: %.0f", maxSize))
	}
	positionSize = math.Round(positionSize)

	log.Info().
		Float64("position_size", positionSize).
		Str("method", method).
		Msg("position sizing")

	return PositionSizingResult{
		PositionSize: positionSize,
		Method:       method,
		Kelly:        kelly,
		ATRBased:     atrBased,
		Limits:       SizingLimits{Min: minSize, Max: maxSize},
		Reasons:      reasons,
	}
}
