package backtest

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/domain"
)

// Walk-forward verdicts.
const (
	VerdictValid   = "VALID"
	VerdictOverfit = "OVERFIT"
	VerdictInvalid = "INVALID"
)

// minWalkForwardBars is the smallest series a chronological split can
// still backtest meaningfully on both sides.
const minWalkForwardBars = 120

// DefaultSplitRatio is the in-sample share of the series.
const DefaultSplitRatio = 0.7

// SegmentReport describes one side of the walk-forward split.
type SegmentReport struct {
	From        string              `json:"from"`
	To          string              `json:"to"`
	Days        int                 `json:"days"`
	Performance *PerformanceMetrics `json:"performance"`
}

// WalkForwardResult judges whether a strategy's in-sample performance
// survives out-of-sample.
type WalkForwardResult struct {
	InSample    SegmentReport `json:"in_sample"`
	OutOfSample SegmentReport `json:"out_of_sample"`
	Verdict     string        `json:"verdict"`
	Degradation float64       `json:"degradation"` // percent, 0 when in-sample return is 0
}

// WalkForward splits candles chronologically at splitRatio, backtests both
// segments with the identical configuration, and judges overfitting.
// Requires at least 120 bars.
func WalkForward(candles []domain.Candle, cfg StrategyConfig, splitRatio float64) (*WalkForwardResult, error) {
	if len(candles) < minWalkForwardBars {
		return nil, ErrInsufficientData
	}
	if splitRatio <= 0 || splitRatio >= 1 {
		splitRatio = DefaultSplitRatio
	}

	splitIdx := int(math.Floor(float64(len(candles)) * splitRatio))
	inSample := candles[:splitIdx]
	outOfSample := candles[splitIdx:]

	log.Info().
		Int("in_sample_bars", len(inSample)).
		Int("out_of_sample_bars", len(outOfSample)).
		Float64("split_ratio", splitRatio).
		Msg("walk-forward split")

	isResult, err := Run(inSample, cfg)
	if err != nil {
		return nil, err
	}
	isPerf, err := CalculatePerformance(isResult)
	if err != nil {
		return nil, err
	}
	oosResult, err := Run(outOfSample, cfg)
	if err != nil {
		return nil, err
	}
	oosPerf, err := CalculatePerformance(oosResult)
	if err != nil {
		return nil, err
	}

	degradation := 0.0
	if isPerf.TotalReturn != 0 {
		degradation = math.Round((isPerf.TotalReturn - oosPerf.TotalReturn) / math.Abs(isPerf.TotalReturn) * 100)
	}

	verdict := VerdictInvalid
	switch {
	case isPerf.TotalReturn > 0 && degradation > 50:
		verdict = VerdictOverfit
	case oosPerf.TotalReturn > 0 && oosPerf.SharpeRatio > 0:
		verdict = VerdictValid
	}

	log.Info().
		Str("verdict", verdict).
		Float64("in_sample_return", isPerf.TotalReturn).
		Float64("out_of_sample_return", oosPerf.TotalReturn).
		Float64("degradation", degradation).
		Msg("walk-forward validation")

	return &WalkForwardResult{
		InSample: SegmentReport{
			From: inSample[0].Date, To: inSample[len(inSample)-1].Date,
			Days: len(inSample), Performance: isPerf,
		},
		OutOfSample: SegmentReport{
			From: outOfSample[0].Date, To: outOfSample[len(outOfSample)-1].Date,
			Days: len(outOfSample), Performance: oosPerf,
		},
		Verdict:     verdict,
		Degradation: degradation,
	}, nil
}
