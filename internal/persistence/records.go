package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/quantdesk/advisor/internal/advisory"
	"github.com/quantdesk/advisor/internal/backtest"
)

// FromDecision converts an advisory decision into its storage record.
func FromDecision(d advisory.Decision) (*DecisionRecord, error) {
	reasons, err := json.Marshal(d.Reasons)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal decision reasons: %w", err)
	}
	return &DecisionRecord{
		ID:               d.ID,
		Code:             d.Code,
		Side:             d.Side,
		Approved:         d.Approved,
		Confidence:       d.Confidence,
		FundamentalScore: d.FundamentalScore,
		RiskScore:        d.RiskScore,
		Regime:           d.Regime,
		PositionSize:     d.PositionSize,
		ReasonCode:       d.ReasonCode,
		Reason:           d.Reason,
		Reasons:          reasons,
	}, nil
}

// FromBacktest converts a simulation plus its metrics into a stored run.
// verdict may be empty when no walk-forward validation ran.
func FromBacktest(code string, cfg backtest.StrategyConfig, metrics backtest.PerformanceMetrics, verdict string) (*BacktestRun, error) {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal strategy config: %w", err)
	}
	run := &BacktestRun{
		Code:             code,
		Config:           configJSON,
		InitialCapital:   metrics.InitialCapital,
		FinalValue:       metrics.FinalValue,
		TotalReturn:      metrics.TotalReturn,
		AnnualizedReturn: metrics.AnnualizedReturn,
		SharpeRatio:      metrics.SharpeRatio,
		MaxDrawdown:      metrics.MaxDrawdown,
		WinRate:          metrics.WinRate,
		TotalTrades:      metrics.TotalTrades,
	}
	if verdict != "" {
		run.Verdict = &verdict
	}
	return run, nil
}
