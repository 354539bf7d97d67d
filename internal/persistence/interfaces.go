// Package persistence defines the storage records and repository
// interfaces for backtest runs and advisory decisions. PostgreSQL
// implementations live in the postgres subpackage.
package persistence

import (
	"context"
	"time"
)

// BacktestRun is one stored simulation with its headline metrics.
type BacktestRun struct {
	ID               int64     `json:"id" db:"id"`
	Code             string    `json:"code" db:"code"`
	Config           []byte    `json:"config" db:"config"` // strategy config as JSON
	InitialCapital   float64   `json:"initial_capital" db:"initial_capital"`
	FinalValue       float64   `json:"final_value" db:"final_value"`
	TotalReturn      float64   `json:"total_return" db:"total_return"`
	AnnualizedReturn float64   `json:"annualized_return" db:"annualized_return"`
	SharpeRatio      float64   `json:"sharpe_ratio" db:"sharpe_ratio"`
	MaxDrawdown      float64   `json:"max_drawdown" db:"max_drawdown"`
	WinRate          float64   `json:"win_rate" db:"win_rate"`
	TotalTrades      int       `json:"total_trades" db:"total_trades"`
	Verdict          *string   `json:"verdict,omitempty" db:"verdict"` // walk-forward verdict when validated
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// DecisionRecord is one stored advisory decision, keyed by its UUID.
type DecisionRecord struct {
	ID               string    `json:"id" db:"id"`
	Code             string    `json:"code" db:"code"`
	Side             string    `json:"side" db:"side"`
	Approved         bool      `json:"approved" db:"approved"`
	Confidence       *float64  `json:"confidence,omitempty" db:"confidence"`
	FundamentalScore *int      `json:"fundamental_score,omitempty" db:"fundamental_score"`
	RiskScore        float64   `json:"risk_score" db:"risk_score"`
	Regime           string    `json:"regime" db:"regime"`
	PositionSize     *float64  `json:"position_size,omitempty" db:"position_size"`
	ReasonCode       string    `json:"reason_code" db:"reason_code"`
	Reason           string    `json:"reason" db:"reason"`
	Reasons          []byte    `json:"reasons" db:"reasons"` // audit trail as JSON array
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// BacktestRepo stores and retrieves backtest runs.
type BacktestRepo interface {
	Save(ctx context.Context, run *BacktestRun) error
	Recent(ctx context.Context, code string, limit int) ([]BacktestRun, error)
}

// DecisionRepo stores and retrieves advisory decisions.
type DecisionRepo interface {
	Save(ctx context.Context, record *DecisionRecord) error
	Recent(ctx context.Context, code string, limit int) ([]DecisionRecord, error)
}
