// Package postgres implements the persistence repositories on
// PostgreSQL through sqlx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/quantdesk/advisor/internal/persistence"
)

const defaultQueryTimeout = 5 * time.Second

// backtestRepo implements persistence.BacktestRepo.
type backtestRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewBacktestRepo creates a PostgreSQL backtest repository.
func NewBacktestRepo(db *sqlx.DB, timeout time.Duration) persistence.BacktestRepo {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &backtestRepo{db: db, timeout: timeout}
}

func (r *backtestRepo) Save(ctx context.Context, run *persistence.BacktestRun) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO backtest_runs
		(code, config, initial_capital, final_value, total_return,
		 annualized_return, sharpe_ratio, max_drawdown, win_rate,
		 total_trades, verdict)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		run.Code, run.Config, run.InitialCapital, run.FinalValue,
		run.TotalReturn, run.AnnualizedReturn, run.SharpeRatio,
		run.MaxDrawdown, run.WinRate, run.TotalTrades, run.Verdict).
		Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save backtest run: %w", err)
	}
	return nil
}

func (r *backtestRepo) Recent(ctx context.Context, code string, limit int) ([]persistence.BacktestRun, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, code, config, initial_capital, final_value, total_return,
		       annualized_return, sharpe_ratio, max_drawdown, win_rate,
		       total_trades, verdict, created_at
		FROM backtest_runs
		WHERE code = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var runs []persistence.BacktestRun
	if err := r.db.SelectContext(ctx, &runs, query, code, limit); err != nil {
		return nil, fmt.Errorf("failed to load backtest runs: %w", err)
	}
	return runs, nil
}
