package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	id                BIGSERIAL PRIMARY KEY,
	code              TEXT NOT NULL,
	config            JSONB NOT NULL,
	initial_capital   DOUBLE PRECISION NOT NULL,
	final_value       DOUBLE PRECISION NOT NULL,
	total_return      DOUBLE PRECISION NOT NULL,
	annualized_return DOUBLE PRECISION NOT NULL,
	sharpe_ratio      DOUBLE PRECISION NOT NULL,
	max_drawdown      DOUBLE PRECISION NOT NULL,
	win_rate          DOUBLE PRECISION NOT NULL,
	total_trades      INTEGER NOT NULL,
	verdict           TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_backtest_runs_code ON backtest_runs (code, created_at DESC);

CREATE TABLE IF NOT EXISTS advisory_decisions (
	id                UUID PRIMARY KEY,
	code              TEXT NOT NULL,
	side              TEXT NOT NULL,
	approved          BOOLEAN NOT NULL,
	confidence        DOUBLE PRECISION,
	fundamental_score INTEGER,
	risk_score        DOUBLE PRECISION NOT NULL,
	regime            TEXT NOT NULL,
	position_size     DOUBLE PRECISION,
	reason_code       TEXT NOT NULL,
	reason            TEXT NOT NULL,
	reasons           JSONB NOT NULL DEFAULT '[]',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_advisory_decisions_code ON advisory_decisions (code, created_at DESC);
`

// EnsureSchema creates the advisor tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Connect opens and pings a PostgreSQL connection.
func Connect(dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	return db, nil
}
