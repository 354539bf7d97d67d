package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/quantdesk/advisor/internal/persistence"
)

// decisionRepo implements persistence.DecisionRepo.
type decisionRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewDecisionRepo creates a PostgreSQL advisory-decision repository.
func NewDecisionRepo(db *sqlx.DB, timeout time.Duration) persistence.DecisionRepo {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &decisionRepo{db: db, timeout: timeout}
}

func (r *decisionRepo) Save(ctx context.Context, record *persistence.DecisionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if record.ID == "" {
		return fmt.Errorf("decision record requires an id")
	}

	query := `
		INSERT INTO advisory_decisions
		(id, code, side, approved, confidence, fundamental_score,
		 risk_score, regime, position_size, reason_code, reason, reasons)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		record.ID, record.Code, record.Side, record.Approved,
		record.Confidence, record.FundamentalScore, record.RiskScore,
		record.Regime, record.PositionSize, record.ReasonCode,
		record.Reason, record.Reasons).
		Scan(&record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save advisory decision: %w", err)
	}
	return nil
}

func (r *decisionRepo) Recent(ctx context.Context, code string, limit int) ([]persistence.DecisionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, code, side, approved, confidence, fundamental_score,
		       risk_score, regime, position_size, reason_code, reason,
		       reasons, created_at
		FROM advisory_decisions
		WHERE code = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var records []persistence.DecisionRecord
	if err := r.db.SelectContext(ctx, &records, query, code, limit); err != nil {
		return nil, fmt.Errorf("failed to load advisory decisions: %w", err)
	}
	return records, nil
}
