// Package advisory fuses fundamental, technical and risk readings into a
// single buy or sell decision with a complete audit trail. Buying is
// fail-closed: any gate that cannot be verified rejects. Selling is
// fail-open: exits are never blocked, only annotated.
package advisory

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/domain"
	"github.com/quantdesk/advisor/internal/fundamental"
	"github.com/quantdesk/advisor/internal/regime"
	"github.com/quantdesk/advisor/internal/risk"
)

// Machine-readable decision reason codes.
const (
	ReasonApproved               = "APPROVED"
	ReasonRegimeClosed           = "REGIME_CLOSED"
	ReasonFundamentalUnavailable = "FUNDAMENTAL_UNAVAILABLE"
	ReasonFundamentalBelowMin    = "FUNDAMENTAL_BELOW_MIN"
	ReasonConcentrationRisk      = "CONCENTRATION_RISK"
	ReasonConfidenceBelowGate    = "CONFIDENCE_BELOW_GATE"
	ReasonUrgentBypass           = "URGENT_BYPASS"
	ReasonSellApproved           = "SELL_APPROVED"
)

// Sell recommendations after the fundamental annotation pass.
const (
	SellNeutral    = "NEUTRAL"
	SellRecommend  = "SELL"
	SellStrongSell = "STRONG_SELL"
)

// Risk sub-scores assigned per concentration tier.
const (
	riskScoreDefault       = 70.0
	riskScoreDiversified   = 85.0
	riskScoreModerate      = 65.0
	riskScoreConcentrated  = 50.0
	factorRankPenalty      = 20.0
	rejectedConfidenceConc = 20.0
)

// FundamentalScoreSource supplies an externally derived fundamental score.
type FundamentalScoreSource interface {
	Score(code string, marketCap, sharesOutstanding *float64) (fundamental.ScoreResult, error)
}

// CandleSource supplies daily candles for ATR-based sizing.
type CandleSource interface {
	Fetch(code string, lookbackDays int) ([]domain.Candle, error)
}

// FactorRank is one instrument's standing in the latest factor run.
type FactorRank struct {
	Rank           int     `json:"rank"`
	CompositeScore float64 `json:"composite_score"`
}

// FactorRanking is the output of the most recent factor pipeline run.
type FactorRanking struct {
	PerInstrument map[string]FactorRank `json:"per_instrument"`
	TotalRanked   int                   `json:"total_ranked"`
}

// FactorSignalSource exposes the latest factor ranking, nil when no run
// has completed.
type FactorSignalSource interface {
	LatestRanking() (*FactorRanking, error)
}

// Weights control the confidence fusion; they must sum to 1.
type Weights struct {
	Fundamental float64 `yaml:"fundamental" json:"fundamental"`
	Technical   float64 `yaml:"technical" json:"technical"`
	Risk        float64 `yaml:"risk" json:"risk"`
}

// Validate rejects weight sets that do not sum to 1.
func (w Weights) Validate() error {
	sum := w.Fundamental + w.Technical + w.Risk
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("advisory weights sum to %.4f, want 1", sum)
	}
	if w.Fundamental < 0 || w.Technical < 0 || w.Risk < 0 {
		return fmt.Errorf("advisory weights must be non-negative")
	}
	return nil
}

// Config holds the engine's tunables.
type Config struct {
	Weights             Weights `yaml:"weights"`
	MinFundamentalScore int     `yaml:"min_fundamental_score"`
	DefaultBuyAmount    float64 `yaml:"default_buy_amount"`
}

// DefaultConfig returns the stock fusion settings.
func DefaultConfig() Config {
	return Config{
		Weights:             Weights{Fundamental: 0.4, Technical: 0.3, Risk: 0.3},
		MinFundamentalScore: 40,
		DefaultBuyAmount:    500_000,
	}
}

// BuyRequest carries everything the buy pipeline evaluates.
type BuyRequest struct {
	Code              string           `json:"code"`
	Name              string           `json:"name,omitempty"`
	CurrentPrice      float64          `json:"current_price"`
	TechnicalScore    *float64         `json:"technical_score,omitempty"`
	Holdings          []domain.Holding `json:"holdings,omitempty"`
	AccountBalance    float64          `json:"account_balance"`
	MarketCap         *float64         `json:"market_cap,omitempty"`
	SharesOutstanding *float64         `json:"shares_outstanding,omitempty"`
	WinRate           *float64         `json:"win_rate,omitempty"`
	AvgWinLossRatio   *float64         `json:"avg_win_loss_ratio,omitempty"`
}

// SellRequest carries a sell-side consultation.
type SellRequest struct {
	Code         string  `json:"code"`
	CurrentPrice float64 `json:"current_price"`
	AvgPrice     float64 `json:"avg_price"`
	ProfitRate   float64 `json:"profit_rate"`
	Reason       string  `json:"reason,omitempty"`
	Urgent       bool    `json:"urgent"`
}

// Decision is the engine's verdict with its full audit trail.
type Decision struct {
	ID                 string    `json:"id"`
	Code               string    `json:"code"`
	Side               string    `json:"side"`
	Approved           bool      `json:"approved"`
	Confidence         *float64  `json:"confidence,omitempty"`
	FundamentalScore   *int      `json:"fundamental_score,omitempty"`
	TechnicalScore     float64   `json:"technical_score,omitempty"`
	RiskScore          float64   `json:"risk_score,omitempty"`
	Regime             string    `json:"regime,omitempty"`
	PositionSize       *float64  `json:"position_size,omitempty"`
	PositionScale      float64   `json:"position_scale,omitempty"`
	SellRecommendation string    `json:"sell_recommendation,omitempty"`
	UrgentBypass       bool      `json:"urgent_bypass,omitempty"`
	ReasonCode         string    `json:"reason_code"`
	Reason             string    `json:"reason"`
	Reasons            []string  `json:"reasons,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// Engine orchestrates the decision pipeline over its collaborators.
type Engine struct {
	config       Config
	detector     *regime.Detector
	policy       *regime.DefensePolicy
	fundamentals FundamentalScoreSource
	candles      CandleSource
	factors      FactorSignalSource
	sectors      risk.SectorLookup
}

// NewEngine wires the fusion engine. factors may be nil when no factor
// pipeline is deployed; candles may be nil to skip ATR sizing.
func NewEngine(config Config, detector *regime.Detector, policy *regime.DefensePolicy,
	fundamentals FundamentalScoreSource, candles CandleSource,
	factors FactorSignalSource, sectors risk.SectorLookup) (*Engine, error) {
	if err := config.Weights.Validate(); err != nil {
		return nil, err
	}
	if config.MinFundamentalScore <= 0 {
		config.MinFundamentalScore = 40
	}
	if config.DefaultBuyAmount <= 0 {
		config.DefaultBuyAmount = 500_000
	}
	if policy == nil {
		policy = regime.NewDefensePolicy()
	}
	if sectors == nil {
		sectors = risk.SectorLookupFunc(func(string) string { return risk.UnknownSector })
	}
	return &Engine{
		config:       config,
		detector:     detector,
		policy:       policy,
		fundamentals: fundamentals,
		candles:      candles,
		factors:      factors,
		sectors:      sectors,
	}, nil
}

// AdviseBuy runs the ordered buy gates, short-circuiting on the first
// rejection. Every gate appends to the audit reasons, which the decision
// carries whether approved or not.
func (e *Engine) AdviseBuy(req BuyRequest) Decision {
	decision := Decision{
		ID:        uuid.NewString(),
		Code:      req.Code,
		Side:      "BUY",
		Timestamp: time.Now(),
	}
	var reasons []string

	// 1. Regime gate: a closed gate rejects before anything is fetched.
	state := e.detector.Detect()
	decision.Regime = state.Regime
	preset := e.policy.Preset(state.Regime)
	if preset.BuyGate == regime.GateClosed {
		reasons = append(reasons, fmt.Sprintf("buy gate closed in %s regime", state.Regime))
		return e.rejectBuy(decision, ReasonRegimeClosed,
			fmt.Sprintf("new buys closed in %s regime", state.Regime), reasons)
	}

	// 2. Fundamental gate: an unverifiable score is a rejection, not a
	// neutral fallback. Capital is never allocated on missing data.
	fResult, err := e.fundamentals.Score(req.Code, req.MarketCap, req.SharesOutstanding)
	if err != nil || !fResult.Available {
		if err != nil {
			log.Warn().Err(err).Str("code", req.Code).Msg("advisory: fundamental lookup failed")
			reasons = append(reasons, "fundamental lookup failed")
		} else if fResult.Reason != "" {
			reasons = append(reasons, fResult.Reason)
		}
		return e.rejectBuy(decision, ReasonFundamentalUnavailable,
			"fundamental score unavailable", reasons)
	}
	fundamentalScore := fResult.Score
	decision.FundamentalScore = &fundamentalScore
	reasons = append(reasons, fResult.Reasons...)

	if fundamentalScore < e.config.MinFundamentalScore {
		confidence := float64(fundamentalScore)
		decision.Confidence = &confidence
		return e.rejectBuy(decision, ReasonFundamentalBelowMin,
			fmt.Sprintf("fundamental score %d below minimum %d", fundamentalScore, e.config.MinFundamentalScore),
			reasons)
	}

	// 3. Concentration gate and risk sub-score.
	riskScore := riskScoreDefault
	if len(req.Holdings) > 0 {
		values := make([]risk.HoldingValue, 0, len(req.Holdings))
		for _, h := range req.Holdings {
			values = append(values, risk.HoldingValue{Code: h.Code, Name: h.Name, Value: h.Value()})
		}
		conc := risk.AnalyzeConcentration(values, e.sectors)
		sector := e.sectors.Sector(req.Code)
		sectorPct := conc.SectorConcentration[sector]

		if conc.Level == risk.LevelHighlyConcentrated && sectorPct > 30 {
			confidence := rejectedConfidenceConc
			decision.Confidence = &confidence
			reasons = append(reasons, fmt.Sprintf("concentration %s", conc.Level))
			return e.rejectBuy(decision, ReasonConcentrationRisk,
				fmt.Sprintf("portfolio concentration risk (HHI %d, sector %s at %.0f%%)", conc.HHI, sector, sectorPct),
				reasons)
		}

		switch conc.Level {
		case risk.LevelConcentrated:
			riskScore = riskScoreConcentrated
		case risk.LevelModerate:
			riskScore = riskScoreModerate
		default:
			riskScore = riskScoreDiversified
		}
	}

	// 4. Factor-rank adjustment: a weak rank dampens, never rejects.
	if e.factors != nil {
		if ranking, err := e.factors.LatestRanking(); err == nil && ranking != nil && ranking.TotalRanked > 0 {
			if rank, ok := ranking.PerInstrument[req.Code]; ok && rank.Rank > ranking.TotalRanked/2 {
				riskScore -= factorRankPenalty
				reasons = append(reasons, fmt.Sprintf("factor rank %d/%d in bottom half", rank.Rank, ranking.TotalRanked))
			}
		}
	}
	decision.RiskScore = riskScore

	// 5. Confidence fusion.
	technicalScore := 50.0
	if req.TechnicalScore != nil {
		technicalScore = *req.TechnicalScore
	}
	decision.TechnicalScore = technicalScore

	w := e.config.Weights
	confidence := math.Round(float64(fundamentalScore)*w.Fundamental + technicalScore*w.Technical + riskScore*w.Risk)
	decision.Confidence = &confidence

	// 6. Regime gate re-check with the fused confidence.
	gate := e.policy.EvaluateBuy(state.Regime, confidence)
	if !gate.Allowed {
		reasons = append(reasons, gate.Reason)
		return e.rejectBuy(decision, ReasonConfidenceBelowGate, gate.Reason, reasons)
	}
	decision.PositionScale = gate.PositionScale

	// 7. Position sizing, scaled by the regime's multiplier.
	if req.AccountBalance > 0 && req.CurrentPrice > 0 {
		sizing := risk.CalculatePositionSize(risk.SizingInputs{
			AccountBalance:   req.AccountBalance,
			DefaultBuyAmount: e.config.DefaultBuyAmount,
			WinRate:          req.WinRate,
			AvgWinLossRatio:  req.AvgWinLossRatio,
			Candles:          e.fetchSizingCandles(req.Code),
			CurrentPrice:     req.CurrentPrice,
		})
		size := math.Round(sizing.PositionSize * gate.PositionScale)
		decision.PositionSize = &size
		reasons = append(reasons, sizing.Reasons...)
		if gate.PositionScale != 1.0 {
			reasons = append(reasons, fmt.Sprintf("position scaled by %.1fx for %s regime", gate.PositionScale, state.Regime))
		}
	}

	decision.Approved = true
	decision.ReasonCode = ReasonApproved
	decision.Reason = fmt.Sprintf("confidence %.0f (fundamental %d x %.1f + technical %.0f x %.1f + risk %.0f x %.1f)",
		confidence, fundamentalScore, w.Fundamental, technicalScore, w.Technical, riskScore, w.Risk)
	decision.Reasons = reasons

	log.Info().
		Str("code", req.Code).
		Float64("confidence", confidence).
		Str("regime", state.Regime).
		Msg("buy approved")
	return decision
}

// AdviseSell always approves: fundamentals can strengthen the sell
// narrative but never veto an exit. Urgent sells bypass analysis
// entirely.
func (e *Engine) AdviseSell(req SellRequest) Decision {
	decision := Decision{
		ID:        uuid.NewString(),
		Code:      req.Code,
		Side:      "SELL",
		Approved:  true,
		Timestamp: time.Now(),
	}

	if req.Urgent {
		decision.UrgentBypass = true
		decision.ReasonCode = ReasonUrgentBypass
		decision.Reason = fmt.Sprintf("urgent sell: %s", req.Reason)
		log.Info().Str("code", req.Code).Str("reason", req.Reason).Msg("urgent sell approved")
		return decision
	}

	var reasons []string
	recommendation := SellNeutral
	if fResult, err := e.fundamentals.Score(req.Code, nil, nil); err == nil && fResult.Available {
		switch {
		case fResult.Score < 30:
			recommendation = SellStrongSell
			reasons = append(reasons, fmt.Sprintf("fundamentals deteriorated (score %d)", fResult.Score))
		case fResult.Score < 50:
			recommendation = SellRecommend
			reasons = append(reasons, fmt.Sprintf("fundamentals weak (score %d)", fResult.Score))
		}
		score := fResult.Score
		decision.FundamentalScore = &score
	}

	decision.SellRecommendation = recommendation
	decision.ReasonCode = ReasonSellApproved
	reason := req.Reason
	if reason == "" {
		reason = "technical signal"
	}
	decision.Reason = fmt.Sprintf("sell advised: %s", reason)
	decision.Reasons = reasons

	log.Info().
		Str("code", req.Code).
		Float64("profit_rate", req.ProfitRate).
		Str("recommendation", recommendation).
		Msg("sell approved")
	return decision
}

func (e *Engine) rejectBuy(decision Decision, code, reason string, reasons []string) Decision {
	decision.Approved = false
	decision.ReasonCode = code
	decision.Reason = reason
	decision.Reasons = reasons
	log.Info().
		Str("code", decision.Code).
		Str("reason_code", code).
		Str("reason", reason).
		Msg("buy rejected")
	return decision
}

// fetchSizingCandles pulls the trailing candles used by ATR sizing. A
// fetch failure just skips the ATR estimator.
func (e *Engine) fetchSizingCandles(code string) []domain.Candle {
	if e.candles == nil {
		return nil
	}
	candles, err := e.candles.Fetch(code, 60)
	if err != nil {
		log.Warn().Err(err).Str("code", code).Msg("advisory: candle fetch failed, ATR sizing skipped")
		return nil
	}
	return candles
}
