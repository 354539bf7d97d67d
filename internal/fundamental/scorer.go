package fundamental

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
)

// Bucket maxima. Valuation and profitability dominate; stability and
// growth refine.
const (
	maxValuationScore     = 30.0
	maxProfitabilityScore = 30.0
	maxStabilityScore     = 20.0
	maxGrowthScore        = 20.0
)

// ScoreBreakdown reports per-bucket points.
type ScoreBreakdown struct {
	Valuation     float64 `json:"valuation"`
	Profitability float64 `json:"profitability"`
	Stability     float64 `json:"stability"`
	Growth        float64 `json:"growth"`
}

// ScoreResult is the condensed fundamental verdict for one stock. When
// Available is false no score could be produced and Reason says why.
type ScoreResult struct {
	Available bool           `json:"available"`
	Score     int            `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Reasons   []string       `json:"reasons,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// ScoreStock derives ratios from statements, compares them to the sector
// benchmark and scores the result 0-100. Market cap and share count may
// be nil; the valuation ratios are then absent and earn no points.
func ScoreStock(sector string, current, previous *Financials, marketCap, sharesOutstanding *float64, benchmarks map[string]Benchmark) ScoreResult {
	ratios := CalculateRatios(current, previous, marketCap, sharesOutstanding)
	if ratios == nil {
		return ScoreResult{Available: false, Reason: "statements unavailable"}
	}
	comparison := CompareWithSector(sector, ratios, benchmarks)
	return Score(ratios, comparison)
}

// Score turns a ratio set and optional sector comparison into the 0-100
// fundamental score. Missing ratios earn no points rather than failing.
func Score(ratios *Ratios, comparison *SectorComparison) ScoreResult {
	if ratios == nil {
		return ScoreResult{Available: false, Reason: "ratios unavailable"}
	}

	var reasons []string

	valuation, vReasons := scoreValuation(ratios, comparison)
	profitability, pReasons := scoreProfitability(ratios)
	stability, sReasons := scoreStability(ratios)
	growth, gReasons := scoreGrowth(ratios)
	reasons = append(reasons, vReasons...)
	reasons = append(reasons, pReasons...)
	reasons = append(reasons, sReasons...)
	reasons = append(reasons, gReasons...)

	total := int(math.Round(valuation + profitability + stability + growth))

	log.Info().
		Int("score", total).
		Float64("valuation", valuation).
		Float64("profitability", profitability).
		Float64("stability", stability).
		Float64("growth", growth).
		Msg("fundamental score")

	return ScoreResult{
		Available: true,
		Score:     total,
		Breakdown: ScoreBreakdown{
			Valuation:     valuation,
			Profitability: profitability,
			Stability:     stability,
			Growth:        growth,
		},
		Reasons: reasons,
	}
}

// scoreValuation awards up to 15 points each for PER and PBR, preferring
// a sector-relative read and falling back to absolute bands.
func scoreValuation(ratios *Ratios, comparison *SectorComparison) (float64, []string) {
	score := 0.0
	var reasons []string

	var perCmp, pbrCmp *RatioComparison
	if comparison != nil {
		perCmp = comparison.PER
		pbrCmp = comparison.PBR
	}

	if ratios.PER != nil {
		per := *ratios.PER
		switch {
		case per < 0:
			reasons = append(reasons, "negative PER (loss-making)")
		case perCmp != nil:
			if perCmp.Verdict == VerdictUndervalued {
				score += math.Min(15, 7.5+perCmp.DiffPct*0.15)
				reasons = append(reasons, fmt.Sprintf("PER %.2f undervalued vs sector (%.0f%%)", per, perCmp.DiffPct))
			} else {
				score += math.Max(0, 7.5-math.Abs(perCmp.DiffPct)*0.1)
				reasons = append(reasons, fmt.Sprintf("PER %.2f overvalued vs sector", per))
			}
		case per <= 10:
			score += 12
		case per <= 20:
			score += 8
		case per <= 30:
			score += 4
		}
	}

	if ratios.PBR != nil {
		pbr := *ratios.PBR
		switch {
		case pbr < 0:
			reasons = append(reasons, "negative PBR (impaired equity)")
		case pbrCmp != nil:
			if pbrCmp.Verdict == VerdictUndervalued {
				score += math.Min(15, 7.5+pbrCmp.DiffPct*0.15)
				reasons = append(reasons, fmt.Sprintf("PBR %.2f undervalued vs sector", pbr))
			} else {
				score += math.Max(0, 7.5-math.Abs(pbrCmp.DiffPct)*0.1)
				reasons = append(reasons, fmt.Sprintf("PBR %.2f overvalued vs sector", pbr))
			}
		case pbr <= 1.0:
			score += 12
		case pbr <= 2.0:
			score += 8
		case pbr <= 3.0:
			score += 4
		}
	}

	return capBucket(score, maxValuationScore), reasons
}

// scoreProfitability awards up to 15 points each for ROE and operating
// margin on the same absolute bands.
func scoreProfitability(ratios *Ratios) (float64, []string) {
	score := 0.0
	var reasons []string

	if ratios.ROE != nil {
		roe := *ratios.ROE
		switch {
		case roe >= 20:
			score += 15
			reasons = append(reasons, fmt.Sprintf("ROE %.1f%% excellent", roe))
		case roe >= 15:
			score += 12
		case roe >= 10:
			score += 9
		case roe >= 5:
			score += 5
		case roe > 0:
			score += 2
		default:
			reasons = append(reasons, fmt.Sprintf("ROE %.1f%% loss-making", roe))
		}
	}

	if ratios.OperatingMargin != nil {
		margin := *ratios.OperatingMargin
		switch {
		case margin >= 20:
			score += 15
			reasons = append(reasons, fmt.Sprintf("operating margin %.1f%% excellent", margin))
		case margin >= 15:
			score += 12
		case margin >= 10:
			score += 9
		case margin >= 5:
			score += 5
		case margin > 0:
			score += 2
		default:
			reasons = append(reasons, fmt.Sprintf("operating margin %.1f%% negative", margin))
		}
	}

	return capBucket(score, maxProfitabilityScore), reasons
}

// scoreStability awards up to 10 points each for debt ratio and current
// ratio.
func scoreStability(ratios *Ratios) (float64, []string) {
	score := 0.0
	var reasons []string

	if ratios.DebtRatio != nil {
		debt := *ratios.DebtRatio
		switch {
		case debt <= 50:
			score += 10
		case debt <= 100:
			score += 8
		case debt <= 150:
			score += 5
		case debt <= 200:
			score += 2
			reasons = append(reasons, fmt.Sprintf("debt ratio %.0f%% elevated", debt))
		default:
			reasons = append(reasons, fmt.Sprintf("debt ratio %.0f%% risky", debt))
		}
	}

	if ratios.CurrentRatio != nil {
		current := *ratios.CurrentRatio
		switch {
		case current >= 200:
			score += 10
		case current >= 150:
			score += 8
		case current >= 100:
			score += 5
		case current >= 50:
			score += 2
			reasons = append(reasons, fmt.Sprintf("current ratio %.0f%% thin", current))
		default:
			reasons = append(reasons, fmt.Sprintf("current ratio %.0f%% risky", current))
		}
	}

	return capBucket(score, maxStabilityScore), reasons
}

// scoreGrowth awards up to 10 points each for revenue and operating
// profit growth.
func scoreGrowth(ratios *Ratios) (float64, []string) {
	score := 0.0
	var reasons []string

	if ratios.RevenueGrowth != nil {
		growth := *ratios.RevenueGrowth
		switch {
		case growth >= 20:
			score += 10
			reasons = append(reasons, fmt.Sprintf("revenue growth +%.1f%%", growth))
		case growth >= 10:
			score += 8
		case growth >= 5:
			score += 6
		case growth >= 0:
			score += 3
		default:
			reasons = append(reasons, fmt.Sprintf("revenue shrinking %.1f%%", growth))
		}
	}

	if ratios.OperatingProfitGrowth != nil {
		growth := *ratios.OperatingProfitGrowth
		switch {
		case growth >= 30:
			score += 10
			reasons = append(reasons, fmt.Sprintf("operating profit growth +%.1f%%", growth))
		case growth >= 15:
			score += 8
		case growth >= 5:
			score += 5
		case growth >= 0:
			score += 3
		default:
			reasons = append(reasons, fmt.Sprintf("operating profit declining %.1f%%", growth))
		}
	}

	return capBucket(score, maxGrowthScore), reasons
}

func capBucket(score, max float64) float64 {
	return math.Min(max, math.Round(score*10)/10)
}
