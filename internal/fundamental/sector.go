package fundamental

import "github.com/quantdesk/advisor/internal/domain"

// Sector valuation verdicts.
const (
	VerdictUndervalued = "UNDERVALUED"
	VerdictOvervalued  = "OVERVALUED"
	VerdictAboveAvg    = "ABOVE_AVG"
	VerdictBelowAvg    = "BELOW_AVG"
	VerdictStable      = "STABLE"
	VerdictHighDebt    = "HIGH_DEBT"
)

// DefaultSector keys the fallback benchmark.
const DefaultSector = "DEFAULT"

// Benchmark holds a sector's average ratios.
type Benchmark struct {
	PER             float64 `yaml:"per" json:"per"`
	PBR             float64 `yaml:"pbr" json:"pbr"`
	ROE             float64 `yaml:"roe" json:"roe"`
	DebtRatio       float64 `yaml:"debt_ratio" json:"debt_ratio"`
	OperatingMargin float64 `yaml:"operating_margin" json:"operating_margin"`
}

// DefaultBenchmarks are the static per-sector averages used until live
// sector aggregates are available.
func DefaultBenchmarks() map[string]Benchmark {
	return map[string]Benchmark{
		"TECH":        {PER: 15, PBR: 2.0, ROE: 12, DebtRatio: 60, OperatingMargin: 15},
		"FINANCE":     {PER: 6, PBR: 0.5, ROE: 8, DebtRatio: 900, OperatingMargin: 25},
		"AUTO":        {PER: 8, PBR: 0.8, ROE: 10, DebtRatio: 120, OperatingMargin: 8},
		"BIO":         {PER: 30, PBR: 3.0, ROE: 5, DebtRatio: 40, OperatingMargin: 10},
		"CHEMICAL":    {PER: 10, PBR: 1.0, ROE: 8, DebtRatio: 80, OperatingMargin: 10},
		"ENERGY":      {PER: 8, PBR: 0.7, ROE: 7, DebtRatio: 100, OperatingMargin: 8},
		DefaultSector: {PER: 12, PBR: 1.2, ROE: 10, DebtRatio: 80, OperatingMargin: 12},
	}
}

// RatioComparison relates one ratio to its sector average.
type RatioComparison struct {
	Value     float64 `json:"value"`
	SectorAvg float64 `json:"sector_avg"`
	DiffPct   float64 `json:"diff_pct"`
	Verdict   string  `json:"verdict"`
}

// SectorComparison is the per-ratio comparison for one stock.
type SectorComparison struct {
	Sector          string           `json:"sector"`
	PER             *RatioComparison `json:"per,omitempty"`
	PBR             *RatioComparison `json:"pbr,omitempty"`
	ROE             *RatioComparison `json:"roe,omitempty"`
	DebtRatio       *RatioComparison `json:"debt_ratio,omitempty"`
	OperatingMargin *RatioComparison `json:"operating_margin,omitempty"`
}

// CompareWithSector relates a stock's ratios to its sector benchmark.
// PER, PBR and debt ratio compare inverted (lower is better). Returns nil
// when ratios are absent.
func CompareWithSector(sector string, ratios *Ratios, benchmarks map[string]Benchmark) *SectorComparison {
	if ratios == nil {
		return nil
	}
	if benchmarks == nil {
		benchmarks = DefaultBenchmarks()
	}
	benchmark, ok := benchmarks[sector]
	if !ok {
		sector = DefaultSector
		benchmark = benchmarks[DefaultSector]
	}

	cmp := &SectorComparison{Sector: sector}

	if ratios.PER != nil && benchmark.PER != 0 {
		cmp.PER = compareInverted(*ratios.PER, benchmark.PER, VerdictUndervalued, VerdictOvervalued)
	}
	if ratios.PBR != nil && benchmark.PBR != 0 {
		cmp.PBR = compareInverted(*ratios.PBR, benchmark.PBR, VerdictUndervalued, VerdictOvervalued)
	}
	if ratios.ROE != nil && benchmark.ROE != 0 {
		cmp.ROE = compareDirect(*ratios.ROE, benchmark.ROE, VerdictAboveAvg, VerdictBelowAvg)
	}
	if ratios.DebtRatio != nil && benchmark.DebtRatio != 0 {
		cmp.DebtRatio = compareInverted(*ratios.DebtRatio, benchmark.DebtRatio, VerdictStable, VerdictHighDebt)
	}
	if ratios.OperatingMargin != nil && benchmark.OperatingMargin != 0 {
		cmp.OperatingMargin = compareDirect(*ratios.OperatingMargin, benchmark.OperatingMargin, VerdictAboveAvg, VerdictBelowAvg)
	}
	return cmp
}

func compareInverted(value, avg float64, better, worse string) *RatioComparison {
	verdict := worse
	if value < avg {
		verdict = better
	}
	return &RatioComparison{
		Value:     value,
		SectorAvg: avg,
		DiffPct:   domain.Round2((avg - value) / avg * 100),
		Verdict:   verdict,
	}
}

func compareDirect(value, avg float64, better, worse string) *RatioComparison {
	verdict := worse
	if value > avg {
		verdict = better
	}
	return &RatioComparison{
		Value:     value,
		SectorAvg: avg,
		DiffPct:   domain.Round2((value - avg) / avg * 100),
		Verdict:   verdict,
	}
}
