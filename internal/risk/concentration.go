package risk

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/domain"
)

// Concentration levels by HHI.
const (
	LevelEmpty              = "EMPTY"
	LevelDiversified        = "DIVERSIFIED"
	LevelModerate           = "MODERATE"
	LevelConcentrated       = "CONCENTRATED"
	LevelHighlyConcentrated = "HIGHLY_CONCENTRATED"
)

// Warning severities.
const (
	SeverityModerate = "MODERATE"
	SeverityHigh     = "HIGH"
)

// SectorLookup maps an instrument code to its sector label. Unknown codes
// should map to "UNKNOWN".
type SectorLookup interface {
	Sector(code string) string
}

// SectorLookupFunc adapts a function to the SectorLookup interface.
type SectorLookupFunc func(code string) string

// Sector implements SectorLookup.
func (f SectorLookupFunc) Sector(code string) string { return f(code) }

// UnknownSector is the label for codes absent from the sector mapping.
const UnknownSector = "UNKNOWN"

// HoldingValue is the valued-position input to concentration analysis.
type HoldingValue struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// StockWeight is one holding's share of total portfolio value, in percent.
type StockWeight struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// SectorWarning flags a sector exceeding its concentration threshold.
type SectorWarning struct {
	Sector  string  `json:"sector"`
	Percent float64 `json:"percent"`
	Level   string  `json:"level"`
}

// SingleStockWarning flags one holding dominating the portfolio.
type SingleStockWarning struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Level  string  `json:"level"`
}

// ConcentrationResult summarizes portfolio concentration.
type ConcentrationResult struct {
	HHI                 int                 `json:"hhi"` // 0-10000
	Level               string              `json:"level"`
	StockWeights        []StockWeight       `json:"stock_weights,omitempty"`
	SectorConcentration map[string]float64  `json:"sector_concentration"`
	SectorWarnings      []SectorWarning     `json:"sector_warnings,omitempty"`
	SingleStockWarning  *SingleStockWarning `json:"single_stock_warning,omitempty"`
	TotalValue          float64             `json:"total_value"`
	HoldingCount        int                 `json:"holding_count"`
}

// AnalyzeConcentration computes the Herfindahl index over holding weights
// plus per-sector aggregation and single-stock dominance warnings.
// A single 100%-weight holding scores HHI 10000; ten equal-weight holdings
// score 1000.
func AnalyzeConcentration(holdings []HoldingValue, sectors SectorLookup) ConcentrationResult {
	empty := ConcentrationResult{Level: LevelEmpty, SectorConcentration: map[string]float64{}}
	if len(holdings) == 0 {
		return empty
	}
	totalValue := 0.0
	for _, h := range holdings {
		totalValue += h.Value
	}
	if totalValue <= 0 {
		return empty
	}

	hhi := 0.0
	stockWeights := make([]StockWeight, 0, len(holdings))
	for _, h := range holdings {
		weight := h.Value / totalValue
		hhi += (weight * 100) * (weight * 100)
		stockWeights = append(stockWeights, StockWeight{
			Code: h.Code, Name: h.Name, Weight: domain.Round2(weight * 100),
		})
	}

	level := LevelDiversified
	switch {
	case hhi >= 4000:
		level = LevelHighlyConcentrated
	case hhi >= 2500:
		level = LevelConcentrated
	case hhi >= 1500:
		level = LevelModerate
	}

	sectorValues := map[string]float64{}
	sectorOrder := []string{}
	for _, h := range holdings {
		sector := UnknownSector
		if sectors != nil {
			sector = sectors.Sector(h.Code)
		}
		if _, seen := sectorValues[sector]; !seen {
			sectorOrder = append(sectorOrder, sector)
		}
		sectorValues[sector] += h.Value
	}

	sectorConcentration := make(map[string]float64, len(sectorValues))
	sectorWarnings := []SectorWarning{}
	for _, sector := range sectorOrder {
		pct := domain.Round2(sectorValues[sector] / totalValue * 100)
		sectorConcentration[sector] = pct
		if pct > 40 {
			sectorWarnings = append(sectorWarnings, SectorWarning{Sector: sector, Percent: pct, Level: SeverityHigh})
		} else if pct > 30 {
			sectorWarnings = append(sectorWarnings, SectorWarning{Sector: sector, Percent: pct, Level: SeverityModerate})
		}
	}

	var singleStock *SingleStockWarning
	maxStock := StockWeight{}
	for _, sw := range stockWeights {
		if sw.Weight > maxStock.Weight {
			maxStock = sw
		}
	}
	if maxStock.Weight > 20 {
		severity := SeverityModerate
		if maxStock.Weight > 30 {
			severity = SeverityHigh
		}
		singleStock = &SingleStockWarning{
			Code: maxStock.Code, Name: maxStock.Name, Weight: maxStock.Weight, Level: severity,
		}
	}

	if level != LevelDiversified {
		log.Warn().Int("hhi", int(math.Round(hhi))).Str("level", level).Msg("portfolio concentration")
	}

	return ConcentrationResult{
		HHI:                 int(math.Round(hhi)),
		Level:               level,
		StockWeights:        stockWeights,
		SectorConcentration: sectorConcentration,
		SectorWarnings:      sectorWarnings,
		SingleStockWarning:  singleStock,
		TotalValue:          math.Round(totalValue),
		HoldingCount:        len(holdings),
	}
}
