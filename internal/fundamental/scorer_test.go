package fundamental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreHealthyCompanyAbsoluteBands(t *testing.T) {
	previous := &Financials{
		Revenue:         f(800_000),
		OperatingProfit: f(150_000),
	}
	ratios := CalculateRatios(healthyFinancials(), previous, f(1_000_000), f(100_000))
	require.NotNil(t, ratios)

	result := Score(ratios, nil)

	require.True(t, result.Available)
	// PER 10 -> 12, PBR 2 -> 8; ROE 20% -> 15, margin 20% -> 15;
	// debt 50% -> 10, current 200% -> 10; growth 25% -> 10, 33% -> 10.
	assert.Equal(t, 20.0, result.Breakdown.Valuation)
	assert.Equal(t, 30.0, result.Breakdown.Profitability)
	assert.Equal(t, 20.0, result.Breakdown.Stability)
	assert.Equal(t, 20.0, result.Breakdown.Growth)
	assert.Equal(t, 90, result.Score)
}

func TestScoreNilRatiosUnavailable(t *testing.T) {
	result := Score(nil, nil)

	assert.False(t, result.Available)
	assert.NotEmpty(t, result.Reason)
}

func TestScoreNegativePERAwardsNoValuationPoints(t *testing.T) {
	ratios := &Ratios{PER: f(-5), PBR: f(5)}

	result := Score(ratios, nil)

	require.True(t, result.Available)
	assert.Equal(t, 0.0, result.Breakdown.Valuation)
	assert.Contains(t, result.Reasons, "negative PER (loss-making)")
}

func TestScoreSectorUndervaluedBoostsValuation(t *testing.T) {
	ratios := &Ratios{PER: f(10.0)}
	comparison := CompareWithSector("TECH", ratios, nil)
	require.NotNil(t, comparison)
	require.NotNil(t, comparison.PER)
	require.Equal(t, VerdictUndervalued, comparison.PER.Verdict)

	result := Score(ratios, comparison)

	// diff vs sector PER 15 is +33.33%: 7.5 + 33.33*0.15 = 12.5.
	require.True(t, result.Available)
	assert.InDelta(t, 12.5, result.Breakdown.Valuation, 0.01)
}

func TestScoreStockUnavailableWithoutStatements(t *testing.T) {
	result := ScoreStock("TECH", nil, nil, f(1_000_000), f(100_000), nil)

	assert.False(t, result.Available)
	assert.Equal(t, "statements unavailable", result.Reason)
}

func TestScoreStockMissingMarketDataEarnsNoValuationPoints(t *testing.T) {
	current := &Financials{
		NetIncome:   f(100_000),
		TotalEquity: f(500_000),
	}

	result := ScoreStock("TECH", current, nil, nil, nil, nil)

	require.True(t, result.Available)
	assert.Equal(t, 0.0, result.Breakdown.Valuation)

	ratios := CalculateRatios(current, nil, nil, nil)
	require.NotNil(t, ratios)
	assert.Nil(t, ratios.PER, "no market cap")
	assert.Nil(t, ratios.PBR, "no market cap")
	assert.Nil(t, ratios.EPS, "no share count")
	assert.Nil(t, ratios.BPS, "no share count")
}

func TestCompareWithSectorVerdicts(t *testing.T) {
	ratios := &Ratios{
		PER:             f(20.0),
		PBR:             f(1.0),
		ROE:             f(15.0),
		DebtRatio:       f(120.0),
		OperatingMargin: f(10.0),
	}

	cmp := CompareWithSector("TECH", ratios, nil)
	require.NotNil(t, cmp)

	assert.Equal(t, VerdictOvervalued, cmp.PER.Verdict)
	assert.Equal(t, VerdictUndervalued, cmp.PBR.Verdict)
	assert.Equal(t, VerdictAboveAvg, cmp.ROE.Verdict)
	assert.Equal(t, VerdictHighDebt, cmp.DebtRatio.Verdict)
	assert.Equal(t, VerdictBelowAvg, cmp.OperatingMargin.Verdict)
}

func TestCompareWithSectorUnknownFallsBackToDefault(t *testing.T) {
	ratios := &Ratios{PER: f(10.0)}

	cmp := CompareWithSector("SHIPPING", ratios, nil)

	require.NotNil(t, cmp)
	assert.Equal(t, DefaultSector, cmp.Sector)
	assert.Equal(t, 12.0, cmp.PER.SectorAvg)
}
