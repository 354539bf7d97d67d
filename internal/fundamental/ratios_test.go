package fundamental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func healthyFinancials() *Financials {
	return &Financials{
		Revenue:            f(1_000_000),
		OperatingProfit:    f(200_000),
		NetIncome:          f(100_000),
		TotalAssets:        f(750_000),
		TotalLiabilities:   f(250_000),
		TotalEquity:        f(500_000),
		CurrentAssets:      f(400_000),
		CurrentLiabilities: f(200_000),
		OperatingCashFlow:  f(180_000),
		InvestingCashFlow:  f(-30_000),
	}
}

func TestCalculateRatiosHealthyCompany(t *testing.T) {
	previous := &Financials{
		Revenue:         f(800_000),
		OperatingProfit: f(150_000),
	}

	ratios := CalculateRatios(healthyFinancials(), previous, f(1_000_000), f(100_000))
	require.NotNil(t, ratios)

	assert.Equal(t, 10.0, *ratios.PER)
	assert.Equal(t, 2.0, *ratios.PBR)
	assert.Equal(t, 1.0, *ratios.EPS)
	assert.Equal(t, 5.0, *ratios.BPS)
	assert.Equal(t, 20.0, *ratios.ROE)
	assert.Equal(t, 20.0, *ratios.OperatingMargin)
	assert.Equal(t, 50.0, *ratios.DebtRatio)
	assert.Equal(t, 200.0, *ratios.CurrentRatio)
	assert.Equal(t, 25.0, *ratios.RevenueGrowth)
	assert.Equal(t, 33.33, *ratios.OperatingProfitGrowth)
	assert.Equal(t, 150_000.0, *ratios.FCF)
	assert.Equal(t, 15.0, *ratios.FCFMargin)
}

func TestCalculateRatiosNilStatements(t *testing.T) {
	assert.Nil(t, CalculateRatios(nil, nil, f(1_000_000), f(100_000)))
}

func TestCalculateRatiosMissingDenominators(t *testing.T) {
	current := &Financials{
		Revenue:     f(1_000_000),
		TotalEquity: f(0),
	}

	ratios := CalculateRatios(current, nil, f(1_000_000), f(100_000))
	require.NotNil(t, ratios)

	assert.Nil(t, ratios.PER, "no net income")
	assert.Nil(t, ratios.PBR, "zero equity")
	assert.Nil(t, ratios.ROE)
	assert.Nil(t, ratios.DebtRatio)
	assert.Nil(t, ratios.RevenueGrowth, "no prior year")
	assert.Nil(t, ratios.FCF, "cash flows missing")
}

func TestGrowthFromLossUsesPriorMagnitude(t *testing.T) {
	current := &Financials{OperatingProfit: f(50)}
	previous := &Financials{OperatingProfit: f(-100)}

	ratios := CalculateRatios(current, previous, nil, nil)
	require.NotNil(t, ratios)
	require.NotNil(t, ratios.OperatingProfitGrowth)
	assert.Equal(t, 150.0, *ratios.OperatingProfitGrowth)
}

func TestGrowthNilOnZeroPriorYear(t *testing.T) {
	current := &Financials{Revenue: f(500)}
	previous := &Financials{Revenue: f(0)}

	ratios := CalculateRatios(current, previous, nil, nil)
	require.NotNil(t, ratios)
	assert.Nil(t, ratios.RevenueGrowth)
}
