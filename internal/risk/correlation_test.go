package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearsonCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	y := []float64{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}

	r := PearsonCorrelation(x, y)
	require.NotNil(t, r)
	assert.Equal(t, 1.0, *r)

	inverse := make([]float64, len(x))
	for i, v := range x {
		inverse[i] = -v
	}
	r = PearsonCorrelation(x, inverse)
	require.NotNil(t, r)
	assert.Equal(t, -1.0, *r)
}

func TestPearsonCorrelation_InsufficientAlignedPoints(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	y := []float64{1, 2, 3}
	assert.Nil(t, PearsonCorrelation(x, y), "alignment uses the shorter series")
}

func TestPearsonCorrelation_ZeroVariance(t *testing.T) {
	x := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	y := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	r := PearsonCorrelation(x, y)
	require.NotNil(t, r)
	assert.Zero(t, *r)
}

func TestBuildCorrelationMatrix(t *testing.T) {
	assert.Nil(t, BuildCorrelationMatrix([]StockReturns{{Code: "A"}}))

	a := make([]float64, 100)
	b := make([]float64, 100)
	c := make([]float64, 100)
	for i := range a {
		a[i] = float64(i%10) / 100
		b[i] = float64(i%10) / 50 // perfectly correlated with a
		c[i] = float64((i*7)%11) / 100
	}
	result := BuildCorrelationMatrix([]StockReturns{
		{Code: "A", DailyReturns: a},
		{Code: "B", DailyReturns: b},
		{Code: "C", DailyReturns: c},
	})
	require.NotNil(t, result)
	assert.Equal(t, 3, result.StockCount)
	assert.Len(t, result.Full.Matrix, 3)
	assert.Len(t, result.Short.Matrix, 3)

	ab := result.Full.Matrix["A-B"]
	require.NotNil(t, ab)
	assert.Equal(t, 1.0, *ab)

	// A-B is flagged in both windows.
	windows := map[string]bool{}
	for _, w := range result.Warnings {
		if w.Pair == "A-B" {
			windows[w.Window] = true
		}
	}
	assert.True(t, windows[WindowFull])
	assert.True(t, windows[WindowShort60])
}
