package regime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSource(closes []float64) IndexSource {
	return IndexSourceFunc(func() ([]float64, error) { return closes, nil })
}

// risingCloses trends up steadily: low volatility, positive momentum,
// short MA above long MA. Zero bear signals.
func risingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 0.5*float64(i)
	}
	return closes
}

// crashCloses holds flat then falls hard with large swings: all three
// bear signals fire.
func crashCloses() []float64 {
	closes := make([]float64, 0, 121)
	for i := 0; i < 61; i++ {
		closes = append(closes, 100)
	}
	price := 100.0
	for i := 0; i < 60; i++ {
		if i%2 == 0 {
			price *= 0.95
		} else {
			price *= 0.99
		}
		closes = append(closes, price)
	}
	return closes
}

// grindDownCloses declines gently and steadily: the MA cross and momentum
// signals fire but volatility stays low. Exactly two bear signals.
func grindDownCloses() []float64 {
	closes := make([]float64, 0, 121)
	for i := 0; i < 61; i++ {
		closes = append(closes, 100)
	}
	price := 100.0
	for i := 0; i < 60; i++ {
		price *= 0.997
		closes = append(closes, price)
	}
	return closes
}

func TestDetectInsufficientDataFallsBackToNeutral(t *testing.T) {
	d := NewDetector(fixedSource(risingCloses(30)), DefaultDetectorConfig())

	state := d.Detect()

	assert.Equal(t, Neutral, state.Regime)
	assert.True(t, state.Fallback)
}

func TestDetectRisingMarketIsBull(t *testing.T) {
	d := NewDetector(fixedSource(risingCloses(120)), DefaultDetectorConfig())

	state := d.Detect()

	assert.Equal(t, Bull, state.Regime)
	assert.Equal(t, 0, state.BearCount)
	assert.False(t, state.Signals.MACross)
	assert.False(t, state.Signals.HighVol)
	assert.False(t, state.Signals.NegMom)
}

func TestDetectCrashIsImmediateCrisis(t *testing.T) {
	closes := risingCloses(120)
	d := NewDetector(fixedSource(closes), DefaultDetectorConfig())

	state := d.Detect()
	require.Equal(t, Bull, state.Regime)

	// The market crashes; CRISIS skips the confirmation delay.
	d.source = fixedSource(crashCloses())
	d.ClearCache()

	state = d.Detect()
	assert.Equal(t, Crisis, state.Regime)
	assert.Equal(t, 3, state.BearCount)
	assert.Nil(t, state.Pending)
}

func TestDetectBearRequiresDistinctDayConfirmations(t *testing.T) {
	day1 := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	clock := day1
	d := NewDetector(fixedSource(risingCloses(120)), DefaultDetectorConfig())
	d.now = func() time.Time { return clock }

	state := d.Detect()
	require.Equal(t, Bull, state.Regime)

	d.source = fixedSource(grindDownCloses())
	d.ClearCache()

	// First bearish reading: transition pending, regime unchanged.
	state = d.Detect()
	assert.Equal(t, Bull, state.Regime)
	assert.Equal(t, Bear, state.RawRegime)
	require.NotNil(t, state.Pending)
	assert.Equal(t, Bear, state.Pending.Regime)
	assert.Equal(t, 1, state.Pending.Count)

	// Same day again: cache cleared, but the day only counts once.
	clock = day1.Add(2 * time.Hour)
	d.ClearCache()
	state = d.Detect()
	assert.Equal(t, Bull, state.Regime)
	require.NotNil(t, state.Pending)
	assert.Equal(t, 1, state.Pending.Count)

	// Next calendar day confirms the transition.
	clock = day1.AddDate(0, 0, 1)
	d.ClearCache()
	state = d.Detect()
	assert.Equal(t, Bear, state.Regime)
	assert.Nil(t, state.Pending)
}

func TestDetectPendingAbandonedWhenRegimeRecovers(t *testing.T) {
	day1 := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	clock := day1
	d := NewDetector(fixedSource(risingCloses(120)), DefaultDetectorConfig())
	d.now = func() time.Time { return clock }

	require.Equal(t, Bull, d.Detect().Regime)

	d.source = fixedSource(grindDownCloses())
	d.ClearCache()
	state := d.Detect()
	require.NotNil(t, state.Pending)

	// The market recovers before confirmation; the pending count resets.
	d.source = fixedSource(risingCloses(120))
	clock = day1.AddDate(0, 0, 1)
	d.ClearCache()
	state = d.Detect()
	assert.Equal(t, Bull, state.Regime)
	assert.Nil(t, state.Pending)

	// A fresh bearish reading starts counting from one again.
	d.source = fixedSource(grindDownCloses())
	clock = day1.AddDate(0, 0, 2)
	d.ClearCache()
	state = d.Detect()
	assert.Equal(t, Bull, state.Regime)
	require.NotNil(t, state.Pending)
	assert.Equal(t, 1, state.Pending.Count)
}

func TestDetectCachesWithinTTL(t *testing.T) {
	calls := 0
	source := IndexSourceFunc(func() ([]float64, error) {
		calls++
		return risingCloses(120), nil
	})
	d := NewDetector(source, DefaultDetectorConfig())

	d.Detect()
	d.Detect()
	d.Detect()

	assert.Equal(t, 1, calls)
}

func TestResetClearsHysteresisState(t *testing.T) {
	day1 := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	clock := day1
	d := NewDetector(fixedSource(risingCloses(120)), DefaultDetectorConfig())
	d.now = func() time.Time { return clock }

	require.Equal(t, Bull, d.Detect().Regime)
	d.source = fixedSource(grindDownCloses())
	d.ClearCache()
	require.NotNil(t, d.Detect().Pending)

	d.Reset()

	// After reset the first reading is adopted directly.
	state := d.Detect()
	assert.Equal(t, Bear, state.Regime)
	assert.Nil(t, state.Pending)
}
