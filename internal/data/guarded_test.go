package data

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantdesk/advisor/internal/domain"
)

func TestGuardedSourcePassesThrough(t *testing.T) {
	candles := sampleCandles()
	calls := 0
	source := NewGuardedSource(countingSource(&calls, candles, nil), GuardConfig{
		RequestsPerSec: 100,
		Burst:          10,
	})

	got, err := source.Fetch("005930", 60)

	require.NoError(t, err)
	assert.Equal(t, candles, got)
	assert.Equal(t, 1, calls)
}

func TestGuardedSourceBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	source := NewGuardedSource(countingSource(&calls, nil, errors.New("upstream down")), GuardConfig{
		RequestsPerSec:   100,
		Burst:            10,
		FailureThreshold: 2,
		Cooldown:         time.Minute,
	})

	_, err := source.Fetch("005930", 60)
	assert.Error(t, err)
	_, err = source.Fetch("005930", 60)
	assert.Error(t, err)

	// Breaker is open now: the upstream is no longer consulted.
	_, err = source.Fetch("005930", 60)
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestGuardedSourceRecoversAfterCooldown(t *testing.T) {
	fail := true
	calls := 0
	upstream := CandleSourceFunc(func(string, int) ([]domain.Candle, error) {
		calls++
		if fail {
			return nil, errors.New("upstream down")
		}
		return sampleCandles(), nil
	})
	source := NewGuardedSource(upstream, GuardConfig{
		RequestsPerSec:   100,
		Burst:            10,
		FailureThreshold: 1,
		Cooldown:         20 * time.Millisecond,
	})

	_, err := source.Fetch("005930", 60)
	require.Error(t, err)

	fail = false
	time.Sleep(30 * time.Millisecond)

	got, err := source.Fetch("005930", 60)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, calls)
}
