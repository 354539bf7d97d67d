package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAllMetrics(t *testing.T) {
	registry := NewRegistry()
	reg := prometheus.NewRegistry()

	require.NoError(t, registry.Register(reg))
	// Double registration fails.
	assert.Error(t, registry.Register(reg))
}

func TestObserveDecisionCountsOutcomes(t *testing.T) {
	registry := NewRegistry()
	confidence := 68.0

	registry.ObserveDecision("BUY", "APPROVED", true, &confidence)
	registry.ObserveDecision("BUY", "REGIME_CLOSED", false, nil)
	registry.ObserveDecision("BUY", "REGIME_CLOSED", false, nil)

	approved := testutil.ToFloat64(registry.Decisions.WithLabelValues("BUY", "approved", "APPROVED"))
	rejected := testutil.ToFloat64(registry.Decisions.WithLabelValues("BUY", "rejected", "REGIME_CLOSED"))
	assert.Equal(t, 1.0, approved)
	assert.Equal(t, 2.0, rejected)
}

func TestSetActiveRegimeIsExclusive(t *testing.T) {
	registry := NewRegistry()
	all := []string{"BULL", "NEUTRAL", "BEAR", "CRISIS"}

	registry.SetActiveRegime("BEAR", all)

	assert.Equal(t, 0.0, testutil.ToFloat64(registry.ActiveRegime.WithLabelValues("BULL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.ActiveRegime.WithLabelValues("BEAR")))
}
