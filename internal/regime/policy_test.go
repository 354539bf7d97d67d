package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefensePolicyDefaults(t *testing.T) {
	p := NewDefensePolicy()

	tests := []struct {
		regime      string
		investRatio float64
		scale       float64
		gate        string
	}{
		{Bull, 1.0, 1.0, GateOpen},
		{Neutral, 0.8, 0.8, GateOpen},
		{Bear, 0.5, 0.5, GateRestricted},
		{Crisis, 0.2, 0.2, GateClosed},
	}
	for _, tt := range tests {
		preset := p.Preset(tt.regime)
		assert.Equal(t, tt.investRatio, preset.MaxInvestRatio, tt.regime)
		assert.Equal(t, tt.scale, preset.PositionScale, tt.regime)
		assert.Equal(t, tt.gate, preset.BuyGate, tt.regime)
	}
}

func TestEvaluateBuyClosedGateRejects(t *testing.T) {
	p := NewDefensePolicy()

	decision := p.EvaluateBuy(Crisis, 95)

	assert.False(t, decision.Allowed)
	assert.Equal(t, GateClosed, decision.BuyGate)
	assert.NotEmpty(t, decision.Reason)
}

func TestEvaluateBuyRestrictedGateRequiresHighConfidence(t *testing.T) {
	p := NewDefensePolicy()

	low := p.EvaluateBuy(Bear, 65)
	assert.False(t, low.Allowed)
	assert.NotEmpty(t, low.Reason)

	high := p.EvaluateBuy(Bear, 75)
	assert.True(t, high.Allowed)
	assert.Equal(t, 0.5, high.PositionScale)
	assert.Equal(t, 0.5, high.MaxInvestRatio)
}

func TestEvaluateBuyOpenGateAllowsAnyConfidence(t *testing.T) {
	p := NewDefensePolicy()

	decision := p.EvaluateBuy(Neutral, 5)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 0.8, decision.MaxInvestRatio)
}

func TestEvaluateBuyUnknownRegimeFallsBackToNeutral(t *testing.T) {
	p := NewDefensePolicy()

	decision := p.EvaluateBuy("SIDEWAYS", 50)

	assert.True(t, decision.Allowed)
	assert.Equal(t, Neutral, decision.Regime)
	assert.Equal(t, 0.8, decision.PositionScale)
}

func TestSetPresetValidation(t *testing.T) {
	p := NewDefensePolicy()

	err := p.SetPreset(DefensePreset{Regime: "SIDEWAYS", BuyGate: GateOpen})
	assert.Error(t, err)

	err = p.SetPreset(DefensePreset{Regime: Bear, BuyGate: "MAYBE"})
	assert.Error(t, err)

	err = p.SetPreset(DefensePreset{Regime: Bear, MaxInvestRatio: 0.4, PositionScale: 0.4, BuyGate: GateClosed})
	assert.NoError(t, err)
	assert.Equal(t, GateClosed, p.Preset(Bear).BuyGate)
}
