package regime

import "fmt"

// Buy gate modes.
const (
	GateOpen       = "OPEN"
	GateRestricted = "RESTRICTED"
	GateClosed     = "CLOSED"
)

// defaultRestrictedMinConfidence is the bar a buy advisory must clear
// when the gate is RESTRICTED.
const defaultRestrictedMinConfidence = 70.0

// DefensePreset defines the protective posture for one regime.
type DefensePreset struct {
	Regime         string  `json:"regime" yaml:"regime"`
	MaxInvestRatio float64 `json:"max_invest_ratio" yaml:"max_invest_ratio"`
	PositionScale  float64 `json:"position_scale" yaml:"position_scale"`
	BuyGate        string  `json:"buy_gate" yaml:"buy_gate"`
}

// GateDecision is the outcome of running a buy through the defense policy.
type GateDecision struct {
	Allowed        bool    `json:"allowed"`
	Regime         string  `json:"regime"`
	BuyGate        string  `json:"buy_gate"`
	MaxInvestRatio float64 `json:"max_invest_ratio"`
	PositionScale  float64 `json:"position_scale"`
	Reason         string  `json:"reason,omitempty"`
}

// DefensePolicy maps regimes to protective presets and answers whether a
// buy advisory may proceed.
type DefensePolicy struct {
	presets                 map[string]DefensePreset
	restrictedMinConfidence float64
}

// NewDefensePolicy creates a policy with the default presets: full
// exposure in BULL, trimmed in NEUTRAL, halved with a confidence bar in
// BEAR, and closed to new buys in CRISIS.
func NewDefensePolicy() *DefensePolicy {
	return &DefensePolicy{
		presets: map[string]DefensePreset{
			Bull:    {Regime: Bull, MaxInvestRatio: 1.0, PositionScale: 1.0, BuyGate: GateOpen},
			Neutral: {Regime: Neutral, MaxInvestRatio: 0.8, PositionScale: 0.8, BuyGate: GateOpen},
			Bear:    {Regime: Bear, MaxInvestRatio: 0.5, PositionScale: 0.5, BuyGate: GateRestricted},
			Crisis:  {Regime: Crisis, MaxInvestRatio: 0.2, PositionScale: 0.2, BuyGate: GateClosed},
		},
		restrictedMinConfidence: defaultRestrictedMinConfidence,
	}
}

// SetPreset replaces the preset for one regime.
func (p *DefensePolicy) SetPreset(preset DefensePreset) error {
	if _, ok := p.presets[preset.Regime]; !ok {
		return fmt.Errorf("unknown regime %q", preset.Regime)
	}
	switch preset.BuyGate {
	case GateOpen, GateRestricted, GateClosed:
	default:
		return fmt.Errorf("unknown buy gate %q", preset.BuyGate)
	}
	p.presets[preset.Regime] = preset
	return nil
}

// Preset returns the preset for the given regime, falling back to the
// NEUTRAL preset when the regime is unrecognized.
func (p *DefensePolicy) Preset(regime string) DefensePreset {
	if preset, ok := p.presets[regime]; ok {
		return preset
	}
	return p.presets[Neutral]
}

// EvaluateBuy gates a buy advisory with the given raw confidence against
// the regime's preset. RESTRICTED admits only high-confidence buys;
// CLOSED admits none.
func (p *DefensePolicy) EvaluateBuy(regime string, confidence float64) GateDecision {
	preset := p.Preset(regime)
	decision := GateDecision{
		Allowed:        true,
		Regime:         preset.Regime,
		BuyGate:        preset.BuyGate,
		MaxInvestRatio: preset.MaxInvestRatio,
		PositionScale:  preset.PositionScale,
	}

	switch preset.BuyGate {
	case GateClosed:
		decision.Allowed = false
		decision.Reason = fmt.Sprintf("buy gate closed in %s regime", preset.Regime)
	case GateRestricted:
		if confidence < p.restrictedMinConfidence {
			decision.Allowed = false
			decision.Reason = fmt.Sprintf("confidence %.0f below %s minimum %.0f",
				confidence, preset.Regime, p.restrictedMinConfidence)
		}
	}
	return decision
}
