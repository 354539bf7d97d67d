package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantdesk/advisor/internal/regime"
)

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10_000_000.0, cfg.Strategy.InitialCapital)
	assert.Equal(t, 5, cfg.Data.Workers)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisor.yaml")
	yaml := `
server:
  addr: ":9090"
strategy:
  initial_capital: 5000000
regime:
  index_code: KOSDAQ
sectors:
  "005930": TECH
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5_000_000.0, cfg.Strategy.InitialCapital)
	assert.Equal(t, "KOSDAQ", cfg.Regime.IndexCode)
	assert.Equal(t, "TECH", cfg.Sectors["005930"])
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.4, cfg.Advisory.Weights.Fundamental)
}

func TestLoadRejectsBadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisor.yaml")
	yaml := `
advisory:
  weights:
    fundamental: 0.5
    technical: 0.5
    risk: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)

	assert.ErrorContains(t, err, "weights")
}

func TestValidateRejectsBadGate(t *testing.T) {
	cfg := Default()
	cfg.Regime.Presets = []regime.DefensePreset{
		{Regime: regime.Bear, BuyGate: "MAYBE"},
	}

	err := cfg.Validate()

	assert.ErrorContains(t, err, "buy gate")
}
