package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.EqualValues(t, 1, cfg.Seed)
	assert.Equal(t, 1000, cfg.Resamples)
	assert.Equal(t, "residual", cfg.BootstrapMethod)
	assert.InDelta(t, 2.39996, cfg.Reference.Angle, 1e-4)
	assert.Equal(t, []float64{20, 24, 28}, cfg.Phase.CandidatePeriods)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronostat.yaml")

	cfg := DefaultConfig()
	cfg.Seed = 1234
	cfg.Permutations = 500
	cfg.Reference.Angle = 1.5
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 77\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 77, cfg.Seed)
	assert.Equal(t, DefaultResamples, cfg.Resamples)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPhasePanelConversion(t *testing.T) {
	cfg := DefaultConfig()
	p := cfg.PhasePanel()
	assert.Equal(t, cfg.Phase.ClockPeriod, p.ClockPeriod)
	assert.Equal(t, cfg.Phase.CandidatePeriods, p.CandidatePeriods)
}
