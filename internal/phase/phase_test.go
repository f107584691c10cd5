package phase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chronostat/internal/randx"
	"github.com/san-kum/chronostat/internal/synth"
)

func TestCircularMeanWrapAware(t *testing.T) {
	// {2h, 4h, 22h} on a 24h clock straddles midnight: the circular
	// mean is near 0h/24h, while naive averaging would give ~9.3h.
	phases := []float64{2, 4, 22}
	mean := CircularMean(phases, 24)

	distFromMidnight := math.Min(mean, 24-mean)
	assert.Less(t, distFromMidnight, 1.0, "circular mean %.2fh should sit near 0h", mean)

	naive := (2.0 + 4.0 + 22.0) / 3
	assert.InDelta(t, 9.33, naive, 0.01, "the naive mean is the bug this guards against")
}

func TestCircularMeanSimpleCluster(t *testing.T) {
	assert.InDelta(t, 6.0, CircularMean([]float64{5, 6, 7}, 24), 1e-9)
}

func TestCircularSD(t *testing.T) {
	tight := CircularSD([]float64{6, 6.1, 5.9}, 24)
	spread := CircularSD([]float64{0, 8, 16}, 24)
	assert.Less(t, tight, 0.5)
	assert.Greater(t, spread, 5.0)
}

func TestCosinorRecoversPhase(t *testing.T) {
	rng := randx.NewSource(71).Stream(0)
	// cos(2πt/24 − φ) with φ corresponding to a 6h peak.
	values := synth.Sinusoid(48, 1, 24, 1.0, 2*math.Pi*6/24, 0.1, rng)
	ts := synth.Series("g", "", 1, values)

	est := Cosinor(ts, 24)
	require.True(t, est.Valid())
	assert.InDelta(t, 6.0, est.PhaseHours, 0.5)
	assert.InDelta(t, 1.0, est.Amplitude, 0.15)
	assert.Greater(t, est.R2, 0.8)
	assert.Less(t, est.CI.Lower, est.PhaseHours)
	assert.Greater(t, est.CI.Upper, est.PhaseHours)
}

func TestCosinorFlatSeriesInvalid(t *testing.T) {
	values := make([]float64, 24)
	ts := synth.Series("flat", "", 1, values)
	est := Cosinor(ts, 24)
	assert.False(t, est.Valid())
}

func TestFreePeriodCosinorFindsPeriod(t *testing.T) {
	rng := randx.NewSource(72).Stream(0)
	values := synth.Sinusoid(72, 1, 26, 1.0, 0, 0.1, rng)
	ts := synth.Series("g", "", 1, values)

	est := FreePeriodCosinor(ts, 18, 30, 0.25)
	require.True(t, est.Valid())
	assert.InDelta(t, 26.0, est.Period, 1.0)
	assert.NotEmpty(t, est.Warnings, "period uncertainty must be flagged")
}

func TestFFTPhaseBandRestriction(t *testing.T) {
	rng := randx.NewSource(73).Stream(0)
	// 48 samples at 1h: Fourier periods are 48/k; period 24 is bin 2.
	values := synth.Sinusoid(48, 1, 24, 1.0, 0, 0.1, rng)
	ts := synth.Series("g", "", 1, values)

	est := FFTPhase(ts, 18, 30)
	require.True(t, est.Valid())
	assert.True(t, est.Heuristic)
	assert.InDelta(t, 24.0, est.Period, 1e-9)
	dist := math.Min(est.PhaseHours, est.Period-est.PhaseHours)
	assert.Less(t, dist, 2.0, "peak at t=0 should read near phase 0, got %.2f", est.PhaseHours)
}

func TestFFTPhaseNoBinInBand(t *testing.T) {
	rng := randx.NewSource(74).Stream(0)
	values := synth.WhiteNoise(16, 1, rng)
	ts := synth.Series("g", "", 1, values)

	est := FFTPhase(ts, 100, 200)
	assert.False(t, est.Valid())
	assert.NotEmpty(t, est.Warnings)
}

func TestZeroCrossingPeriodAndPhase(t *testing.T) {
	rng := randx.NewSource(77).Stream(0)
	values := synth.Sinusoid(96, 1, 24, 1.0, 0, 0.01, rng)
	ts := synth.Series("g", "", 1, values)

	est := ZeroCrossing(ts)
	require.True(t, est.Heuristic)
	assert.InDelta(t, 24.0, est.Period, 0.5)
	dist := math.Min(est.PhaseHours, est.Period-est.PhaseHours)
	assert.Less(t, dist, 1.5)
}

func TestPanelRobustOnCleanRhythm(t *testing.T) {
	rng := randx.NewSource(75).Stream(0)
	values := synth.Sinusoid(72, 1, 24, 1.0, 2*math.Pi*8/24, 0.1, rng)
	ts := synth.Series("per1", "", 1, values)

	res := Panel(ts, DefaultConfig())
	require.Len(t, res.Estimates, 6)
	assert.True(t, res.Robust, "phaseSD=%.2f agreement=%.2f", res.PhaseSD, res.Agreement)
	assert.InDelta(t, 8.0, res.MeanPhase, 1.5)
}

func TestPanelNotRobustOnNoise(t *testing.T) {
	rng := randx.NewSource(76).Stream(0)
	ts := synth.Series("noise", "", 1, synth.WhiteNoise(48, 1, rng))

	res := Panel(ts, DefaultConfig())
	assert.False(t, res.Robust)
}
