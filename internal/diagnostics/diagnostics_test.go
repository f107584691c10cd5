package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chronostat/internal/arfit"
	"github.com/san-kum/chronostat/internal/randx"
	"github.com/san-kum/chronostat/internal/roots"
	"github.com/san-kum/chronostat/internal/synth"
)

func TestLjungBoxPassesOnWellSpecifiedModel(t *testing.T) {
	rng := randx.NewSource(21).Stream(0)
	values := synth.AR2(50, 0.5, 0.3, 1.0, rng)

	fit := arfit.AR2(values)
	require.False(t, fit.Degenerate)

	lb := LjungBox(fit.Residuals, DefaultLag(len(fit.Residuals)), 2)
	assert.True(t, lb.Passed, "AR(2) residuals of an AR(2) process should look white (p=%.3f)", lb.PValue)
}

func TestLjungBoxDetectsMisspecification(t *testing.T) {
	// An AR(3)-dominated process fit with AR(2) leaves lag-3 structure
	// in the residuals; Ljung-Box must flag it. Averaged over seeds to
	// keep the test stable.
	detected := 0
	const trials = 20
	for i := int64(0); i < trials; i++ {
		rng := randx.NewSource(100 + i).Stream(0)
		n := 300
		x := make([]float64, n+burnInForTest)
		for k := 3; k < len(x); k++ {
			x[k] = 0.8*x[k-3] + 0.3*rng.NormFloat64()
		}
		values := x[burnInForTest:]

		fit := arfit.AR2(values)
		require.False(t, fit.Degenerate)
		lb := LjungBox(fit.Residuals, DefaultLag(len(fit.Residuals)), 2)
		if !lb.Passed {
			detected++
		}
	}
	assert.Greater(t, detected, trials*3/4, "misspecification detected in %d/%d trials", detected, trials)
}

const burnInForTest = 50

func TestLjungBoxShortSeriesVacuous(t *testing.T) {
	lb := LjungBox([]float64{0.1, -0.2}, 4, 2)
	assert.True(t, lb.Passed)
	assert.Equal(t, 1.0, lb.PValue)
}

func TestTrendCheckFlagsDrift(t *testing.T) {
	values := make([]float64, 24)
	rng := randx.NewSource(31).Stream(0)
	for i := range values {
		values[i] = 0.5*float64(i) + 0.3*rng.NormFloat64()
	}
	d := TrendCheck(synth.Series("drift", "", 1, values))
	assert.True(t, d.Triggered)
	assert.Equal(t, Warning, d.Severity)
}

func TestTrendCheckQuietOnNoise(t *testing.T) {
	rng := randx.NewSource(32).Stream(0)
	d := TrendCheck(synth.Series("flat", "", 1, synth.WhiteNoise(50, 1.0, rng)))
	assert.False(t, d.Triggered)
}

func TestSampleSizeCheck(t *testing.T) {
	tests := []struct {
		n         int
		triggered bool
		severity  Severity
	}{
		{7, true, Critical},
		{10, true, Warning},
		{24, false, Warning},
	}
	for _, tt := range tests {
		d := SampleSizeCheck(tt.n)
		assert.Equal(t, tt.triggered, d.Triggered, "n=%d", tt.n)
		assert.Equal(t, tt.severity, d.Severity, "n=%d", tt.n)
	}
}

func TestBoundaryCheck(t *testing.T) {
	near := BoundaryCheck(roots.Resolve(0.98, 0.0))
	assert.True(t, near.Triggered)
	assert.Equal(t, Critical, near.Severity)

	far := BoundaryCheck(roots.Resolve(0.5, 0.1))
	assert.False(t, far.Triggered)
}

func TestModelOrderCheckPrefersAR2OnAR2Data(t *testing.T) {
	rng := randx.NewSource(41).Stream(0)
	d := ModelOrderCheck(synth.AR2(300, 0.5, 0.3, 1.0, rng))
	assert.False(t, d.Triggered, "got preferred order %v", d.Value)
}

func TestStationarityCheckFlagsRandomWalk(t *testing.T) {
	flagged := 0
	const trials = 20
	for i := int64(0); i < trials; i++ {
		rng := randx.NewSource(200 + i).Stream(0)
		d := StationarityCheck(synth.RandomWalk(100, 1.0, rng))
		if d.Triggered {
			flagged++
		}
	}
	// ADF has ~5% false rejection under the null; most walks must flag.
	assert.Greater(t, flagged, trials*3/4)
}

func TestStationarityCheckPassesStationarySeries(t *testing.T) {
	rng := randx.NewSource(51).Stream(0)
	d := StationarityCheck(synth.AR2(200, 0.3, 0.2, 1.0, rng))
	assert.False(t, d.Triggered)
}

func TestRunBundlesAllChecks(t *testing.T) {
	rng := randx.NewSource(61).Stream(0)
	ts := synth.Series("g", "", 2, synth.AR2(40, 0.5, 0.2, 1.0, rng))
	fit := arfit.AR2(ts.Values)
	res := roots.Resolve(fit.Beta1(), fit.Beta2())

	out := Run(ts, fit, res)
	assert.Len(t, out.Quality, 3)
	assert.Len(t, out.EdgeCases, 5)
	assert.Len(t, out.All(), 8)
}
