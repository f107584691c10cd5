package validation

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chronostat/internal/arfit"
	"github.com/san-kum/chronostat/internal/randx"
	"github.com/san-kum/chronostat/internal/roots"
	"github.com/san-kum/chronostat/internal/synth"
)

func trueModulus(beta1, beta2 float64) float64 {
	return roots.Resolve(beta1, beta2).Modulus()
}

func TestBootstrapCIReproducible(t *testing.T) {
	rng := randx.NewSource(1).Stream(0)
	values := synth.AR2(40, 0.5, 0.3, 1.0, rng)

	a, err := BootstrapModulusCI(context.Background(), values, MethodResidual, 200, randx.NewSource(9))
	require.NoError(t, err)
	b, err := BootstrapModulusCI(context.Background(), values, MethodResidual, 200, randx.NewSource(9))
	require.NoError(t, err)

	assert.Equal(t, a, b, "same seed must give bit-identical intervals")
}

func TestBootstrapCICoverage(t *testing.T) {
	if testing.Short() {
		t.Skip("coverage sweep is slow")
	}

	// The 95% interval should contain the true modulus in ~95% of
	// repeated synthetic trials (±5pp over >=200 trials).
	const trials = 200
	truth := trueModulus(0.5, 0.3)

	covered := 0
	for i := int64(0); i < trials; i++ {
		rng := randx.NewSource(1000 + i).Stream(0)
		values := synth.AR2(120, 0.5, 0.3, 1.0, rng)
		ci, err := BootstrapModulusCI(context.Background(), values, MethodResidual, 500, randx.NewSource(2000+i))
		if err != nil {
			continue
		}
		if ci.Contains(truth) {
			covered++
		}
	}
	rate := float64(covered) / trials
	assert.InDelta(t, 0.95, rate, 0.05, "coverage %.3f", rate)
}

func TestBootstrapDegenerateBase(t *testing.T) {
	flat := make([]float64, 20)
	_, err := BootstrapModulusCI(context.Background(), flat, MethodResidual, 100, randx.NewSource(1))
	assert.ErrorIs(t, err, ErrDegenerateBase)
}

func TestBootstrapBlockMethod(t *testing.T) {
	rng := randx.NewSource(2).Stream(0)
	values := synth.AR2(30, 0.4, 0.2, 1.0, rng)
	ci, err := BootstrapModulusCI(context.Background(), values, MethodBlock, 200, randx.NewSource(3))
	require.NoError(t, err)
	assert.Less(t, ci.Lower, ci.Upper)
	assert.Equal(t, MethodBlock, ci.Method)
}

func TestBootstrapCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rng := randx.NewSource(4).Stream(0)
	values := synth.AR2(40, 0.5, 0.3, 1.0, rng)
	_, err := BootstrapModulusCI(ctx, values, MethodResidual, 1000, randx.NewSource(5))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPhaseSurrogatePreservesSpectrumPower(t *testing.T) {
	rng := randx.NewSource(6).Stream(0)
	values := synth.Sinusoid(64, 1, 16, 1.0, 0, 0.1, rng)

	sur := PhaseSurrogate(values, randx.NewSource(7).Stream(0))
	require.Len(t, sur, len(values))

	// Total power (variance about the mean) is preserved by a pure
	// phase rotation, up to numerical error.
	assert.InDelta(t, variance(values), variance(sur), 1e-6*variance(values)+1e-9)

	// And the surrogate must not simply replicate the input.
	same := true
	for i := range sur {
		if math.Abs(sur[i]-values[i]) > 1e-9 {
			same = false
			break
		}
	}
	assert.False(t, same)
}

func variance(xs []float64) float64 {
	mean := 0.0
	for _, v := range xs {
		mean += v
	}
	mean /= float64(len(xs))
	sum := 0.0
	for _, v := range xs {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}

func TestSurrogateNullReproducible(t *testing.T) {
	rng := randx.NewSource(8).Stream(0)
	values := synth.AR2(32, 0.5, 0.2, 1.0, rng)
	stat := func(v []float64) float64 {
		fit := arfit.AR2(v)
		return roots.Resolve(fit.Beta1(), fit.Beta2()).Modulus()
	}

	a, err := SurrogateNull(context.Background(), values, stat, 300, randx.NewSource(11))
	require.NoError(t, err)
	b, err := SurrogateNull(context.Background(), values, stat, 300, randx.NewSource(11))
	require.NoError(t, err)
	assert.Equal(t, a.Values, b.Values)
}

func TestTriangleNullStatistics(t *testing.T) {
	null, err := TriangleNull(context.Background(), func(b1, b2 float64) float64 {
		return trueModulus(b1, b2)
	}, 1000, randx.NewSource(12))
	require.NoError(t, err)
	require.Len(t, null.Values, 1000)
	for _, v := range null.Values {
		assert.Less(t, v, 1.0, "triangle draws are stationary")
	}
}

func TestPermutationPValuesUniformUnderNull(t *testing.T) {
	if testing.Short() {
		t.Skip("uniformity sweep is slow")
	}

	// With observed statistics drawn from the same distribution as the
	// null, p-values must be approximately uniform on [0,1]. Checked
	// with a coarse Kolmogorov-Smirnov bound.
	const trials = 400
	pvals := make([]float64, 0, trials)
	for i := int64(0); i < trials; i++ {
		src := randx.NewSource(5000 + i)
		null, err := TriangleNull(context.Background(), func(b1, b2 float64) float64 {
			return trueModulus(b1, b2)
		}, 200, src)
		require.NoError(t, err)

		obsB1, obsB2 := roots.SampleTriangle(src.Stream(999999))
		res, err := Enrichment(trueModulus(obsB1, obsB2), null, TailUpper)
		require.NoError(t, err)
		pvals = append(pvals, res.PValue)
	}

	sort.Float64s(pvals)
	maxDev := 0.0
	for i, p := range pvals {
		dev := math.Abs(p - float64(i+1)/float64(len(pvals)))
		if dev > maxDev {
			maxDev = dev
		}
	}
	// KS 1% critical value for n=400 is ~0.0815; allow headroom for
	// the discreteness of a 200-sample null.
	assert.Less(t, maxDev, 0.12, "KS deviation %.4f", maxDev)
}

func TestEnrichmentTails(t *testing.T) {
	null := NullDistribution{Values: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}

	upper, err := Enrichment(9.5, null, TailUpper)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/11.0, upper.PValue, 1e-12)
	assert.Positive(t, upper.EffectSize)

	lower, err := Enrichment(1.5, null, TailLower)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/11.0, lower.PValue, 1e-12)
	assert.Negative(t, lower.EffectSize)
}

func TestEnrichmentEmptyNull(t *testing.T) {
	_, err := Enrichment(1, NullDistribution{}, TailUpper)
	assert.ErrorIs(t, err, ErrEmptyNull)
}

func TestThresholdSweepAndRobustness(t *testing.T) {
	// Observed values concentrated near 0, null spread to 1: the
	// enrichment ratio should exceed 1 across the whole grid.
	observed := []float64{0.05, 0.1, 0.12, 0.2, 0.25}
	null := make([]float64, 100)
	for i := range null {
		null[i] = float64(i) / 100
	}

	sweep := ThresholdSweep(observed, null, ThresholdGrid(0.2, 0.6, 5))
	require.Len(t, sweep, 5)
	assert.True(t, RobustAcrossThresholds(sweep, 1.0))
}

func TestSinglePointSpikeNotRobust(t *testing.T) {
	// Enriched at exactly one cutoff, depleted elsewhere.
	observed := []float64{0.29, 0.3, 0.31, 0.9, 0.95, 0.99}
	null := make([]float64, 100)
	for i := range null {
		null[i] = float64(i) / 100
	}

	sweep := ThresholdSweep(observed, null, ThresholdGrid(0.3, 0.7, 5))
	assert.False(t, RobustAcrossThresholds(sweep, 1.0))
}

func TestNullCancellationLeavesNoPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	nd, err := TriangleNull(ctx, func(b1, b2 float64) float64 { return b1 }, 5000, randx.NewSource(13))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, nd.Values, "canceled runs must not expose partial values")
}
