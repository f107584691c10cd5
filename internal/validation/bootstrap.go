// Package validation provides bootstrap confidence intervals,
// null-distribution generation and enrichment statistics for the
// persistence metric. Every randomized routine takes an explicit
// randx.Source and draws one stream per iteration, so results are
// bit-reproducible regardless of scheduling, and every loop checks for
// cancellation between iterations.
package validation

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/san-kum/chronostat/internal/arfit"
	"github.com/san-kum/chronostat/internal/randx"
	"github.com/san-kum/chronostat/internal/roots"
)

// DefaultResamples is the bootstrap resample count.
const DefaultResamples = 1000

// BootstrapMethod selects the resampling scheme.
type BootstrapMethod string

const (
	// MethodResidual rebuilds series from the fitted model with
	// residuals resampled with replacement.
	MethodResidual BootstrapMethod = "residual"

	// MethodBlock resamples overlapping blocks of the raw series,
	// preserving short-range dependence; appropriate for short series
	// where the fitted model itself is in doubt.
	MethodBlock BootstrapMethod = "block"
)

// BootstrapCI is an empirical percentile interval on the eigenvalue
// modulus.
type BootstrapCI struct {
	Lower, Upper float64 // 2.5 / 97.5 percentiles
	Median       float64
	Method       BootstrapMethod
	Resamples    int // resamples that produced a usable refit
}

// Contains reports whether v lies inside the interval.
func (ci BootstrapCI) Contains(v float64) bool {
	return v >= ci.Lower && v <= ci.Upper
}

// BootstrapModulusCI refits AR(2) on count resamples of the series and
// returns the empirical 95% interval of the dominant-root modulus.
// Degenerate refits are dropped; the interval reports how many
// resamples survived.
func BootstrapModulusCI(ctx context.Context, values []float64, method BootstrapMethod, count int, src *randx.Source) (BootstrapCI, error) {
	if count <= 0 {
		count = DefaultResamples
	}

	base := arfit.AR2(values)
	if base.Degenerate {
		return BootstrapCI{Method: method}, ErrDegenerateBase
	}

	moduli := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		if i%64 == 0 {
			select {
			case <-ctx.Done():
				return BootstrapCI{Method: method}, ctx.Err()
			default:
			}
		}

		rng := src.Stream(int64(i))
		var resample []float64
		switch method {
		case MethodBlock:
			resample = blockResample(values, rng)
		default:
			resample = residualResample(values, base, rng)
		}

		fit := arfit.AR2(resample)
		if fit.Degenerate {
			continue
		}
		moduli = append(moduli, roots.Resolve(fit.Beta1(), fit.Beta2()).Modulus())
	}

	if len(moduli) < 10 {
		return BootstrapCI{Method: method}, ErrTooFewResamples
	}

	lower, err := stats.Percentile(moduli, 2.5)
	if err != nil {
		return BootstrapCI{Method: method}, err
	}
	upper, err := stats.Percentile(moduli, 97.5)
	if err != nil {
		return BootstrapCI{Method: method}, err
	}
	median, err := stats.Median(moduli)
	if err != nil {
		return BootstrapCI{Method: method}, err
	}

	return BootstrapCI{
		Lower:     lower,
		Upper:     upper,
		Median:    median,
		Method:    method,
		Resamples: len(moduli),
	}, nil
}

// residualResample simulates the fitted AR(2) forward with residuals
// drawn with replacement, keeping the original mean level.
func residualResample(values []float64, fit arfit.Fit, rng interface{ Intn(int) int }) []float64 {
	n := len(values)
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	out := make([]float64, n)
	out[0] = values[0]
	out[1] = values[1]
	for t := 2; t < n; t++ {
		eps := fit.Residuals[rng.Intn(len(fit.Residuals))]
		out[t] = mean + fit.Beta1()*(out[t-1]-mean) + fit.Beta2()*(out[t-2]-mean) + eps
	}
	return out
}

// blockResample concatenates overlapping blocks of length ~sqrt(n)
// drawn uniformly, trimmed to the original length.
func blockResample(values []float64, rng interface{ Intn(int) int }) []float64 {
	n := len(values)
	blockLen := int(math.Round(math.Sqrt(float64(n))))
	if blockLen < 2 {
		blockLen = 2
	}
	if blockLen > n {
		blockLen = n
	}

	out := make([]float64, 0, n+blockLen)
	for len(out) < n {
		start := rng.Intn(n - blockLen + 1)
		out = append(out, values[start:start+blockLen]...)
	}
	return out[:n]
}
