// Package synth generates synthetic time series with known ground
// truth: AR(2) processes, sinusoids, noise and random walks. Used by
// the bench command and by the property tests that check estimator
// accuracy against a known generating process.
package synth

import (
	"math"
	"math/rand"

	"github.com/san-kum/chronostat/internal/series"
)

// burnIn discards initial transients so AR samples start near the
// stationary distribution.
const burnIn = 50

// AR2 simulates x_t = β1·x_{t-1} + β2·x_{t-2} + ε_t with Gaussian
// innovations of standard deviation sigma.
func AR2(n int, beta1, beta2, sigma float64, rng *rand.Rand) []float64 {
	total := n + burnIn
	x := make([]float64, total)
	for t := 2; t < total; t++ {
		x[t] = beta1*x[t-1] + beta2*x[t-2] + sigma*rng.NormFloat64()
	}
	return x[burnIn:]
}

// Sinusoid samples amplitude·cos(2πt/period − phase) + noise at unit
// offsets scaled by dt.
func Sinusoid(n int, dt, period, amplitude, phase, sigma float64, rng *rand.Rand) []float64 {
	x := make([]float64, n)
	for t := range x {
		x[t] = amplitude * math.Cos(2*math.Pi*float64(t)*dt/period-phase)
		if sigma > 0 {
			x[t] += sigma * rng.NormFloat64()
		}
	}
	return x
}

// WhiteNoise samples i.i.d. Gaussians.
func WhiteNoise(n int, sigma float64, rng *rand.Rand) []float64 {
	x := make([]float64, n)
	for t := range x {
		x[t] = sigma * rng.NormFloat64()
	}
	return x
}

// RandomWalk accumulates Gaussian steps; it is non-stationary by
// construction and useful for exercising unit-root diagnostics.
func RandomWalk(n int, sigma float64, rng *rand.Rand) []float64 {
	x := make([]float64, n)
	for t := 1; t < n; t++ {
		x[t] = x[t-1] + sigma*rng.NormFloat64()
	}
	return x
}

// Series wraps raw values into a TimeSeries sampled every dt units.
func Series(name, unit string, dt float64, values []float64) series.TimeSeries {
	times := make([]float64, len(values))
	for i := range times {
		times[i] = float64(i) * dt
	}
	return series.New(name, unit, times, values)
}

// Generator is a named recipe producing a fresh series per call, in
// the style of a model registry: the bench command looks generators up
// by name.
type Generator struct {
	Name string
	Make func(n int, dt float64, rng *rand.Rand) []float64
}

// Registry returns the built-in generators.
func Registry() map[string]Generator {
	reg := map[string]Generator{
		"ar2-damped": {
			Name: "ar2-damped",
			Make: func(n int, dt float64, rng *rand.Rand) []float64 {
				return AR2(n, 0.5, 0.3, 1.0, rng)
			},
		},
		"ar2-oscillatory": {
			Name: "ar2-oscillatory",
			Make: func(n int, dt float64, rng *rand.Rand) []float64 {
				return AR2(n, 1.2, -0.7, 1.0, rng)
			},
		},
		"sinusoid-24h": {
			Name: "sinusoid-24h",
			Make: func(n int, dt float64, rng *rand.Rand) []float64 {
				return Sinusoid(n, dt, 24, 1.0, 0, 0.2, rng)
			},
		},
		"white-noise": {
			Name: "white-noise",
			Make: func(n int, dt float64, rng *rand.Rand) []float64 {
				return WhiteNoise(n, 1.0, rng)
			},
		},
		"random-walk": {
			Name: "random-walk",
			Make: func(n int, dt float64, rng *rand.Rand) []float64 {
				return RandomWalk(n, 1.0, rng)
			},
		},
	}
	return reg
}
