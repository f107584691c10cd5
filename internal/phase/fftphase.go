package phase

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/chronostat/internal/series"
)

// fftCIHalfWidth is the fixed heuristic phase uncertainty for the FFT
// method; the discrete bin spacing does not support an analytic CI at
// these series lengths.
const fftCIHalfWidth = 2.0

// FFTPhase reads phase off the dominant Fourier bin whose implied
// period falls inside [periodLo, periodHi]. Requires near-even
// sampling; the estimate is heuristic because the period resolution is
// limited to the bin grid.
func FFTPhase(ts series.TimeSeries, periodLo, periodHi float64) Estimate {
	est := Estimate{Method: "fft", Heuristic: true, PhaseHours: math.NaN()}
	n := ts.Len()
	dt := ts.SamplingInterval()
	if n < 8 || dt <= 0 {
		est.Warnings = append(est.Warnings, "insufficient data for FFT phase")
		return est
	}

	centered := ts.Centered()
	spectrum := fft.FFTReal(centered)

	span := float64(n) * dt
	bestBin := -1
	bestMag := 0.0
	for k := 1; k <= n/2; k++ {
		period := span / float64(k)
		if period < periodLo || period > periodHi {
			continue
		}
		mag := cmplx.Abs(spectrum[k])
		if mag > bestMag {
			bestMag = mag
			bestBin = k
		}
	}
	if bestBin < 0 {
		est.Warnings = append(est.Warnings, "no Fourier bin inside the plausible period band")
		return est
	}

	period := span / float64(bestBin)
	omega := 2 * math.Pi / period

	// Component k contributes cos(ω(t−t0) + θ) with θ = arg(X_k); the
	// peak nearest the series start sits at t = t0 − θ/ω. Reported on
	// the same absolute clock as the cosinor methods.
	theta := cmplx.Phase(spectrum[bestBin])
	peak := wrapPhase(ts.Times[0]-theta/omega, period)

	amplitude := 2 * bestMag / float64(n)

	// r² for the single-harmonic reconstruction.
	ssRes, ssTot := 0.0, 0.0
	for i := 0; i < n; i++ {
		pred := amplitude * math.Cos(omega*ts.Times[i]+theta-omega*ts.Times[0])
		r := centered[i] - pred
		ssRes += r * r
		ssTot += centered[i] * centered[i]
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = math.Max(0, 1-ssRes/ssTot)
	}

	est.Period = period
	est.PhaseHours = peak
	est.Amplitude = amplitude
	est.R2 = r2
	est.CI = Interval{Lower: peak - fftCIHalfWidth, Upper: peak + fftCIHalfWidth}
	est.Warnings = append(est.Warnings, "CI is a fixed heuristic, not analytic")
	return est
}
