// Package phase estimates the time-of-peak of rhythmic series with
// several independent methods and reconciles them through circular
// statistics. The panel is an orthogonal cross-check on the AR(2)
// pipeline: it consumes only the raw series.
package phase

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/chronostat/internal/series"
)

// Estimate is one method's phase reading. PhaseHours is the time of
// peak on the method's fitted period, expressed in the series' time
// unit. Heuristic methods carry explicit warnings instead of analytic
// confidence intervals.
type Estimate struct {
	Method     string
	PhaseHours float64
	Amplitude  float64
	Period     float64
	R2         float64
	CI         Interval
	Heuristic  bool
	Warnings   []string
}

// Interval is a symmetric phase confidence interval in hours.
type Interval struct {
	Lower, Upper float64
}

// Validity thresholds for consensus membership.
const (
	MinR2        = 0.3
	MinAmplitude = 0.01
)

// Valid reports whether the estimate is trustworthy enough to join
// the consensus.
func (e Estimate) Valid() bool {
	return e.R2 > MinR2 && e.Amplitude > MinAmplitude && !math.IsNaN(e.PhaseHours)
}

// Cosinor fits mesor + β·cos(ωt) + γ·sin(ωt) at a fixed period by
// least squares and converts to amplitude/acrophase form. The phase CI
// comes from the analytic delta-method error of the acrophase.
func Cosinor(ts series.TimeSeries, period float64) Estimate {
	est := Estimate{Method: fmt.Sprintf("cosinor-%gh", period), Period: period}
	n := ts.Len()
	if n < 4 || period <= 0 {
		est.Warnings = append(est.Warnings, "insufficient data for cosinor fit")
		est.PhaseHours = math.NaN()
		return est
	}

	omega := 2 * math.Pi / period

	// Least squares on X = [1, cos(ωt), sin(ωt)].
	design := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	var sx float64
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		design.Set(i, 1, math.Cos(omega*ts.Times[i]))
		design.Set(i, 2, math.Sin(omega*ts.Times[i]))
		y.SetVec(i, ts.Values[i])
		sx += ts.Values[i]
	}

	var b mat.VecDense
	if err := b.SolveVec(design, y); err != nil {
		est.Warnings = append(est.Warnings, "singular cosinor design")
		est.PhaseHours = math.NaN()
		return est
	}
	mesor, beta, gamma := b.AtVec(0), b.AtVec(1), b.AtVec(2)

	amplitude := math.Hypot(beta, gamma)
	// x(t) = M + A·cos(ωt − φ) with φ = atan2(γ, β); peak at t = φ/ω.
	acro := math.Atan2(gamma, beta)
	peak := wrapPhase(acro/omega, period)

	ssRes, ssTot := 0.0, 0.0
	mean := sx / float64(n)
	for i := 0; i < n; i++ {
		pred := mesor + beta*math.Cos(omega*ts.Times[i]) + gamma*math.Sin(omega*ts.Times[i])
		r := ts.Values[i] - pred
		ssRes += r * r
		d := ts.Values[i] - mean
		ssTot += d * d
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = math.Max(0, 1-ssRes/ssTot)
	}

	est.Amplitude = amplitude
	est.PhaseHours = peak
	est.R2 = r2

	// Delta-method acrophase SE: σ·sqrt(2/n)/A radians, the standard
	// single-cosinor approximation for near-even sampling.
	if amplitude > 0 && n > 3 {
		sigma := math.Sqrt(ssRes / float64(n-3))
		seHours := sigma * math.Sqrt(2/float64(n)) / amplitude / omega
		half := 1.96 * seHours
		est.CI = Interval{Lower: peak - half, Upper: peak + half}
	} else {
		est.Warnings = append(est.Warnings, "zero amplitude: phase undefined")
	}

	return est
}

// FreePeriodCosinor grid-searches the period range [lo, hi] at the
// given step and keeps the fit with maximal r². The period itself is
// then an estimate whose uncertainty the analytic phase CI does not
// include, so the result is flagged.
func FreePeriodCosinor(ts series.TimeSeries, lo, hi, step float64) Estimate {
	if step <= 0 {
		step = 0.25
	}
	best := Estimate{Method: "cosinor-free", PhaseHours: math.NaN(), R2: -1}
	for p := lo; p <= hi+1e-9; p += step {
		cand := Cosinor(ts, p)
		if cand.R2 > best.R2 {
			cand.Method = "cosinor-free"
			best = cand
		}
	}
	best.Warnings = append(best.Warnings, "free-period search: period uncertainty unquantified")
	return best
}
