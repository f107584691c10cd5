// Package diagnostics runs the residual-whiteness test and the
// independent edge-case checks over a fitted channel. Every check is a
// pure function of (series, fit); no check mutates another's output.
package diagnostics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/chronostat/internal/arfit"
	"github.com/san-kum/chronostat/internal/roots"
	"github.com/san-kum/chronostat/internal/series"
)

// Severity grades how much a triggered diagnostic should degrade
// confidence in the persistence estimate.
type Severity string

const (
	Info     Severity = "info"
	Warning  Severity = "warning"
	Critical Severity = "critical"
)

// Diagnostic is one named check. Triggered means the condition of
// concern was detected; Value carries the underlying statistic.
type Diagnostic struct {
	Name        string
	Triggered   bool
	Value       float64
	Explanation string
	Severity    Severity
}

const (
	// AdequateSampleSize is the point count below which reliability
	// degrades even when the fit nominally succeeds.
	AdequateSampleSize = 12

	// BoundaryEpsilon is how close the modulus may sit to 1 before
	// the stability classification stops being robust to noise.
	BoundaryEpsilon = 0.05

	// adfCritical5 is the asymptotic 5% Dickey-Fuller critical value
	// for a regression with constant (MacKinnon 1994).
	adfCritical5 = -2.86
)

// Result bundles everything the confidence scorer consumes.
type Result struct {
	LjungBox  LjungBoxResult
	Quality   []Diagnostic
	EdgeCases []Diagnostic
}

// All returns quality checks and edge cases as one list.
func (r Result) All() []Diagnostic {
	out := make([]Diagnostic, 0, len(r.Quality)+len(r.EdgeCases))
	out = append(out, r.Quality...)
	out = append(out, r.EdgeCases...)
	return out
}

// Run executes the full suite for one channel.
func Run(ts series.TimeSeries, fit arfit.Fit, res roots.Resolution) Result {
	lb := LjungBox(fit.Residuals, DefaultLag(len(fit.Residuals)), fit.Order)

	quality := []Diagnostic{
		whitenessCheck(lb),
		fitQualityCheck(fit),
		triangleCheck(fit, res),
	}

	edge := []Diagnostic{
		TrendCheck(ts),
		SampleSizeCheck(ts.Len()),
		BoundaryCheck(res),
		ModelOrderCheck(ts.Values),
		StationarityCheck(ts.Values),
	}

	return Result{LjungBox: lb, Quality: quality, EdgeCases: edge}
}

func whitenessCheck(lb LjungBoxResult) Diagnostic {
	return Diagnostic{
		Name:        "residual-whiteness",
		Triggered:   !lb.Passed,
		Value:       lb.PValue,
		Explanation: fmt.Sprintf("Ljung-Box Q=%.3f over %d lags, p=%.3f", lb.Statistic, lb.Lags, lb.PValue),
		Severity:    Warning,
	}
}

func fitQualityCheck(fit arfit.Fit) Diagnostic {
	d := Diagnostic{
		Name:     "fit-quality",
		Value:    fit.R2,
		Severity: Warning,
	}
	switch {
	case fit.Degenerate:
		d.Triggered = true
		d.Severity = Critical
		d.Explanation = "degenerate fit: constant series or singular design matrix"
	case fit.R2 < 0.10:
		d.Triggered = true
		d.Explanation = fmt.Sprintf("r²=%.3f: little temporal structure captured", fit.R2)
	default:
		d.Explanation = fmt.Sprintf("r²=%.3f", fit.R2)
	}
	return d
}

func triangleCheck(fit arfit.Fit, res roots.Resolution) Diagnostic {
	return Diagnostic{
		Name:        "stationarity-triangle",
		Triggered:   !res.InTriangle,
		Value:       res.Modulus(),
		Explanation: fmt.Sprintf("(β1=%.3f, β2=%.3f) outside the stationarity region means the point estimate is non-stationary; usually estimation noise near the boundary", fit.Beta1(), fit.Beta2()),
		Severity:    Critical,
	}
}

// TrendCheck tests for systematic drift with an OLS slope t-test.
// Drift before fitting biases AR coefficients toward spurious
// persistence, so a significant slope is flagged.
func TrendCheck(ts series.TimeSeries) Diagnostic {
	d := Diagnostic{Name: "trend", Severity: Warning}
	n := ts.Len()
	if n < 3 {
		d.Explanation = "too short for a trend test"
		return d
	}

	// Slope and its standard error from simple linear regression on time.
	tMean, xMean := 0.0, 0.0
	for i := 0; i < n; i++ {
		tMean += ts.Times[i]
		xMean += ts.Values[i]
	}
	tMean /= float64(n)
	xMean /= float64(n)

	sxx, sxy := 0.0, 0.0
	for i := 0; i < n; i++ {
		dt := ts.Times[i] - tMean
		sxx += dt * dt
		sxy += dt * (ts.Values[i] - xMean)
	}
	if sxx == 0 {
		d.Explanation = "zero time variance"
		return d
	}
	slope := sxy / sxx

	sse := 0.0
	for i := 0; i < n; i++ {
		pred := xMean + slope*(ts.Times[i]-tMean)
		r := ts.Values[i] - pred
		sse += r * r
	}
	df := float64(n - 2)
	se := math.Sqrt(sse / df / sxx)
	if se == 0 {
		d.Explanation = "degenerate residuals in trend regression"
		return d
	}

	tStat := slope / se
	student := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - student.CDF(math.Abs(tStat)))

	d.Value = p
	d.Triggered = p < 0.05
	d.Explanation = fmt.Sprintf("slope=%.4g per time unit, t=%.2f, p=%.3f", slope, tStat, p)
	return d
}

// SampleSizeCheck flags short series: below AdequateSampleSize the fit
// is reported but unreliable, and very short series are critical.
func SampleSizeCheck(n int) Diagnostic {
	d := Diagnostic{Name: "sample-size", Value: float64(n), Severity: Warning}
	switch {
	case n < series.MinTimepoints+2:
		d.Triggered = true
		d.Severity = Critical
		d.Explanation = fmt.Sprintf("%d points: barely above the analysis minimum", n)
	case n < AdequateSampleSize:
		d.Triggered = true
		d.Explanation = fmt.Sprintf("%d points: fewer than %d degrades reliability", n, AdequateSampleSize)
	default:
		d.Explanation = fmt.Sprintf("%d points", n)
	}
	return d
}

// BoundaryCheck flags a modulus within BoundaryEpsilon of 1: the
// stable/unstable call is then not robust to estimation noise.
func BoundaryCheck(res roots.Resolution) Diagnostic {
	mod := res.Modulus()
	dist := math.Abs(mod - 1)
	return Diagnostic{
		Name:        "boundary-proximity",
		Triggered:   dist < BoundaryEpsilon,
		Value:       mod,
		Explanation: fmt.Sprintf("modulus %.3f is %.3f from the unit circle", mod, dist),
		Severity:    Critical,
	}
}

// ModelOrderCheck compares AR(1)/AR(2)/AR(3) by BIC on the same
// effective window. A preferred lower or higher order is flagged as
// informational: order preference and the AR(2) persistence metric
// answer different questions, so the modulus stays reported either way.
func ModelOrderCheck(values []float64) Diagnostic {
	d := Diagnostic{Name: "model-order", Severity: Info}
	if len(values) < 3+arfit.MinEffectiveRows {
		d.Explanation = "too short for order comparison"
		return d
	}

	// Trim the head so every order sees the same target window.
	window := values[1:]
	bics := [3]float64{
		arfit.AR(window[1:], 1).BIC(),
		arfit.AR(window, 2).BIC(),
		arfit.AR(values, 3).BIC(),
	}

	best := 0
	for i := 1; i < 3; i++ {
		if bics[i] < bics[best] {
			best = i
		}
	}
	d.Value = float64(best + 1)
	if best != 1 {
		d.Triggered = true
		d.Explanation = fmt.Sprintf("BIC prefers AR(%d) over AR(2); persistence modulus still reported from AR(2)", best+1)
	} else {
		d.Explanation = "BIC prefers AR(2)"
	}
	return d
}

// StationarityCheck is an augmented Dickey-Fuller unit-root test with
// constant and one lagged difference:
//
//	Δx_t = α + γ·x_{t−1} + δ·Δx_{t−1} + ε_t
//
// Failing to reject γ=0 at the asymptotic 5% critical value suggests a
// unit root, i.e. the series is not approximately stationary.
func StationarityCheck(values []float64) Diagnostic {
	d := Diagnostic{Name: "stationarity-adf", Severity: Warning}
	n := len(values)
	if n < 8 {
		d.Explanation = "too short for a unit-root test"
		return d
	}

	rows := n - 2
	y := make([]float64, rows)    // Δx_t
	x1 := make([]float64, rows)   // x_{t−1}
	x2 := make([]float64, rows)   // Δx_{t−1}
	for i := 0; i < rows; i++ {
		t := i + 2
		y[i] = values[t] - values[t-1]
		x1[i] = values[t-1]
		x2[i] = values[t-1] - values[t-2]
	}

	gamma, se, ok := olsCoefficientSE(y, x1, x2)
	if !ok {
		d.Explanation = "degenerate ADF regression"
		return d
	}

	tStat := gamma / se
	d.Value = tStat
	d.Triggered = tStat > adfCritical5
	d.Explanation = fmt.Sprintf("ADF t=%.2f vs %.2f critical: %s", tStat, adfCritical5,
		map[bool]string{true: "cannot reject unit root", false: "unit root rejected"}[d.Triggered])
	return d
}

// olsCoefficientSE regresses y on [1, x1, x2] and returns the x1
// coefficient with its standard error.
func olsCoefficientSE(y, x1, x2 []float64) (coef, se float64, ok bool) {
	rows := len(y)
	if rows < 5 {
		return 0, 0, false
	}

	design := mat.NewDense(rows, 3, nil)
	yv := mat.NewVecDense(rows, nil)
	for i := range y {
		design.Set(i, 0, 1)
		design.Set(i, 1, x1[i])
		design.Set(i, 2, x2[i])
		yv.SetVec(i, y[i])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(design, yv); err != nil {
		return 0, 0, false
	}

	var xtx, inv mat.Dense
	xtx.Mul(design.T(), design)
	if err := inv.Inverse(&xtx); err != nil {
		return 0, 0, false
	}

	sse := 0.0
	for i := range y {
		pred := beta.AtVec(0) + beta.AtVec(1)*x1[i] + beta.AtVec(2)*x2[i]
		r := y[i] - pred
		sse += r * r
	}
	df := float64(rows - 3)
	if df <= 0 {
		return 0, 0, false
	}
	variance := sse / df * inv.At(1, 1)
	if variance <= 0 || math.IsNaN(variance) {
		return 0, 0, false
	}
	return beta.AtVec(1), math.Sqrt(variance), true
}
