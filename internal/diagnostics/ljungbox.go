package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// LjungBoxResult holds the residual-whiteness test outcome. Passed
// means p > 0.05: no detectable autocorrelation left in the residuals,
// i.e. the model captured the temporal structure.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	Passed    bool
}

// LjungBox computes the portmanteau statistic
// Q = n(n+2) Σ_k ρ_k²/(n−k) over residual autocorrelations up to
// maxLag, with a chi-squared reference on maxLag − fittedParams
// degrees of freedom. Series too short for even one usable lag pass
// vacuously with p = 1.
func LjungBox(residuals []float64, maxLag, fittedParams int) LjungBoxResult {
	n := len(residuals)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 1 || n < 3 {
		return LjungBoxResult{PValue: 1, Lags: maxLag, Passed: true}
	}

	acf := autocorrelation(residuals, maxLag)
	q := 0.0
	for k := 1; k <= maxLag; k++ {
		q += acf[k] * acf[k] / float64(n-k)
	}
	q *= float64(n) * float64(n+2)

	df := maxLag - fittedParams
	if df < 1 {
		df = 1
	}

	chi := distuv.ChiSquared{K: float64(df)}
	p := 1 - chi.CDF(q)
	if math.IsNaN(p) {
		p = 1
	}

	return LjungBoxResult{
		Statistic: q,
		PValue:    p,
		Lags:      maxLag,
		Passed:    p > 0.05,
	}
}

// DefaultLag picks the test lag for a residual series of length n:
// min(8, n/2 − 1), never below 1.
func DefaultLag(n int) int {
	lag := n/2 - 1
	if lag > 8 {
		lag = 8
	}
	if lag < 1 {
		lag = 1
	}
	return lag
}

func autocorrelation(xs []float64, maxLag int) []float64 {
	n := len(xs)
	mean := 0.0
	for _, v := range xs {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range xs {
		d := v - mean
		variance += d * d
	}

	acf := make([]float64, maxLag+1)
	acf[0] = 1
	if variance == 0 {
		return acf
	}
	for k := 1; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (xs[i] - mean) * (xs[i-k] - mean)
		}
		acf[k] = sum / variance
	}
	return acf
}
