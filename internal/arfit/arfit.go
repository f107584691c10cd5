// Package arfit estimates autoregressive models by ordinary least
// squares. The AR(2) fit is the persistence workhorse; AR(1) and AR(3)
// fits on the same effective window support model-order comparison.
package arfit

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MinEffectiveRows is the smallest usable design-matrix height. Below
// this the fit degrades to an explicit null model instead of erroring.
const MinEffectiveRows = 4

// Fit holds the result of fitting x_t = β1·x_{t-1} + ... + βp·x_{t-p} + ε_t
// on a mean-centered series. Immutable after creation.
type Fit struct {
	Order     int
	Coeffs    []float64 // β1..βp
	Residuals []float64
	R2        float64
	N         int // effective sample size (rows in the design matrix)

	// Degenerate marks a null/zero model returned for constant series,
	// near-singular design matrices, or too few usable rows. Downstream
	// consumers must treat the coefficients as uninformative.
	Degenerate bool

	sigma2 float64 // ML residual variance
}

// Beta1 and Beta2 are convenience accessors for the AR(2) case.
func (f Fit) Beta1() float64 {
	if len(f.Coeffs) > 0 {
		return f.Coeffs[0]
	}
	return 0
}

func (f Fit) Beta2() float64 {
	if len(f.Coeffs) > 1 {
		return f.Coeffs[1]
	}
	return 0
}

// AIC is Akaike's information criterion under Gaussian innovations.
func (f Fit) AIC() float64 {
	if f.Degenerate || f.N == 0 {
		return math.Inf(1)
	}
	return float64(f.N)*math.Log(maxf(f.sigma2, 1e-300)) + 2*float64(f.Order)
}

// BIC is the Schwarz criterion; it penalizes order harder than AIC.
func (f Fit) BIC() float64 {
	if f.Degenerate || f.N == 0 {
		return math.Inf(1)
	}
	return float64(f.N)*math.Log(maxf(f.sigma2, 1e-300)) + float64(f.Order)*math.Log(float64(f.N))
}

// AR2 fits a second-order model. See AR for semantics.
func AR2(values []float64) Fit {
	return AR(values, 2)
}

// AR fits an order-p model by OLS over the lagged design matrix. The
// series is mean-centered first, so no intercept column is needed.
// Degenerate inputs (constant series, singular design, fewer than
// MinEffectiveRows usable rows) return a flagged zero model, never an
// error: a channel that cannot be fit is still a reportable result.
func AR(values []float64, order int) Fit {
	if order < 1 {
		order = 1
	}
	n := len(values) - order
	null := Fit{Order: order, Coeffs: make([]float64, order), Degenerate: true, N: maxi(n, 0)}
	if n < MinEffectiveRows {
		return null
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	centered := make([]float64, len(values))
	variance := 0.0
	for i, v := range values {
		centered[i] = v - mean
		variance += centered[i] * centered[i]
	}
	if variance < 1e-12 {
		return null // constant series
	}

	x := mat.NewDense(n, order, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < order; j++ {
			x.Set(i, j, centered[order+i-1-j])
		}
		y.SetVec(i, centered[order+i])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		if _, isCond := err.(mat.Condition); !isCond {
			return null
		}
		// Ill-conditioned but solvable; keep the estimate. Boundary
		// diagnostics downstream will reflect the uncertainty.
	}

	coeffs := make([]float64, order)
	for j := 0; j < order; j++ {
		c := beta.AtVec(j)
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return null
		}
		coeffs[j] = c
	}

	residuals := make([]float64, n)
	ssRes, ssTot := 0.0, 0.0
	yMean := 0.0
	for i := 0; i < n; i++ {
		yMean += y.AtVec(i)
	}
	yMean /= float64(n)
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < order; j++ {
			pred += coeffs[j] * x.At(i, j)
		}
		residuals[i] = y.AtVec(i) - pred
		ssRes += residuals[i] * residuals[i]
		d := y.AtVec(i) - yMean
		ssTot += d * d
	}

	r2 := 0.0
	if ssTot > 0 {
		r2 = maxf(0, 1-ssRes/ssTot)
	}

	return Fit{
		Order:     order,
		Coeffs:    coeffs,
		Residuals: residuals,
		R2:        r2,
		N:         n,
		sigma2:    ssRes / float64(n),
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}
