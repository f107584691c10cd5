// Package roots resolves the AR(2) characteristic polynomial
// λ² − β1·λ − β2 = 0 into an eigenvalue-based persistence metric and a
// stability classification.
package roots

import (
	"math"
	"math/rand"
)

// Root is the tagged result of solving the characteristic polynomial:
// either two real roots or a conjugate complex pair. The closed type
// set means downstream code can never read a field that does not exist
// for the case at hand.
type Root interface {
	// Modulus is the persistence metric: the magnitude of the dominant
	// root. Values near 1 mean perturbations decay slowly.
	Modulus() float64

	isRoot()
}

// Real holds two real roots, ordered |Lambda1| >= |Lambda2|.
type Real struct {
	Lambda1, Lambda2 float64
}

func (r Real) Modulus() float64 {
	return math.Abs(r.Lambda1)
}

func (Real) isRoot() {}

// Complex holds a conjugate pair in polar form.
type Complex struct {
	R     float64 // modulus
	Theta float64 // angle in radians, (0, π)
}

func (c Complex) Modulus() float64 {
	return c.R
}

func (Complex) isRoot() {}

// Class describes the qualitative dynamics implied by the roots.
type Class string

const (
	SelfReinforcing Class = "self-reinforcing" // real dominant root > 0: monotonic decay/growth
	Alternating     Class = "alternating"      // real dominant root < 0: sign-flipping
	Oscillatory     Class = "oscillatory"      // complex pair: damped oscillation
	NearCritical    Class = "near-critical"    // modulus within [0.95, 1)
	Unstable        Class = "unstable"         // modulus >= 1
)

// Strength buckets the persistence modulus for reporting.
type Strength string

const (
	Negligible Strength = "negligible" // < 0.5
	Weak       Strength = "weak"       // [0.5, 0.7)
	Moderate   Strength = "moderate"   // [0.7, 0.85)
	Strong     Strength = "strong"     // [0.85, 0.95)
	Critical   Strength = "critical"   // >= 0.95
)

// Resolution is the full outcome of root analysis for one fit.
type Resolution struct {
	Root     Root
	Class    Class
	Strength Strength

	// ImpliedPeriod is 2π/θ in sampling units for complex roots, 0
	// otherwise. Callers multiply by the sampling interval.
	ImpliedPeriod float64

	// InTriangle reports stationarity-triangle membership. A fitted
	// model can land outside the triangle through estimation noise;
	// that is flagged here, never corrected.
	InTriangle bool
}

func (r Resolution) Modulus() float64 {
	return r.Root.Modulus()
}

func (r Resolution) IsComplex() bool {
	_, ok := r.Root.(Complex)
	return ok
}

// Resolve solves the characteristic polynomial for the given
// coefficients and classifies the dynamics.
func Resolve(beta1, beta2 float64) Resolution {
	disc := beta1*beta1 + 4*beta2

	var root Root
	var class Class
	var period float64

	if disc < 0 {
		r := math.Sqrt(-beta2)
		theta := math.Atan2(math.Sqrt(-disc)/2, beta1/2)
		root = Complex{R: r, Theta: theta}
		class = Oscillatory
		if theta != 0 {
			period = 2 * math.Pi / theta
		}
	} else {
		s := math.Sqrt(disc)
		l1 := (beta1 + s) / 2
		l2 := (beta1 - s) / 2
		if math.Abs(l2) > math.Abs(l1) {
			l1, l2 = l2, l1
		}
		root = Real{Lambda1: l1, Lambda2: l2}
		if l1 >= 0 {
			class = SelfReinforcing
		} else {
			class = Alternating
		}
	}

	mod := root.Modulus()
	switch {
	case mod >= 1.0:
		class = Unstable
	case mod >= 0.95 && disc >= 0:
		// Complex pairs keep their oscillatory label below modulus 1;
		// criticality shows up in Strength and in the boundary
		// proximity diagnostic.
		class = NearCritical
	}

	return Resolution{
		Root:          root,
		Class:         class,
		Strength:      strength(mod),
		ImpliedPeriod: period,
		InTriangle:    InTriangle(beta1, beta2),
	}
}

func strength(mod float64) Strength {
	switch {
	case mod >= 0.95:
		return Critical
	case mod >= 0.85:
		return Strong
	case mod >= 0.7:
		return Moderate
	case mod >= 0.5:
		return Weak
	default:
		return Negligible
	}
}

// InTriangle reports whether (β1, β2) lies strictly inside the AR(2)
// stationarity region: β2 > −1, β2 < 1 − β1, β2 < 1 + β1.
func InTriangle(beta1, beta2 float64) bool {
	return beta2 > -1 && beta2 < 1-beta1 && beta2 < 1+beta1
}

// SampleTriangle draws (β1, β2) uniformly from inside the stationarity
// triangle by rejection. Used for coefficient-space null models.
func SampleTriangle(rng *rand.Rand) (float64, float64) {
	for {
		b1 := rng.Float64()*4 - 2  // β1 ∈ (−2, 2)
		b2 := rng.Float64()*2 - 1  // β2 ∈ (−1, 1)
		if InTriangle(b1, b2) {
			return b1, b2
		}
	}
}
