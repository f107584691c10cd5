package validation

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand"
	"runtime"
	"sync"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/chronostat/internal/randx"
	"github.com/san-kum/chronostat/internal/roots"
)

// DefaultPermutations is the null sample count.
const DefaultPermutations = 2000

// NullMethod names the surrogate scheme behind a null distribution.
type NullMethod string

const (
	// NullPhaseSurrogate preserves the power spectrum and destroys
	// temporal phase alignment.
	NullPhaseSurrogate NullMethod = "phase-surrogate"

	// NullTriangleUniform draws (β1, β2) uniformly from inside the
	// stationarity triangle.
	NullTriangleUniform NullMethod = "triangle-uniform"
)

// NullDistribution is a named collection of surrogate statistic values
// generated under one method with a reproducible seed.
type NullDistribution struct {
	Method NullMethod
	Seed   int64
	Values []float64
}

func (nd NullDistribution) Mean() float64 {
	if len(nd.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range nd.Values {
		sum += v
	}
	return sum / float64(len(nd.Values))
}

func (nd NullDistribution) Std() float64 {
	n := len(nd.Values)
	if n < 2 {
		return 0
	}
	mean := nd.Mean()
	sum := 0.0
	for _, v := range nd.Values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// SeriesStatistic maps a surrogate series to a scalar.
type SeriesStatistic func(values []float64) float64

// CoeffStatistic maps a coefficient pair to a scalar.
type CoeffStatistic func(beta1, beta2 float64) float64

// SurrogateNull builds a null distribution by applying stat to count
// phase-randomized surrogates of the series. Iteration i draws from
// stream i, so the result is independent of worker scheduling, and the
// loop exits between iterations when ctx is canceled.
func SurrogateNull(ctx context.Context, values []float64, stat SeriesStatistic, count int, src *randx.Source) (NullDistribution, error) {
	if count <= 0 {
		count = DefaultPermutations
	}
	out := NullDistribution{Method: NullPhaseSurrogate, Seed: src.Seed(), Values: make([]float64, count)}

	err := parallelEach(ctx, count, func(i int) {
		out.Values[i] = stat(PhaseSurrogate(values, src.Stream(int64(i))))
	})
	if err != nil {
		return NullDistribution{Method: NullPhaseSurrogate, Seed: src.Seed()}, err
	}
	return out, nil
}

// TriangleNull builds a null distribution by applying stat to count
// uniform draws from the stationarity triangle.
func TriangleNull(ctx context.Context, stat CoeffStatistic, count int, src *randx.Source) (NullDistribution, error) {
	if count <= 0 {
		count = DefaultPermutations
	}
	out := NullDistribution{Method: NullTriangleUniform, Seed: src.Seed(), Values: make([]float64, count)}

	err := parallelEach(ctx, count, func(i int) {
		b1, b2 := roots.SampleTriangle(src.Stream(int64(i)))
		out.Values[i] = stat(b1, b2)
	})
	if err != nil {
		return NullDistribution{Method: NullTriangleUniform, Seed: src.Seed()}, err
	}
	return out, nil
}

// PhaseSurrogate returns a surrogate with the same power spectrum as
// the input but uniformly random Fourier phases. Conjugate symmetry is
// maintained so the inverse transform is real.
func PhaseSurrogate(values []float64, rng *rand.Rand) []float64 {
	n := len(values)
	if n < 3 {
		out := make([]float64, n)
		copy(out, values)
		return out
	}

	spectrum := fft.FFTReal(values)
	half := n / 2
	for k := 1; k < half; k++ {
		phi := rng.Float64() * 2 * math.Pi
		mag := cmplx.Abs(spectrum[k])
		spectrum[k] = cmplx.Rect(mag, phi)
		spectrum[n-k] = cmplx.Conj(spectrum[k])
	}
	if n%2 == 0 {
		// Nyquist bin must stay real; a random sign keeps it unbiased.
		if rng.Float64() < 0.5 {
			spectrum[half] = -spectrum[half]
		}
	}

	inverse := fft.IFFT(spectrum)
	out := make([]float64, n)
	for i := range out {
		out[i] = real(inverse[i])
	}
	return out
}

// parallelEach runs fn over [0, n) across a bounded worker pool in
// fixed chunks, checking ctx between iterations. fn(i) must write only
// to index i of shared output, so chunking never affects results.
func parallelEach(ctx context.Context, n int, fn func(i int)) error {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	const minChunk = 64
	if n <= minChunk || workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
		}
		return nil
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				if ctx.Err() != nil {
					return
				}
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()

	return ctx.Err()
}
