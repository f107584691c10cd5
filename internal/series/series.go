package series

import (
	"fmt"
	"math"
	"sort"
)

const (
	// MinTimepoints is the shortest series eligible for AR(2) analysis.
	// Shorter channels are skipped, not analyzed.
	MinTimepoints = 6

	// SpacingTolerance is the maximum relative deviation between
	// consecutive sampling intervals before uneven spacing is flagged.
	SpacingTolerance = 0.05
)

// TimeSeries is an immutable sampled channel: a name, a unit, and
// ordered (time, value) pairs with strictly increasing times.
type TimeSeries struct {
	Name   string
	Unit   string
	Times  []float64
	Values []float64
}

func New(name, unit string, times, values []float64) TimeSeries {
	return TimeSeries{Name: name, Unit: unit, Times: times, Values: values}
}

func (ts TimeSeries) Len() int {
	return len(ts.Values)
}

func (ts TimeSeries) Mean() float64 {
	if len(ts.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range ts.Values {
		sum += v
	}
	return sum / float64(len(ts.Values))
}

func (ts TimeSeries) Variance() float64 {
	n := len(ts.Values)
	if n < 2 {
		return 0
	}
	mean := ts.Mean()
	sum := 0.0
	for _, v := range ts.Values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(n-1)
}

// SamplingInterval returns the median spacing between consecutive
// timepoints, or 0 for series shorter than 2 points.
func (ts TimeSeries) SamplingInterval() float64 {
	if len(ts.Times) < 2 {
		return 0
	}
	diffs := make([]float64, 0, len(ts.Times)-1)
	for i := 1; i < len(ts.Times); i++ {
		diffs = append(diffs, ts.Times[i]-ts.Times[i-1])
	}
	return median(diffs)
}

// Centered returns a copy of the values with the mean removed.
func (ts TimeSeries) Centered() []float64 {
	mean := ts.Mean()
	out := make([]float64, len(ts.Values))
	for i, v := range ts.Values {
		out[i] = v - mean
	}
	return out
}

// Validation is the outcome of sanity-checking a series. Warnings are
// non-fatal; Err is non-nil only when the channel cannot be analyzed.
type Validation struct {
	Warnings []string
	Err      error
}

func (v Validation) OK() bool {
	return v.Err == nil
}

// Validate sanity-checks length, time monotonicity, finiteness and
// spacing. It never mutates the series. Uneven spacing only warns;
// short length or structural defects exclude the channel.
func Validate(ts TimeSeries) Validation {
	var val Validation

	if len(ts.Times) != len(ts.Values) {
		val.Err = fmt.Errorf("%w: %d times vs %d values", ErrLengthMismatch, len(ts.Times), len(ts.Values))
		return val
	}
	if ts.Len() < MinTimepoints {
		val.Err = fmt.Errorf("%w: %d points, need %d", ErrInsufficientData, ts.Len(), MinTimepoints)
		return val
	}

	for i := 1; i < len(ts.Times); i++ {
		if ts.Times[i] <= ts.Times[i-1] {
			val.Err = fmt.Errorf("%w: t[%d]=%g <= t[%d]=%g", ErrNonMonotonicTime, i, ts.Times[i], i-1, ts.Times[i-1])
			return val
		}
	}

	for i, v := range ts.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			val.Err = fmt.Errorf("%w: value at index %d", ErrNonFiniteValue, i)
			return val
		}
	}

	if warn := checkSpacing(ts.Times); warn != "" {
		val.Warnings = append(val.Warnings, warn)
	}

	return val
}

func checkSpacing(times []float64) string {
	if len(times) < 3 {
		return ""
	}
	diffs := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		diffs = append(diffs, times[i]-times[i-1])
	}
	ref := median(diffs)
	if ref == 0 {
		return ""
	}
	for i, d := range diffs {
		if math.Abs(d-ref)/ref > SpacingTolerance {
			return fmt.Sprintf("uneven sampling: interval %d is %.3g vs median %.3g", i, d, ref)
		}
	}
	return ""
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
