package series

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evenSeries(n int) TimeSeries {
	times := make([]float64, n)
	values := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * 2
		values[i] = math.Sin(float64(i))
	}
	return New("per1", "log2(cpm)", times, values)
}

func TestValidateOK(t *testing.T) {
	v := Validate(evenSeries(12))
	require.True(t, v.OK())
	assert.Empty(t, v.Warnings)
}

func TestValidateTooShort(t *testing.T) {
	v := Validate(evenSeries(4))
	require.False(t, v.OK())
	assert.ErrorIs(t, v.Err, ErrInsufficientData)
}

func TestValidateNonMonotonic(t *testing.T) {
	ts := evenSeries(8)
	ts.Times[3] = ts.Times[2]
	v := Validate(ts)
	assert.ErrorIs(t, v.Err, ErrNonMonotonicTime)
}

func TestValidateNonFinite(t *testing.T) {
	ts := evenSeries(8)
	ts.Values[5] = math.NaN()
	v := Validate(ts)
	assert.ErrorIs(t, v.Err, ErrNonFiniteValue)
}

func TestValidateLengthMismatch(t *testing.T) {
	ts := evenSeries(8)
	ts.Values = ts.Values[:7]
	v := Validate(ts)
	assert.ErrorIs(t, v.Err, ErrLengthMismatch)
}

func TestValidateUnevenSpacingWarns(t *testing.T) {
	ts := evenSeries(10)
	ts.Times[5] += 0.8
	v := Validate(ts)
	require.True(t, v.OK(), "uneven spacing must warn, not fail")
	assert.NotEmpty(t, v.Warnings)
}

func TestSamplingInterval(t *testing.T) {
	assert.InDelta(t, 2.0, evenSeries(10).SamplingInterval(), 1e-12)
}

func TestCentered(t *testing.T) {
	ts := New("c", "", []float64{0, 1, 2}, []float64{1, 2, 3})
	got := ts.Centered()
	assert.InDelta(t, -1, got[0], 1e-12)
	assert.InDelta(t, 0, got[1], 1e-12)
	assert.InDelta(t, 1, got[2], 1e-12)
}
