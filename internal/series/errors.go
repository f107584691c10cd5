package series

import "errors"

// Channel-level validation errors. Any of these excludes the channel
// from analysis; none of them is fatal to the overall run.
var (
	// ErrInsufficientData indicates a series shorter than MinTimepoints.
	ErrInsufficientData = errors.New("series: insufficient data")

	// ErrNonMonotonicTime indicates timestamps that do not strictly increase.
	ErrNonMonotonicTime = errors.New("series: non-monotonic time")

	// ErrNonFiniteValue indicates a NaN or Inf sample value.
	ErrNonFiniteValue = errors.New("series: non-finite value")

	// ErrLengthMismatch indicates times and values arrays of different length.
	ErrLengthMismatch = errors.New("series: time/value length mismatch")
)
