package validation

import "errors"

var (
	// ErrDegenerateBase indicates the original series cannot support a
	// bootstrap because its own AR(2) fit is degenerate.
	ErrDegenerateBase = errors.New("validation: degenerate base fit")

	// ErrTooFewResamples indicates almost all resample refits failed.
	ErrTooFewResamples = errors.New("validation: too few usable resamples")

	// ErrEmptyNull indicates an empty null distribution.
	ErrEmptyNull = errors.New("validation: empty null distribution")
)
