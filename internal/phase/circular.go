package phase

import "math"

// CircularMean averages phases that live on a clock of the given
// period. Naive arithmetic averaging breaks at the wrap-around point
// (the mean of 2h and 22h on a 24h clock is 0h, not 12h), so phases
// are mapped to unit vectors and the resultant angle is taken.
func CircularMean(phases []float64, period float64) float64 {
	if len(phases) == 0 || period <= 0 {
		return 0
	}
	sinSum, cosSum := 0.0, 0.0
	for _, p := range phases {
		a := 2 * math.Pi * p / period
		sinSum += math.Sin(a)
		cosSum += math.Cos(a)
	}
	mean := math.Atan2(sinSum, cosSum) * period / (2 * math.Pi)
	if mean < 0 {
		mean += period
	}
	return mean
}

// CircularSD is the circular standard deviation sqrt(−2·ln R) mapped
// back to clock units, where R is the mean resultant length. R near 1
// (tight clustering) gives SD near 0; R near 0 gives a large SD.
func CircularSD(phases []float64, period float64) float64 {
	n := len(phases)
	if n == 0 || period <= 0 {
		return 0
	}
	sinSum, cosSum := 0.0, 0.0
	for _, p := range phases {
		a := 2 * math.Pi * p / period
		sinSum += math.Sin(a)
		cosSum += math.Cos(a)
	}
	r := math.Sqrt(sinSum*sinSum+cosSum*cosSum) / float64(n)
	if r >= 1 {
		return 0
	}
	if r <= 0 {
		return period / 2
	}
	return math.Sqrt(-2*math.Log(r)) * period / (2 * math.Pi)
}

// wrapPhase maps a time offset into [0, period).
func wrapPhase(hours, period float64) float64 {
	if period <= 0 {
		return hours
	}
	h := math.Mod(hours, period)
	if h < 0 {
		h += period
	}
	return h
}
