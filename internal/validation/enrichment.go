package validation

import "math"

// Tail selects which side of the null distribution counts as extreme.
type Tail string

const (
	TailUpper    Tail = "upper"
	TailLower    Tail = "lower"
	TailTwoSided Tail = "two-sided"
)

// EnrichmentResult compares an observed statistic against a null
// distribution.
type EnrichmentResult struct {
	Observed    float64
	NullMean    float64
	NullStd     float64
	PValue      float64
	EffectSize  float64 // (observed − nullMean)/nullStd
	Significant bool    // p < 0.05
}

// Enrichment computes the empirical tail p-value with the add-one
// correction (p can never be exactly 0 from a finite null) and the
// standardized effect size.
func Enrichment(observed float64, null NullDistribution, tail Tail) (EnrichmentResult, error) {
	n := len(null.Values)
	if n == 0 {
		return EnrichmentResult{}, ErrEmptyNull
	}

	mean := null.Mean()
	std := null.Std()

	extreme := 0
	for _, v := range null.Values {
		switch tail {
		case TailLower:
			if v <= observed {
				extreme++
			}
		case TailTwoSided:
			if math.Abs(v-mean) >= math.Abs(observed-mean) {
				extreme++
			}
		default:
			if v >= observed {
				extreme++
			}
		}
	}
	p := float64(extreme+1) / float64(n+1)

	effect := 0.0
	if std > 0 {
		effect = (observed - mean) / std
	}

	return EnrichmentResult{
		Observed:    observed,
		NullMean:    mean,
		NullStd:     std,
		PValue:      p,
		EffectSize:  effect,
		Significant: p < 0.05,
	}, nil
}

// SweepPoint is one rung of a threshold sweep: the fraction of
// observed and null values inside the band (value <= threshold) and
// their ratio.
type SweepPoint struct {
	Threshold        float64
	ObservedFraction float64
	NullFraction     float64
	Ratio            float64
}

// ThresholdSweep recomputes the observed-vs-null fraction-inside-band
// over a grid of thresholds. A single cutoff with ratio > 1 is weak
// evidence; RobustAcrossThresholds asks for the whole range.
func ThresholdSweep(observed, null []float64, thresholds []float64) []SweepPoint {
	out := make([]SweepPoint, 0, len(thresholds))
	for _, th := range thresholds {
		obs := fractionBelow(observed, th)
		nul := fractionBelow(null, th)
		ratio := math.Inf(1)
		switch {
		case nul > 0:
			ratio = obs / nul
		case obs == 0:
			ratio = 0
		}
		out = append(out, SweepPoint{
			Threshold:        th,
			ObservedFraction: obs,
			NullFraction:     nul,
			Ratio:            ratio,
		})
	}
	return out
}

// RobustAcrossThresholds reports whether the enrichment ratio stays
// above minRatio at every sweep point. A spike at one threshold with
// sub-unity ratios around it is a threshold artifact, not structure.
func RobustAcrossThresholds(sweep []SweepPoint, minRatio float64) bool {
	if len(sweep) == 0 {
		return false
	}
	for _, p := range sweep {
		if !(p.Ratio > minRatio) {
			return false
		}
	}
	return true
}

// ThresholdGrid builds an evenly spaced grid of count thresholds over
// [lo, hi].
func ThresholdGrid(lo, hi float64, count int) []float64 {
	if count < 2 {
		return []float64{lo}
	}
	out := make([]float64, count)
	step := (hi - lo) / float64(count-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func fractionBelow(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v <= threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}
