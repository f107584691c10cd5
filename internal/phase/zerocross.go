package phase

import (
	"math"

	"github.com/san-kum/chronostat/internal/series"
)

// ZeroCrossing estimates period and phase from rising zero crossings
// of the mean-centered series: period from mean crossing spacing,
// phase from the first rising crossing plus a quarter period (the peak
// of a cosine trails its rising crossing by period/4). Explicitly
// heuristic and not publication-grade; it exists as a sanity check the
// regression methods cannot share failure modes with.
func ZeroCrossing(ts series.TimeSeries) Estimate {
	est := Estimate{Method: "zero-crossing", Heuristic: true, PhaseHours: math.NaN()}
	est.Warnings = append(est.Warnings, "heuristic method: not publication-grade")

	n := ts.Len()
	if n < 6 {
		est.Warnings = append(est.Warnings, "insufficient data for crossing detection")
		return est
	}

	centered := ts.Centered()

	// Rising crossings with linear interpolation between samples.
	var crossings []float64
	for i := 1; i < n; i++ {
		if centered[i-1] < 0 && centered[i] >= 0 {
			frac := -centered[i-1] / (centered[i] - centered[i-1])
			crossings = append(crossings, ts.Times[i-1]+frac*(ts.Times[i]-ts.Times[i-1]))
		}
	}
	if len(crossings) < 2 {
		est.Warnings = append(est.Warnings, "fewer than two rising crossings")
		return est
	}

	sum := 0.0
	for i := 1; i < len(crossings); i++ {
		sum += crossings[i] - crossings[i-1]
	}
	period := sum / float64(len(crossings)-1)
	if period <= 0 {
		est.Warnings = append(est.Warnings, "degenerate crossing spacing")
		return est
	}

	est.Period = period
	est.PhaseHours = wrapPhase(crossings[0]+period/4, period)

	// Amplitude proxy: mean absolute excursion scaled to a sinusoid's
	// peak (mean |cos| = 2/π).
	absSum := 0.0
	for _, v := range centered {
		absSum += math.Abs(v)
	}
	est.Amplitude = absSum / float64(n) * math.Pi / 2

	// Crude fit quality: how regular the crossing spacing is.
	if len(crossings) > 2 {
		varSum := 0.0
		for i := 1; i < len(crossings); i++ {
			d := (crossings[i] - crossings[i-1]) - period
			varSum += d * d
		}
		cv := math.Sqrt(varSum/float64(len(crossings)-1)) / period
		est.R2 = math.Max(0, 1-cv)
	} else {
		est.R2 = 0.5
	}

	est.CI = Interval{Lower: est.PhaseHours - period/8, Upper: est.PhaseHours + period/8}
	return est
}
