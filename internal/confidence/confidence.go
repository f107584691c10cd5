// Package confidence aggregates the diagnostic suite into a single
// categorical and numeric reliability assessment.
package confidence

import "github.com/san-kum/chronostat/internal/diagnostics"

// Category is the four-level reliability label.
type Category string

const (
	High       Category = "High"
	Moderate   Category = "Moderate"
	Low        Category = "Low"
	Unreliable Category = "Unreliable"
)

// Assessment pairs the category with a 0-100 score. Deterministic
// function of the diagnostics set: same inputs, same assessment.
type Assessment struct {
	Category Category
	Score    float64
}

// Deductions per triggered diagnostic. Exact weights are a tuning
// choice; the ordering contract (more or severer flags never raises
// the score) is what the tests pin down.
const (
	infoDeduction     = 3
	warningDeduction  = 12
	criticalDeduction = 40
)

// Score maps the diagnostic set to an assessment. An all-pass set
// scores 100 and maps to High. Any triggered critical diagnostic caps
// the category at Low, and two or more force Unreliable, so degenerate
// input can never present as a confident result.
func Score(result diagnostics.Result) Assessment {
	score := 100.0
	criticals := 0

	for _, d := range result.All() {
		if !d.Triggered {
			continue
		}
		switch d.Severity {
		case diagnostics.Critical:
			score -= criticalDeduction
			criticals++
		case diagnostics.Warning:
			score -= warningDeduction
		case diagnostics.Info:
			score -= infoDeduction
		}
	}
	if score < 0 {
		score = 0
	}

	cat := categorize(score)
	if criticals >= 2 {
		cat = Unreliable
	} else if criticals == 1 && rank(cat) < rank(Low) {
		cat = Low
	}

	return Assessment{Category: cat, Score: score}
}

// ForceUnreliable clamps an assessment to Unreliable. Used for
// degenerate model fits, where no diagnostic arithmetic should be able
// to present the channel as usable.
func ForceUnreliable(a Assessment) Assessment {
	a.Category = Unreliable
	if a.Score > 25 {
		a.Score = 25
	}
	return a
}

func categorize(score float64) Category {
	switch {
	case score >= 80:
		return High
	case score >= 55:
		return Moderate
	case score >= 30:
		return Low
	default:
		return Unreliable
	}
}

func rank(c Category) int {
	switch c {
	case High:
		return 0
	case Moderate:
		return 1
	case Low:
		return 2
	default:
		return 3
	}
}
