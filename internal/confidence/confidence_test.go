package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/chronostat/internal/diagnostics"
)

func allPass() diagnostics.Result {
	return diagnostics.Result{
		LjungBox: diagnostics.LjungBoxResult{PValue: 0.5, Passed: true},
		Quality: []diagnostics.Diagnostic{
			{Name: "residual-whiteness", Severity: diagnostics.Warning},
			{Name: "fit-quality", Severity: diagnostics.Warning},
		},
		EdgeCases: []diagnostics.Diagnostic{
			{Name: "trend", Severity: diagnostics.Warning},
			{Name: "sample-size", Severity: diagnostics.Warning},
		},
	}
}

func TestAllPassIsHigh(t *testing.T) {
	a := Score(allPass())
	assert.Equal(t, High, a.Category)
	assert.Equal(t, 100.0, a.Score)
}

func TestScoreMonotoneInCriticalFlags(t *testing.T) {
	// Adding triggered critical diagnostics, all else equal, must
	// never increase the score.
	base := allPass()
	prev := Score(base).Score
	for i := 0; i < 4; i++ {
		base.EdgeCases = append(base.EdgeCases, diagnostics.Diagnostic{
			Name:      "boundary-proximity",
			Triggered: true,
			Severity:  diagnostics.Critical,
		})
		cur := Score(base).Score
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestSingleCriticalCapsAtLow(t *testing.T) {
	r := allPass()
	r.EdgeCases = append(r.EdgeCases, diagnostics.Diagnostic{
		Name: "fit-quality", Triggered: true, Severity: diagnostics.Critical,
	})
	a := Score(r)
	assert.NotEqual(t, High, a.Category)
	assert.NotEqual(t, Moderate, a.Category)
}

func TestTwoCriticalsUnreliable(t *testing.T) {
	r := allPass()
	r.EdgeCases = append(r.EdgeCases,
		diagnostics.Diagnostic{Name: "a", Triggered: true, Severity: diagnostics.Critical},
		diagnostics.Diagnostic{Name: "b", Triggered: true, Severity: diagnostics.Critical},
	)
	assert.Equal(t, Unreliable, Score(r).Category)
}

func TestWarningsDegradeGradually(t *testing.T) {
	r := allPass()
	r.EdgeCases = append(r.EdgeCases, diagnostics.Diagnostic{
		Name: "trend", Triggered: true, Severity: diagnostics.Warning,
	})
	a := Score(r)
	assert.Equal(t, High, a.Category)
	assert.Less(t, a.Score, 100.0)

	r.EdgeCases = append(r.EdgeCases,
		diagnostics.Diagnostic{Name: "sample-size", Triggered: true, Severity: diagnostics.Warning},
		diagnostics.Diagnostic{Name: "stationarity-adf", Triggered: true, Severity: diagnostics.Warning},
	)
	assert.Equal(t, Moderate, Score(r).Category)
}

func TestScoreNeverNegative(t *testing.T) {
	r := allPass()
	for i := 0; i < 10; i++ {
		r.EdgeCases = append(r.EdgeCases, diagnostics.Diagnostic{
			Name: "x", Triggered: true, Severity: diagnostics.Critical,
		})
	}
	assert.GreaterOrEqual(t, Score(r).Score, 0.0)
}
