package phase

import "github.com/san-kum/chronostat/internal/series"

// Config tunes the robustness panel. Defaults suit circadian data
// sampled in hours; all of it is caller-overridable because the
// plausible period band is a biological choice, not a derived one.
type Config struct {
	CandidatePeriods []float64 // fixed-period cosinor periods
	PeriodLo         float64   // plausible band for FFT and free search
	PeriodHi         float64
	GridStep         float64 // free-period search resolution
	ClockPeriod      float64 // circular-statistics clock, e.g. 24h
	MaxPhaseSD       float64 // consensus spread bound, hours
	MinAgreement     float64 // fraction of methods that must validate
}

func DefaultConfig() Config {
	return Config{
		CandidatePeriods: []float64{20, 24, 28},
		PeriodLo:         18,
		PeriodHi:         30,
		GridStep:         0.25,
		ClockPeriod:      24,
		MaxPhaseSD:       3,
		MinAgreement:     0.5,
	}
}

// RobustnessResult aggregates the panel into a circular consensus.
// Agreement is the fraction of methods whose estimate passed the
// validity filter; Robust requires both tight spread and majority
// agreement.
type RobustnessResult struct {
	Estimates []Estimate
	MeanPhase float64
	PhaseSD   float64
	Agreement float64
	Robust    bool
}

// Panel runs every estimator on the raw series and reconciles the
// valid ones on the configured clock. It never errors: series the
// methods cannot handle produce invalid estimates with warnings, and
// the consensus simply reports low agreement.
func Panel(ts series.TimeSeries, cfg Config) RobustnessResult {
	if cfg.ClockPeriod <= 0 {
		cfg = DefaultConfig()
	}

	estimates := make([]Estimate, 0, len(cfg.CandidatePeriods)+3)
	for _, p := range cfg.CandidatePeriods {
		estimates = append(estimates, Cosinor(ts, p))
	}
	estimates = append(estimates,
		FreePeriodCosinor(ts, cfg.PeriodLo, cfg.PeriodHi, cfg.GridStep),
		FFTPhase(ts, cfg.PeriodLo, cfg.PeriodHi),
		ZeroCrossing(ts),
	)

	var phases []float64
	for _, e := range estimates {
		if e.Valid() {
			phases = append(phases, e.PhaseHours)
		}
	}

	result := RobustnessResult{Estimates: estimates}
	if len(estimates) > 0 {
		result.Agreement = float64(len(phases)) / float64(len(estimates))
	}
	if len(phases) == 0 {
		return result
	}

	result.MeanPhase = CircularMean(phases, cfg.ClockPeriod)
	result.PhaseSD = CircularSD(phases, cfg.ClockPeriod)
	result.Robust = result.PhaseSD < cfg.MaxPhaseSD && result.Agreement > cfg.MinAgreement
	return result
}
