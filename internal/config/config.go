package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/chronostat/internal/phase"
	"github.com/san-kum/chronostat/internal/validation"
)

const (
	DefaultSeed         = 1
	DefaultResamples    = 1000
	DefaultPermutations = 2000
	DefaultWorkers      = 0 // 0: one goroutine per channel

	// DefaultReferenceAngle is the golden angle 2π(1 − 1/φ) in
	// radians. It is an imposed geometric choice carried as
	// configuration; nothing in the engine validates or derives it.
	DefaultReferenceAngle   = 2.399963229728653
	DefaultReferenceModulus = 0.85
)

type Config struct {
	Seed            int64  `yaml:"seed"`
	Resamples       int    `yaml:"resamples"`
	Permutations    int    `yaml:"permutations"`
	BootstrapMethod string `yaml:"bootstrap_method"`
	Workers         int    `yaml:"workers"`

	Phase     PhaseConfig     `yaml:"phase"`
	Reference ReferenceConfig `yaml:"reference"`
}

type PhaseConfig struct {
	CandidatePeriods []float64 `yaml:"candidate_periods"`
	PeriodLo         float64   `yaml:"period_lo"`
	PeriodHi         float64   `yaml:"period_hi"`
	GridStep         float64   `yaml:"grid_step"`
	ClockPeriod      float64   `yaml:"clock_period"`
	MaxPhaseSD       float64   `yaml:"max_phase_sd"`
	MinAgreement     float64   `yaml:"min_agreement"`
}

type ReferenceConfig struct {
	Modulus float64 `yaml:"modulus"`
	Angle   float64 `yaml:"angle"`
}

func DefaultConfig() *Config {
	p := phase.DefaultConfig()
	return &Config{
		Seed:            DefaultSeed,
		Resamples:       DefaultResamples,
		Permutations:    DefaultPermutations,
		BootstrapMethod: string(validation.MethodResidual),
		Workers:         DefaultWorkers,
		Phase: PhaseConfig{
			CandidatePeriods: p.CandidatePeriods,
			PeriodLo:         p.PeriodLo,
			PeriodHi:         p.PeriodHi,
			GridStep:         p.GridStep,
			ClockPeriod:      p.ClockPeriod,
			MaxPhaseSD:       p.MaxPhaseSD,
			MinAgreement:     p.MinAgreement,
		},
		Reference: ReferenceConfig{
			Modulus: DefaultReferenceModulus,
			Angle:   DefaultReferenceAngle,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// PhasePanel converts the yaml block into the panel's config type.
func (c *Config) PhasePanel() phase.Config {
	return phase.Config{
		CandidatePeriods: c.Phase.CandidatePeriods,
		PeriodLo:         c.Phase.PeriodLo,
		PeriodHi:         c.Phase.PeriodHi,
		GridStep:         c.Phase.GridStep,
		ClockPeriod:      c.Phase.ClockPeriod,
		MaxPhaseSD:       c.Phase.MaxPhaseSD,
		MinAgreement:     c.Phase.MinAgreement,
	}
}
